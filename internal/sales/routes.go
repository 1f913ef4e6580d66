package sales

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/confirm-group", h.ConfirmGroup)
}
