package land

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/batches", h.CreateBatch)
	r.Get("/batches", h.ListBatches)
	r.Get("/batches/{id}", h.ShowBatch)
	r.Post("/pieces", h.CreatePiece)
	r.Get("/pieces", h.ListPieces)
	r.Get("/pieces/{id}", h.ShowPiece)
	r.Get("/pieces/{id}/quote", h.Quote)
	r.Post("/pieces/{id}/reserve", h.Reserve)
	r.Post("/pieces/{id}/release", h.Release)
}
