package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ardhi-erp/ardhi/internal/clients"
	"github.com/ardhi-erp/ardhi/internal/installments"
	"github.com/ardhi-erp/ardhi/internal/land"
	"github.com/ardhi-erp/ardhi/internal/notifications"
	"github.com/ardhi-erp/ardhi/internal/offers"
	"github.com/ardhi-erp/ardhi/internal/reports"
	"github.com/ardhi-erp/ardhi/internal/sales"
	"github.com/ardhi-erp/ardhi/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	ClientsHandler       *clients.Handler
	LandHandler          *land.Handler
	OffersHandler        *offers.Handler
	SalesHandler         *sales.Handler
	InstallmentsHandler  *installments.Handler
	NotificationsHandler *notifications.Handler
	ReportsHandler       *reports.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/clients", params.ClientsHandler.MountRoutes)
		api.Route("/land", params.LandHandler.MountRoutes)
		api.Route("/offers", params.OffersHandler.MountRoutes)
		api.Route("/sales", params.SalesHandler.MountRoutes)
		api.Route("/installments", params.InstallmentsHandler.MountRoutes)
		api.Route("/notifications", params.NotificationsHandler.MountRoutes)
		api.Route("/reports", params.ReportsHandler.MountRoutes)
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
