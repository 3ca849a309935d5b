package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rentcar-intake/internal/httpserver/handlers"
	"rentcar-intake/internal/intake"
	"rentcar-intake/internal/store"
)

// NewRouter wires the intake API. rdb may be nil when no Redis queue is configured.
func NewRouter(p *intake.Pipeline, db *store.DB, rdb *redis.Client, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, RequestLogger(lg))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/submit", handlers.Submit(p, lg))
		api.Post("/submit-form", handlers.Submit(p, lg))
		api.Get("/generate-client-id", handlers.GenerateClientID())
		api.Get("/clients", handlers.ListClients(db.Clients, lg))
		api.Get("/clients/{id}", handlers.GetClient(db.Clients, lg))
		api.Get("/clients/{id}/events", handlers.ClientEvents(p, lg))
		api.Get("/export/csv", handlers.ExportCSV(db.Clients, lg))
		api.Get("/download-pdf/{id}", handlers.DownloadPDF(p, lg))
		api.Post("/resend-email/{id}", handlers.ResendEmail(p, lg))
	})
	r.Get("/healthz", handlers.Health(db, rdb))
	return r
}
