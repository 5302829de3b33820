package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Leadrat/pdfscan-pankaj-joshi/cmd/brochure-api/handlers"
	"github.com/Leadrat/pdfscan-pankaj-joshi/cmd/brochure-api/middleware"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/config"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, svc handlers.BrochureService, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{cfg.Server.FrontendOrigin}))
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"brochure-engine"}`))
	})

	h := handlers.NewBrochureHandler(logger, svc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Get("/extract-text", h.ExtractText)
		r.Post("/extract-ocr-data", h.OCR)
		r.Post("/structure-data", h.Structure)
		r.Post("/chatbot/query", h.Chat)
		r.Get("/records/{id}", h.GetRecord)
	})

	return r
}
