package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// Public routes
	r.Post("/signup", apiHandler.SignupHandler)
	r.Post("/login", apiHandler.LoginHandler)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ThoughtSort API"})
	})

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(apiHandler.JWTAuthMiddleware)

		// Inbox and sort pipeline
		r.Post("/inbox/append", apiHandler.AppendInboxHandler)
		r.Post("/sort", apiHandler.SortHandler)

		// Notes
		r.Get("/notes", apiHandler.ListNotesHandler)
		r.Get("/notes/{noteID}", apiHandler.GetNoteHandler)

		// Settings
		r.Post("/settings", apiHandler.SaveSettingsHandler)
		r.Get("/settings", apiHandler.GetSettingsHandler)

		// Single-note model paths
		r.Post("/annotate", apiHandler.AnnotateHandler)
		r.Post("/amalgamate", apiHandler.AmalgamateHandler)
	})

	return r
}
