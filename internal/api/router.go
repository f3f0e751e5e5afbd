package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/murmur/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Delete("/notes", h.DeleteNoteByTimestamp)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Get("/notes/{id}/text", h.NoteText)

	// Interchange.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// Share links.
	r.Post("/share", h.EncodeShare)
	r.Get("/share", h.DecodeShare)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
