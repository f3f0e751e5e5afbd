package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/checksum"
	"github.com/starford/murmur/internal/codec"
	"github.com/starford/murmur/internal/noteservice"
)

const maxImportBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, most recent first, optionally filtered
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive substring of title or content"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes := h.svc.Query(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Save a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to save"
//	@Success		201		{object}	Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.Add(r.Context(), req.Title, req.Content)
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyContent) {
			writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		} else {
			slog.Error("create note failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// DeleteNoteByTimestamp handles DELETE /api/notes?timestamp=.
//
//	@Summary		Delete the first note with the given timestamp
//	@Tags			notes
//	@Param			timestamp	query	string	true	"Creation timestamp"
//	@Success		204			"Deleted, or nothing matched"
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [delete]
func (h *Handler) DeleteNoteByTimestamp(w http.ResponseWriter, r *http.Request) {
	ts := r.URL.Query().Get("timestamp")
	if ts == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'timestamp' is required"))
		return
	}
	if _, err := h.svc.RemoveByTimestamp(r.Context(), ts); err != nil {
		slog.Error("delete note failed", slog.String("timestamp", ts), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note by ID
//	@Tags			notes
//	@Param			id	path	string	true	"Note ID"
//	@Success		204	"Deleted, or nothing matched"
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.RemoveByID(r.Context(), id); err != nil {
		slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NoteText handles GET /api/notes/{id}/text.
//
//	@Summary		Download one note as a text file
//	@Tags			notes
//	@Produce		plain
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/text [get]
func (h *Handler) NoteText(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	name, body := codec.NoteText(note)
	writeDownload(w, codec.TextContentType, name, body)
}

// Export handles GET /api/export.
//
//	@Summary		Download all notes as CSV
//	@Tags			interchange
//	@Produce		text/csv
//	@Param			If-None-Match	header	string	false	"ETag of a previous export"
//	@Success		200	{string}	string
//	@Success		304	"Unchanged since the given ETag"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name, body, err := h.svc.Export(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNoNotes) {
			writeJSON(w, http.StatusNotFound, errorBody("No notes to export."))
		} else {
			slog.Error("export failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	etag := checksum.ETag([]byte(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeDownload(w, codec.CSVContentType, name, body)
}

// Import handles POST /api/import. The CSV is either the raw request body
// or the "file" field of a multipart form.
//
//	@Summary		Import notes from CSV
//	@Tags			interchange
//	@Accept			text/csv
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(src)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	added, skipped, err := h.svc.Import(r.Context(), string(data))
	if err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Added: added, Skipped: skipped})
}

// EncodeShare handles POST /api/share.
//
//	@Summary		Build a share link for a draft
//	@Tags			share
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ShareRequest	true	"Draft to share"
//	@Success		200		{object}	ShareResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/share [post]
func (h *Handler) EncodeShare(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	d := Draft{Title: req.Title, Content: req.Content}
	param, err := h.svc.EncodeShareLink(d)
	if err != nil {
		slog.Error("encode share link failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	link, err := h.svc.ShareURL(d)
	if err != nil {
		slog.Error("build share url failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Param: param, URL: link})
}

// DecodeShare handles GET /api/share?note=. A malformed payload is not an
// error for the caller: the composer simply stays empty.
//
//	@Summary		Decode a share-link payload into a draft
//	@Tags			share
//	@Produce		json
//	@Param			note	query		string	true	"Share payload"
//	@Success		200		{object}	Draft
//	@Success		204		"Payload missing or malformed"
//	@Security		BearerAuth
//	@Router			/share [get]
func (h *Handler) DecodeShare(w http.ResponseWriter, r *http.Request) {
	payload := r.URL.Query().Get(codec.ShareParam)
	if payload == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	d, ok := h.svc.DecodeShareLink(payload)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
