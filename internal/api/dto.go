package api

import "github.com/starford/murmur/internal/models"

// Note is a stored note (aliased from the domain layer).
type Note = models.Note

// Draft is an unsaved title/content pair (aliased from the domain layer).
type Draft = models.Draft

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Groceries"`
	Content string `json:"content" example:"milk, eggs" validate:"required"`
}

// NoteListResponse wraps note listings, most recent first.
type NoteListResponse struct {
	Notes []Note `json:"notes" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Added   int `json:"added" example:"3" validate:"required"`
	Skipped int `json:"skipped" example:"1" validate:"required"`
}

// ShareRequest is the request body for building a share link.
type ShareRequest struct {
	Title   string `json:"title" example:"Hi"`
	Content string `json:"content" example:"there"`
}

// ShareResponse carries the encoded payload and the full link.
type ShareResponse struct {
	Param string `json:"param" example:"eyJ0aXRsZSI6IkhpIiwiY29udGVudCI6InRoZXJlIn0=" validate:"required"`
	URL   string `json:"url" example:"http://localhost:8080/?note=eyJ0aXRsZSI6IkhpIiwiY29udGVudCI6InRoZXJlIn0%3D" validate:"required"`
}
