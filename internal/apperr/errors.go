// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyContent     = errors.New("note content is empty")
	ErrNoNotes          = errors.New("no notes to export")
	ErrInvalidShareLink = errors.New("invalid share link")
)
