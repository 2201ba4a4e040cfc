package domain

import "errors"

// ErrNotFound is returned by repo, docstore and service functions when the
// requested booking, campsite or summary does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails construction or business rule
// validation (malformed date, missing required field, negative summary total).
// It is never silently coerced: callers either handle it or skip the item.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
