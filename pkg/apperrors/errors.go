package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrInvalidType   = errors.New("invalid knowledge type")
	ErrJobTerminal   = errors.New("job already in a terminal state")
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrMissingSource = errors.New("must provide source_url or source_text")
)
