package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyManifest   = errors.New("no source fields discovered across selected connectors")
	ErrVersionConflict = errors.New("canonical schema version conflict")
	ErrNoConnectors    = errors.New("no active connectors selected")
)
