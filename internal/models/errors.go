package models

import "errors"

// Sentinel errors shared by the repositories and the notification pipeline.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDocument = errors.New("invalid document")
	ErrDuplicate       = errors.New("duplicate")
)
