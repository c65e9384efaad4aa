package models

import "errors"

var (
	// ErrNotFound indicates a referenced crop, farmer, transaction, expense or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input rejected before touching the store.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a unique field collision such as a duplicate crop name.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates bad credentials or an invalid token.
	ErrUnauthorized = errors.New("unauthorized")
)
