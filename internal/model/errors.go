package model

import (
	"errors"
	"fmt"
)

// Error kinds returned by the lifecycle engine. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrAdminExists   = errors.New("an admin already exists")
	ErrDuplicateUser = errors.New("user exists")
	ErrPersistence   = errors.New("persistence failure")
	ErrAborted       = errors.New("aborted")
)

// ValidationError describes malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// PersistenceError reports a failed snapshot write or read. The in-memory
// change it accompanies has been applied.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
