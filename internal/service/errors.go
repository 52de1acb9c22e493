package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"goomer/internal/validation"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError maps field paths to human readable messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validationError(err error) error {
	if fields := validation.Fields(err); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("validate: %w", err)
}

// UploadError means the media store rejected or failed an upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "upload images: " + e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }
