package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"goomer/internal/validation"
)

const (
	defaultMaxBodyBytes = 1 << 20  // 1mb
	reviewMaxBodyBytes  = 50 << 20 // base64 images travel inline
)

var Validate *validator.Validate

func init() {
	Validate = validation.New()
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// readJSON parses body into data. Unknown keys are ignored so a client
// supplied userId or images on update are silently dropped.
func readJSON(w http.ResponseWriter, r *http.Request, data any, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(data); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("body must not be larger than %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		default:
			return err
		}
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, body ErrorResponse) error {
	return writeJSON(w, status, &body)
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	return writeJSON(w, status, data)
}
