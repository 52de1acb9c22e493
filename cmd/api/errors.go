package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"goomer/internal/auth"
	"goomer/internal/domain/reviews"
	"goomer/internal/service"
)

// ErrorResponse is the body of every non-2xx response.
//
//	@name			ErrorResponse
//	@description	Error body returned by all endpoints
type ErrorResponse struct {
	Error           string `json:"error" example:"Review not found"`
	Details         any    `json:"details,omitempty"`
	Code            string `json:"code,omitempty" example:"auth/invalid-token"`
	Message         string `json:"message,omitempty"`
	RequiresRefresh bool   `json:"requiresRefresh,omitempty"`
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "Error " + op,
		Details: err.Error(),
	})
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
}

func (app *application) validationResponse(w http.ResponseWriter, r *http.Request, verr *service.ValidationError) {
	app.logger.Warnw("validation failed", "method", r.Method, "path", r.URL.Path, "fields", verr.Fields)

	writeJSONError(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: verr.Fields})
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, ErrorResponse{Error: "Review not found"})
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, action string) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, ErrorResponse{Error: "Not authorized to " + action + " this review"})
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, body ErrorResponse, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "code", body.Code, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, body)
}

// errorResponse writes body as is. Used where the message is specific to the endpoint.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse, err error) {
	if status >= http.StatusInternalServerError {
		app.logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err.Error())
	} else {
		app.logger.Warnw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err.Error())
	}

	writeJSONError(w, status, body)
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
}

func (app *application) uploadFailedResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("image upload failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadGateway, ErrorResponse{Error: "Failed to upload images", Details: err.Error()})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSONError(w, http.StatusTooManyRequests, ErrorResponse{Error: "Rate limit exceeded", Details: "retry after " + strconv.Itoa(secs) + "s"})
}

// tokenErrorBody describes why a bearer token was rejected.
func tokenErrorBody(err error) ErrorResponse {
	if errors.Is(err, auth.ErrTokenExpired) {
		return ErrorResponse{
			Error:           "Token expired",
			Code:            "auth/id-token-expired",
			Message:         "Your session has expired. Please refresh your token.",
			RequiresRefresh: true,
		}
	}
	return ErrorResponse{Error: "Invalid token", Code: "auth/invalid-token", Message: err.Error()}
}

// reviewErrorResponse maps a service error for the given operation
// ("creating", "updating", ...) to its HTTP response.
func (app *application) reviewErrorResponse(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		verr *service.ValidationError
		uerr *service.UploadError
	)
	switch {
	case errors.As(err, &verr):
		app.validationResponse(w, r, verr)
	case errors.As(err, &uerr):
		app.uploadFailedResponse(w, r, err)
	case errors.Is(err, reviews.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, service.ErrUnauthenticated):
		app.unauthorizedErrorResponse(w, r, ErrorResponse{Error: "Authentication required", Code: "auth/no-token"}, err)
	case errors.Is(err, service.ErrForbidden):
		app.forbiddenResponse(w, r, forbiddenAction(op))
	default:
		app.internalServerError(w, r, op+" review", err)
	}
}

func forbiddenAction(op string) string {
	switch op {
	case "deleting":
		return "delete"
	default:
		return "update"
	}
}
