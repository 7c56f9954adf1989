package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is an error with an HTTP status and a client-facing message
type AppError struct {
	Status  int
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   bool           `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func badRequest(message string, details map[string]any) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message, Details: details}
}

func missingFields(fields ...string) *AppError {
	return badRequest(fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", ")), map[string]any{"missing_fields": fields})
}

// toAppError maps any error to an AppError; unknown errors become 500s
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &AppError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: "Request body too large",
			Details: map[string]any{"limit_bytes": tooLarge.Limit},
			Err:     err,
		}
	}

	return &AppError{
		Status:  http.StatusInternalServerError,
		Message: "An unexpected error occurred",
		Details: map[string]any{"error": err.Error()},
		Err:     err,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, appErr *AppError) {
	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}
	writeJSON(w, appErr.Status, ErrorResponse{Error: true, Message: appErr.Message, Details: details})
}
