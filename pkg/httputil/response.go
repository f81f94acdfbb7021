package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/platinummonkey/folio/pkg/observability"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// APIError is implemented by domain errors that know how they render over
// HTTP. WriteAppError falls back to a 500 for anything else.
type APIError interface {
	error
	HTTPStatus() int
	Summary() string
	Detail() string
	FieldErrors() map[string]string
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteErrorBody writes {"error": title, "message": message}
func WriteErrorBody(w http.ResponseWriter, status int, title, message string) {
	WriteJSON(w, status, ErrorResponse{Error: title, Message: message})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, title, message string) {
	WriteErrorBody(w, http.StatusBadRequest, title, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, title, message string) {
	WriteErrorBody(w, http.StatusNotFound, title, message)
}

// WriteRequestTooLarge writes a payload too large error (413)
func WriteRequestTooLarge(w http.ResponseWriter, limit int64) {
	WriteErrorBody(w, http.StatusRequestEntityTooLarge, "Request body too large",
		fmt.Sprintf("Request body must not exceed %d bytes", limit))
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteErrorBody(w, http.StatusTooManyRequests, "Too many requests", message)
}

// WriteInternalError writes a 500. The underlying error text is echoed in
// message, matching what clients of this API already parse.
func WriteInternalError(w http.ResponseWriter, title string, err error) {
	WriteErrorBody(w, http.StatusInternalServerError, title, err.Error())
}

// WriteAppError renders err. Errors implementing APIError use their own
// status and body; everything else is logged and rendered as a 500 with
// internalTitle as the error field.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error, internalTitle string) {
	var apiErr APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus() < http.StatusInternalServerError {
		WriteJSON(w, apiErr.HTTPStatus(), ErrorResponse{
			Error:   apiErr.Summary(),
			Message: apiErr.Detail(),
			Details: apiErr.FieldErrors(),
		})
		return
	}

	observability.FromContext(r.Context()).
		WithError(err).
		WithField("path", r.URL.Path).
		Error(internalTitle)
	WriteInternalError(w, internalTitle, err)
}
