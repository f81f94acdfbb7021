package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("request body is empty")
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes a 413 when the body exceeded
// MaxBytesMiddleware's limit, a 400 on any other failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteRequestTooLarge(w, tooLarge.Limit)
			return false
		}
		WriteBadRequest(w, "Invalid request body", err.Error())
		return false
	}
	return true
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathUUID extracts a path parameter that must be a UUID and returns
// it in canonical form
func ParsePathUUID(r *http.Request, key string) (string, error) {
	str, err := ParsePathString(r, key)
	if err != nil {
		return "", err
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return "", fmt.Errorf("%s must be a valid UUID", key)
	}
	return id.String(), nil
}

// ParsePathUUIDOrError extracts a UUID path parameter and writes a 400 on failure
func ParsePathUUIDOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id, err := ParsePathUUID(r, key)
	if err != nil {
		WriteBadRequest(w, "Invalid identifier", err.Error())
		return "", false
	}
	return id, true
}

// ParseQueryInt extracts and parses an integer query parameter
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for query param %s: %s", key, str)
	}
	return val, nil
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// Page is a 1-based page number with a bounded page size
type Page struct {
	Page  int
	Limit int
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit query parameters. Values below 1 fall back
// to the defaults; limit is capped at maxLimit.
func ParsePage(r *http.Request, defaultLimit, maxLimit int) (Page, error) {
	page, err := ParseQueryInt(r, "page", 1)
	if err != nil {
		return Page{}, err
	}
	limit, err := ParseQueryInt(r, "limit", defaultLimit)
	if err != nil {
		return Page{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}, nil
}
