package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"lunchreports/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// statusFor maps a service error to the HTTP status reported to clients.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrMissingOrderer),
		errors.Is(err, core.ErrDuplicateName):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the short text shown for an error status.
func userMessage(status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return "Storage is unavailable, try again shortly"
	case http.StatusUnprocessableEntity:
		return "Invalid request"
	case http.StatusNotFound:
		return "Not found"
	default:
		return "Something went wrong"
	}
}

// attachment builds a Content-Disposition value offering name as a download.
func attachment(name string) string {
	v := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if v == "" {
		return "attachment"
	}
	return v
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
