package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/huy7715/money-tracker/internal/core"
	applog "github.com/huy7715/money-tracker/internal/log"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses: not-found to 404,
// validation failures to 422, everything else to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrNegativeLimit),
		errors.Is(err, core.ErrEmptyAssetName):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logger := applog.FromContext(r.Context())
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err,
			applog.ComponentHTTP, r.Method+" "+r.URL.Path, applog.NewFields())
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeBody decodes the JSON request body into dst, rejecting unknown
// fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// queryMonth parses an optional month query parameter. When absent,
// returns nil.
func queryMonth(r *http.Request) (*core.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return nil, nil
	}
	month, err := core.ParseMonth(raw)
	if err != nil {
		return nil, err
	}
	return &month, nil
}

// requiredMonth parses the month query parameter, defaulting to the
// current month when absent.
func requiredMonth(r *http.Request) (core.Month, error) {
	month, err := queryMonth(r)
	if err != nil {
		return "", err
	}
	if month == nil {
		return core.CurrentMonth(), nil
	}
	return *month, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
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
