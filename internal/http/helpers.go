package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/log"
)

const maxJSONBody = 1 << 20

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON value from a size-capped request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("malformed JSON: %w", err)
		}
	}
	return nil
}

// queryInt parses an integer query parameter within [lo, hi], returning def
// when it is absent.
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}
	return v, nil
}

// queryDateRange reads the from and to query parameters as YYYY-MM-DD. A
// missing to means today, UTC; a missing from means one month before to.
func queryDateRange(r *http.Request, now time.Time) (from, to core.Date, err error) {
	to = core.NewDate(now.UTC().Year(), int(now.UTC().Month()), now.UTC().Day())
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		if to, err = core.ParseDate(raw); err != nil {
			return from, to, errors.New("to must be YYYY-MM-DD")
		}
	}
	from = core.Date{Time: to.AddDate(0, -1, 0)}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		if from, err = core.ParseDate(raw); err != nil {
			return from, to, errors.New("from must be YYYY-MM-DD")
		}
	}
	if from.After(to.Time) {
		return from, to, errors.New("from must not be after to")
	}
	return from, to, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
