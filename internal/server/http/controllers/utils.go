package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rzbill/logbook/internal/devdata"
	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/internal/logtype"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeErr maps a domain error onto its status code and writes it.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// statusFor maps domain sentinel errors to HTTP status codes.
//
// Missing records map to 404, malformed input to 400, edits that would
// break a store rule to 409 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kv.ErrNotFound),
		errors.Is(err, logtype.ErrPlaceholderNotFound),
		errors.Is(err, journal.ErrUnknownLogType):
		return http.StatusNotFound
	case errors.Is(err, logtype.ErrInvalidPlaceholder),
		errors.Is(err, logtype.ErrInvalidPatch),
		errors.Is(err, journal.ErrNeedsInput):
		return http.StatusBadRequest
	case errors.Is(err, logtype.ErrRevisionRecord),
		errors.Is(err, logtype.ErrDuplicatePlaceholder),
		errors.Is(err, devdata.ErrNoLogTypes):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

// writeJSONStatus writes a JSON response with the given status code.
func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeCreated writes a 201 Created response with the created resource.
func writeCreated(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusCreated, data)
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns 0 for empty strings or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseTimestamp parses a query timestamp.
//
// Supports raw millisecond timestamps, RFC3339 and plain dates, which are
// read in loc. Returns the zero time for empty strings.
func parseTimestamp(ts string, loc *time.Location) (time.Time, error) {
	if ts == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, ts, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseBool parses a boolean string and returns the boolean value.
//
// Returns true for "true" or "1", false otherwise.
func parseBool(s string) bool {
	return s == "true" || s == "1"
}

// splitList collects repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
