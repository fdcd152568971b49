package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rzbill/logbook/internal/logtype"
)

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http error: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("http error: %d %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// HTTPTransport implements Transport over the JSON API.
type HTTPTransport struct {
	base   string
	client *http.Client
}

// NewHTTPTransport constructs a transport for the API at baseURL. A nil
// client uses http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{base: baseURL, client: client}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (t *HTTPTransport) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.base+path, rd)
	if err != nil {
		return err
	}
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func logTypePath(id string, rest ...string) string {
	p := "/v1/logtypes/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// ListLogTypes lists active log types, or all of them when archived is set.
func (t *HTTPTransport) ListLogTypes(ctx context.Context, archived bool) ([]LogType, error) {
	var out struct {
		LogTypes []LogType `json:"logTypes"`
	}
	path := "/v1/logtypes"
	if archived {
		path += "?archived=true"
	}
	err := t.do(ctx, http.MethodGet, path, nil, &out)
	return out.LogTypes, err
}

// CreateLogType creates a log type with the default schema.
func (t *HTTPTransport) CreateLogType(ctx context.Context, name string) (LogType, error) {
	var out LogType
	err := t.do(ctx, http.MethodPost, "/v1/logtypes", map[string]string{"name": name}, &out)
	return out, err
}

// GetLogType reads a log type or revision snapshot.
func (t *HTTPTransport) GetLogType(ctx context.Context, id string) (LogType, error) {
	var out LogType
	err := t.do(ctx, http.MethodGet, logTypePath(id), nil, &out)
	return out, err
}

// PatchLogType applies a JSON merge patch.
func (t *HTTPTransport) PatchLogType(ctx context.Context, id string, mergePatch []byte) (LogType, error) {
	var out LogType
	err := t.do(ctx, http.MethodPatch, logTypePath(id), mergePatch, &out)
	return out, err
}

// SetArchived archives or unarchives a log type.
func (t *HTTPTransport) SetArchived(ctx context.Context, id string, archived bool) (LogType, error) {
	action := "unarchive"
	if archived {
		action = "archive"
	}
	var out LogType
	err := t.do(ctx, http.MethodPost, logTypePath(id, action), nil, &out)
	return out, err
}

// Revisions lists the revision snapshots of a log type.
func (t *HTTPTransport) Revisions(ctx context.Context, id string) (Revisions, error) {
	var out Revisions
	err := t.do(ctx, http.MethodGet, logTypePath(id, "revisions"), nil, &out)
	return out, err
}

// Diff compares two states of a log type. Empty from or to use the server
// defaults.
func (t *HTTPTransport) Diff(ctx context.Context, id, from, to string) (Diff, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	path := logTypePath(id, "diff")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out Diff
	err := t.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// AddPlaceholder appends a placeholder.
func (t *HTTPTransport) AddPlaceholder(ctx context.Context, id, kind, name string) (logtype.Placeholder, error) {
	var out logtype.Placeholder
	err := t.do(ctx, http.MethodPost, logTypePath(id, "placeholders"), map[string]string{"kind": kind, "name": name}, &out)
	return out, err
}

// UpdatePlaceholder patches one placeholder.
func (t *HTTPTransport) UpdatePlaceholder(ctx context.Context, id, pid string, patch logtype.PlaceholderPatch) (logtype.Placeholder, error) {
	var out logtype.Placeholder
	err := t.do(ctx, http.MethodPatch, logTypePath(id, "placeholders", url.PathEscape(pid)), patch, &out)
	return out, err
}

// RemovePlaceholder drops one placeholder.
func (t *HTTPTransport) RemovePlaceholder(ctx context.Context, id, pid string) error {
	return t.do(ctx, http.MethodDelete, logTypePath(id, "placeholders", url.PathEscape(pid)), nil, nil)
}

// MovePlaceholder moves one placeholder to index.
func (t *HTTPTransport) MovePlaceholder(ctx context.Context, id, pid string, index int) error {
	return t.do(ctx, http.MethodPost, logTypePath(id, "placeholders", url.PathEscape(pid), "move"), map[string]int{"index": index}, nil)
}

// Commit commits a log.
func (t *HTTPTransport) Commit(ctx context.Context, req CommitRequest) (Log, error) {
	var out Log
	err := t.do(ctx, http.MethodPost, "/v1/logs", req, &out)
	return out, err
}

func (f LogFilter) query() string {
	q := url.Values{}
	if f.Contain != "" {
		q.Set("contain", f.Contain)
	}
	for _, typ := range f.Types {
		q.Add("type", typ)
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	if f.Where != "" {
		q.Set("where", f.Where)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListLogs lists logs passing f, newest first.
func (t *HTTPTransport) ListLogs(ctx context.Context, f LogFilter) ([]Log, error) {
	var out struct {
		Logs []Log `json:"logs"`
	}
	err := t.do(ctx, http.MethodGet, "/v1/logs"+f.query(), nil, &out)
	return out.Logs, err
}

// Sections lists logs passing f grouped by date.
func (t *HTTPTransport) Sections(ctx context.Context, f LogFilter) ([]Section, error) {
	var out struct {
		Sections []Section `json:"sections"`
	}
	err := t.do(ctx, http.MethodGet, "/v1/logs/sections"+f.query(), nil, &out)
	return out.Sections, err
}

// History returns previously entered values for a placeholder.
func (t *HTTPTransport) History(ctx context.Context, pid string, limit int) ([]string, error) {
	path := "/v1/history/" + url.PathEscape(pid)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Values []string `json:"values"`
	}
	err := t.do(ctx, http.MethodGet, path, nil, &out)
	return out.Values, err
}

// Seed writes the sample log types.
func (t *HTTPTransport) Seed(ctx context.Context) ([]LogType, error) {
	var out struct {
		LogTypes []LogType `json:"logTypes"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/dev/seed", nil, &out)
	return out.LogTypes, err
}

// Generate commits count random logs spread over the last days.
func (t *HTTPTransport) Generate(ctx context.Context, count, days int) (int, error) {
	var out struct {
		Generated int `json:"generated"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/dev/generate", map[string]int{"count": count, "days": days}, &out)
	return out.Generated, err
}

// Clear removes every log and input history entry, and with all every log
// type as well.
func (t *HTTPTransport) Clear(ctx context.Context, all bool) error {
	path := "/v1/dev/clear"
	if all {
		path += "?all=true"
	}
	return t.do(ctx, http.MethodPost, path, nil, nil)
}

// Reset clears everything and writes the sample log types again.
func (t *HTTPTransport) Reset(ctx context.Context) ([]LogType, error) {
	var out struct {
		LogTypes []LogType `json:"logTypes"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/dev/reset", nil, &out)
	return out.LogTypes, err
}

var _ Transport = (*HTTPTransport)(nil)
