package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/internal/query"
	"github.com/rzbill/logbook/internal/runtime"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// LogsController handles log commit, listing and input history endpoints.
type LogsController struct {
	types   *logtype.Store
	journal *journal.Journal
	query   *query.Engine
	loc     *time.Location
	logger  logpkg.Logger
}

// NewLogsController creates a new logs controller.
//
// Calendar dates in filters and sections are read in the runtime's
// configured location.
func NewLogsController(rt *runtime.Runtime, logger logpkg.Logger) *LogsController {
	return &LogsController{
		types:   rt.LogTypes(),
		journal: rt.Journal(),
		query:   rt.Query(),
		loc:     rt.Location(),
		logger:  logger,
	}
}

// RegisterRoutes registers log routes with the given router.
//
// This method sets up HTTP endpoints for:
// - Committing logs (POST /v1/logs)
// - Filtered listings, flat or sectioned by date
// - Reading one log with its pinned schema
// - Input history per placeholder (/v1/history/{pid})
func (c *LogsController) RegisterRoutes(router chi.Router) {
	router.Post("/v1/logs", c.handleCommit)
	router.Get("/v1/logs", c.handleList)
	router.Get("/v1/logs/sections", c.handleSections)
	router.Get("/v1/logs/{id}", c.handleGet)
	router.Get("/v1/history/{pid}", c.handleHistory)
}

// handleCommit commits a log.
//
// Expects a JSON body with "logTypeId", placeholder "values" keyed by
// placeholder id, an optional "createAt" and an optional "quick" flag.
// Returns 201 Created with the committed log.
func (c *LogsController) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.LogTypeID == "" {
		writeError(w, http.StatusBadRequest, "logTypeId is required")
		return
	}
	lt, err := c.types.Get(logtype.CanonicalID(req.LogTypeID))
	if errors.Is(err, kv.ErrNotFound) {
		writeErr(w, fmt.Errorf("%q: %w", req.LogTypeID, journal.ErrUnknownLogType))
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	var committed journal.Log
	if req.Quick {
		committed, err = c.journal.QuickCommit(r.Context(), lt)
	} else {
		l := c.journal.MakeDefault(lt)
		for pid, v := range req.Values {
			if l, err = journal.SetValue(l, pid, v); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if req.CreateAt != "" {
			if l.CreateAt, err = logtype.ParseTime(req.CreateAt); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid createAt")
				return
			}
		}
		committed, err = c.journal.Commit(r.Context(), l)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeCreated(w, newLogView(committed))
}

// parseFilter reads contain, type, from, to and where query parameters.
//
// "type" may repeat or hold a comma separated list. "from" and "to" accept
// millisecond timestamps, RFC3339 or plain dates; a plain "to" date covers
// the whole day.
func (c *LogsController) parseFilter(r *http.Request) (query.Filter, error) {
	q := r.URL.Query()
	f := query.Filter{
		Contain:  q.Get("contain"),
		LogTypes: splitList(q["type"]),
		Where:    q.Get("where"),
	}
	var err error
	if f.From, err = parseTimestamp(q.Get("from"), c.loc); err != nil {
		return f, fmt.Errorf("invalid from: %w", err)
	}
	to := q.Get("to")
	if f.To, err = parseTimestamp(to, c.loc); err != nil {
		return f, fmt.Errorf("invalid to: %w", err)
	}
	if len(to) == len(time.DateOnly) && !f.To.IsZero() {
		f.To = f.To.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return f, nil
}

// filtered loads every log newest first and applies the request filter.
// The second return is false once an error response has been written.
func (c *LogsController) filtered(w http.ResponseWriter, r *http.Request) ([]journal.Log, bool) {
	f, err := c.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	p, err := query.Compile(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	logs, err := c.query.LoadAll(r.Context())
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	out := make([]journal.Log, 0, len(logs))
	for _, l := range logs {
		if p.Match(l) {
			out = append(out, l)
		}
	}
	if limit := parseLimit(r.URL.Query().Get("limit")); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, true
}

// handleList returns the logs passing the query filter, newest first.
func (c *LogsController) handleList(w http.ResponseWriter, r *http.Request) {
	logs, ok := c.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"logs": newLogViews(logs)})
}

// handleSections returns the filtered logs grouped by calendar date.
func (c *LogsController) handleSections(w http.ResponseWriter, r *http.Request) {
	logs, ok := c.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"sections": newSectionViews(query.SectionByDate(logs, c.loc))})
}

// handleGet returns one log joined with the schema it is pinned to.
func (c *LogsController) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := c.journal.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, newLogView(l))
}

// handleHistory returns values previously entered for a placeholder,
// newest first, capped by ?limit.
func (c *LogsController) handleHistory(w http.ResponseWriter, r *http.Request) {
	values, err := c.journal.InputHistory(chi.URLParam(r, "pid"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if limit := parseLimit(r.URL.Query().Get("limit")); limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, map[string]any{"values": values})
}
