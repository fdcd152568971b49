package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rzbill/logbook/internal/kv"
	"github.com/rzbill/logbook/internal/logtype"
	"github.com/rzbill/logbook/internal/registry"
	"github.com/rzbill/logbook/internal/runtime"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// maxPatchBytes caps merge patch bodies.
const maxPatchBytes = 1 << 20

// LogTypesController handles log type and placeholder endpoints.
//
// Edits go straight to the revision store; the registry is refreshed
// afterwards so newly indexed types show up in listings.
type LogTypesController struct {
	types    *logtype.Store
	registry *registry.Registry
	logger   logpkg.Logger
}

// NewLogTypesController creates a new log types controller.
func NewLogTypesController(rt *runtime.Runtime, logger logpkg.Logger) *LogTypesController {
	return &LogTypesController{
		types:    rt.LogTypes(),
		registry: rt.Registry(),
		logger:   logger,
	}
}

// RegisterRoutes registers log type routes with the given router.
//
// This method sets up HTTP endpoints for:
// - Listing and creating log types (/v1/logtypes)
// - Reading, patching, archiving and unarchiving one log type
// - Revision listings, revision diffs and unsaved drafts
// - Placeholder add, update, remove and move
func (c *LogTypesController) RegisterRoutes(router chi.Router) {
	router.Route("/v1/logtypes", func(r chi.Router) {
		r.Get("/", c.handleList)
		r.Post("/", c.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", c.handleGet)
			r.Patch("/", c.handlePatch)
			r.Post("/archive", c.handleArchive)
			r.Post("/unarchive", c.handleUnarchive)
			r.Get("/revisions", c.handleRevisions)
			r.Get("/diff", c.handleDiff)
			r.Get("/draft", c.handleDraft)
			r.Post("/placeholders", c.handleAddPlaceholder)
			r.Patch("/placeholders/{pid}", c.handleUpdatePlaceholder)
			r.Delete("/placeholders/{pid}", c.handleRemovePlaceholder)
			r.Post("/placeholders/{pid}/move", c.handleMovePlaceholder)
		})
	})
}

// refresh reloads the registry after an edit that may have indexed a new
// log type. Failures are logged; the edit itself already landed.
func (c *LogTypesController) refresh(r *http.Request) {
	if _, err := c.registry.Refresh(r.Context()); err != nil {
		c.logger.Warn("registry refresh failed", logpkg.Err(err))
	}
}

// handleList lists log types.
//
// Archived types are only included with ?archived=true.
func (c *LogTypesController) handleList(w http.ResponseWriter, r *http.Request) {
	lts := c.registry.Active()
	if parseBool(r.URL.Query().Get("archived")) {
		lts = c.registry.All()
	}
	writeJSON(w, map[string]any{"logTypes": newLogTypeViews(lts)})
}

// handleCreate creates a log type with the default schema.
//
// Expects an optional JSON body with a "name" field. Returns 201 Created
// with the new log type.
func (c *LogTypesController) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createLogTypeReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	lt, err := c.types.Create(req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	c.refresh(r)
	writeCreated(w, newLogTypeView(lt))
}

// handleGet returns one log type. Revision ids ("id:N") return the snapshot.
func (c *LogTypesController) handleGet(w http.ResponseWriter, r *http.Request) {
	lt, err := c.types.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, newLogTypeView(lt))
}

// handlePatch applies a JSON merge patch to the canonical record and bumps
// updateAt.
func (c *LogTypesController) handlePatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	lt, err := c.types.UpdateJSON(chi.URLParam(r, "id"), body, logtype.UpdateOptions{BumpTimestamp: true})
	if err != nil {
		writeErr(w, err)
		return
	}
	c.refresh(r)
	writeJSON(w, newLogTypeView(lt))
}

func (c *LogTypesController) handleArchive(w http.ResponseWriter, r *http.Request) {
	lt, err := c.types.Archive(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, newLogTypeView(lt))
}

func (c *LogTypesController) handleUnarchive(w http.ResponseWriter, r *http.Request) {
	lt, err := c.types.Unarchive(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, newLogTypeView(lt))
}

// handleRevisions lists the revision snapshots of a log type, newest first.
//
// Snapshot ids in the index whose record is missing are skipped.
func (c *LogTypesController) handleRevisions(w http.ResponseWriter, r *http.Request) {
	id := logtype.CanonicalID(chi.URLParam(r, "id"))
	canonical, err := c.types.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	ids, err := c.types.Revisions(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := revisionsView{ID: id, Revision: canonical.Revision, Revisions: []logTypeView{}}
	for _, rid := range ids {
		snap, err := c.types.GetRevision(rid)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		out.Revisions = append(out.Revisions, newLogTypeView(snap))
	}
	writeJSON(w, out)
}

// handleDiff compares the placeholders of two states of a log type.
//
// ?from defaults to the newest revision snapshot (or the canonical record
// when there is none) and ?to defaults to the canonical record.
func (c *LogTypesController) handleDiff(w http.ResponseWriter, r *http.Request) {
	id := logtype.CanonicalID(chi.URLParam(r, "id"))
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if to == "" {
		to = id
	}
	if from == "" {
		ids, err := c.types.Revisions(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		from = id
		if len(ids) > 0 {
			from = ids[0]
		}
	}
	for _, ref := range []string{from, to} {
		if logtype.CanonicalID(ref) != id {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%q is not a state of %q", ref, id))
			return
		}
	}
	a, err := c.types.Get(from)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, err := c.types.Get(to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, diffView{From: from, To: to, Changes: logtype.DiffRevisions(a, b)})
}

// handleDraft returns the canonical record, or a fresh unsaved default when
// the id was never persisted.
func (c *LogTypesController) handleDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := c.types.Get(id)
	persisted := err == nil
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		writeErr(w, err)
		return
	}
	lt, err := c.types.LoadCanonical(id, logtype.LoadOptions{})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, draftView{logTypeView: newLogTypeView(lt), Persisted: persisted})
}

// handleAddPlaceholder appends a placeholder.
//
// Expects a JSON body with "kind" and an optional "name". Returns 201
// Created with the new placeholder.
func (c *LogTypesController) handleAddPlaceholder(w http.ResponseWriter, r *http.Request) {
	var req addPlaceholderReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kind, err := logtype.ParseKind(req.Kind)
	if err != nil {
		writeErr(w, err)
		return
	}
	p, err := c.types.AddPlaceholder(chi.URLParam(r, "id"), kind, req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	c.refresh(r)
	writeCreated(w, p)
}

// handleUpdatePlaceholder applies a placeholder patch.
func (c *LogTypesController) handleUpdatePlaceholder(w http.ResponseWriter, r *http.Request) {
	var patch logtype.PlaceholderPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := c.types.UpdatePlaceholder(chi.URLParam(r, "id"), chi.URLParam(r, "pid"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, p)
}

func (c *LogTypesController) handleRemovePlaceholder(w http.ResponseWriter, r *http.Request) {
	if err := c.types.RemovePlaceholder(chi.URLParam(r, "id"), chi.URLParam(r, "pid")); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

// handleMovePlaceholder moves a placeholder to the "index" given in the body.
// Out of range indexes are clamped.
func (c *LogTypesController) handleMovePlaceholder(w http.ResponseWriter, r *http.Request) {
	var req movePlaceholderReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.types.MovePlaceholder(chi.URLParam(r, "id"), chi.URLParam(r, "pid"), req.Index); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}
