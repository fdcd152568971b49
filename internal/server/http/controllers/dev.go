package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rzbill/logbook/internal/devdata"
	"github.com/rzbill/logbook/internal/query"
	"github.com/rzbill/logbook/internal/runtime"
)

// defaultGenerateCount is used when a generate request names no count.
const defaultGenerateCount = 20

// DevController exposes development data helpers.
type DevController struct {
	gen   *devdata.Generator
	query *query.Engine
}

// NewDevController creates a new dev controller.
func NewDevController(rt *runtime.Runtime, gen *devdata.Generator) *DevController {
	return &DevController{gen: gen, query: rt.Query()}
}

// RegisterRoutes registers development routes with the given router.
//
// This method sets up HTTP endpoints for:
// - Seeding sample log types (/v1/dev/seed)
// - Generating random logs (/v1/dev/generate)
// - Clearing logs and input history, or everything with ?all=true (/v1/dev/clear)
// - Clearing everything and seeding again (/v1/dev/reset)
func (c *DevController) RegisterRoutes(router chi.Router) {
	router.Post("/v1/dev/seed", c.handleSeed)
	router.Post("/v1/dev/generate", c.handleGenerate)
	router.Post("/v1/dev/clear", c.handleClear)
	router.Post("/v1/dev/reset", c.handleReset)
}

func (c *DevController) handleSeed(w http.ResponseWriter, r *http.Request) {
	lts, err := c.gen.Seed(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"logTypes": newLogTypeViews(lts)})
}

// handleGenerate commits random logs.
//
// Expects an optional JSON body with "count" and "days", the window the
// creation times are spread over.
func (c *DevController) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req := generateReq{Count: defaultGenerateCount}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be positive")
		return
	}
	logs, err := c.gen.Generate(r.Context(), req.Count, time.Duration(req.Days)*24*time.Hour)
	if err != nil {
		writeErr(w, err)
		return
	}
	// keep the loaded list in display order
	if _, err := c.query.LoadAll(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeCreated(w, map[string]any{"generated": len(logs)})
}

func (c *DevController) handleClear(w http.ResponseWriter, r *http.Request) {
	wipe := c.gen.Clear
	if parseBool(r.URL.Query().Get("all")) {
		wipe = c.gen.ClearAll
	}
	if err := wipe(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

func (c *DevController) handleReset(w http.ResponseWriter, r *http.Request) {
	lts, err := c.gen.Reset(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"logTypes": newLogTypeViews(lts)})
}
