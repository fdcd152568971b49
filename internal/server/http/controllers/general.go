package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rzbill/logbook/internal/runtime"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// GeneralController serves the health check.
type GeneralController struct {
	rt *runtime.Runtime
}

func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

func (c *GeneralController) RegisterRoutes(router chi.Router) {
	router.Get("/v1/healthz", c.handleHealth)
}

// handleHealth pings the storage engine. 503 when it does not answer;
// otherwise the engine name and the number of known log types.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		c.rt.Logger().Warn("health check failed", logpkg.Err(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, map[string]any{
		"status":   "ok",
		"engine":   c.rt.Config().Engine,
		"logTypes": len(c.rt.Registry().All()),
	})
}
