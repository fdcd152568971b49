package controllers

import (
	"github.com/go-chi/chi/v5"
	"github.com/rzbill/logbook/internal/devdata"
	"github.com/rzbill/logbook/internal/runtime"
	logpkg "github.com/rzbill/logbook/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general  *GeneralController
	logTypes *LogTypesController
	logs     *LogsController
	dev      *DevController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime. Every
// controller logs through logger.
func NewControllerRegistry(rt *runtime.Runtime, logger logpkg.Logger) *ControllerRegistry {
	gen := devdata.NewWithLogger(rt.LogTypes(), rt.Registry(), rt.Journal(), logger)
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		logTypes: NewLogTypesController(rt, logger),
		logs:     NewLogsController(rt, logger),
		dev:      NewDevController(rt, gen),
	}
}

// RegisterAllRoutes registers all controller routes with the given router.
//
// This method sets up all HTTP endpoints of the journal API, including
// general endpoints (health), log type management, log commits and
// listings, and development data endpoints.
func (r *ControllerRegistry) RegisterAllRoutes(router chi.Router) {
	r.general.RegisterRoutes(router)
	r.logTypes.RegisterRoutes(router)
	r.logs.RegisterRoutes(router)
	r.dev.RegisterRoutes(router)
}
