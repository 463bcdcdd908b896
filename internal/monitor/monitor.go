// Package monitor provides the debugging visual surface for the voxel
// engine: an ECharts layer-profile chart and a gonum/plot rendering of one
// layer's occupancy. These endpoints are for development inspection only
// and carry no auth.
package monitor

import (
	"net/http"

	"github.com/banshee-data/voxelforge/internal/engine"
)

// Monitor serves the debug visualization endpoints.
type Monitor struct {
	eng *engine.Engine
}

// New creates a Monitor around the engine.
func New(eng *engine.Engine) *Monitor {
	return &Monitor{eng: eng}
}

// AttachDebugRoutes mounts the visualization endpoints on mux.
func (m *Monitor) AttachDebugRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/layers/chart", m.handleLayerChart)
	mux.HandleFunc("/debug/layers/plot", m.handleLayerPlot)
}
