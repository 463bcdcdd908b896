package monitor

import (
	"fmt"
	"net/http"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/voxelforge/internal/httputil"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

// handleLayerPlot renders one layer's in-plane occupancy as a PNG scatter
// plot. Useful to sanity-check rasterization output and layer bounds.
// Query params: project, partition, axis, index.
func (m *Monitor) handleLayerPlot(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	partition := r.URL.Query().Get("partition")

	axis, err := voxel.ParseAxis(r.URL.Query().Get("axis"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		httputil.BadRequest(w, "index must be an integer")
		return
	}

	view, err := m.eng.Layer(project, partition, axis, index)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}

	pts := make(plotter.XYs, len(view.Voxels))
	for i, lv := range view.Voxels {
		pts[i] = plotter.XY{X: float64(lv.U), Y: float64(lv.V)}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s/%s %s=%d (%d voxels)", project, partition, axis, index, len(view.Voxels))
	p.X.Label.Text = "u"
	p.Y.Label.Text = "v"
	p.X.Min = float64(view.Bounds.MinU) - 1
	p.X.Max = float64(view.Bounds.MaxU) + 1
	p.Y.Min = float64(view.Bounds.MinV) - 1
	p.Y.Max = float64(view.Bounds.MaxV) + 1

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to build plot: %v", err))
		return
	}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter, plotter.NewGrid())

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		return
	}
}
