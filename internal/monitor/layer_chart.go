package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/voxelforge/internal/httputil"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

// handleLayerChart renders a quick bar chart (HTML) of voxel counts per
// layer along an axis using go-echarts, to eyeball a partition's profile
// without the frontend.
// Query params: project, partition, axis (default "z").
func (m *Monitor) handleLayerChart(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	partition := r.URL.Query().Get("partition")

	axisName := r.URL.Query().Get("axis")
	if axisName == "" {
		axisName = "z"
	}
	axis, err := voxel.ParseAxis(axisName)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	layers, err := m.eng.Layers(project, partition, axis)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}

	indices := make([]string, 0, len(layers))
	counts := make([]opts.BarData, 0, len(layers))
	for _, l := range layers {
		indices = append(indices, fmt.Sprintf("%d", l.Index))
		counts = append(counts, opts.BarData{Value: l.Count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Layer Profile", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Voxels per layer",
			Subtitle: fmt.Sprintf("project=%s partition=%s axis=%s layers=%d", project, partition, axis, len(layers)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: fmt.Sprintf("%s index", axis)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "voxels"}),
	)
	bar.SetXAxis(indices)
	bar.AddSeries("voxels", counts)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
