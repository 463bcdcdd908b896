package monitor_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxelforge/internal/engine"
	"github.com/banshee-data/voxelforge/internal/monitor"
	"github.com/banshee-data/voxelforge/internal/testutil"
)

func debugMux(t *testing.T) *http.ServeMux {
	t.Helper()
	eng := engine.New(nil)
	_, err := eng.Voxelize("demo", testutil.CubeTriangles(4), 1)
	require.NoError(t, err)

	mux := http.NewServeMux()
	monitor.New(eng).AttachDebugRoutes(mux)
	return mux
}

func TestLayerChart(t *testing.T) {
	mux := debugMux(t)

	w := testutil.NewTestRecorder()
	mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, "/debug/layers/chart?project=demo&partition=default"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), "echarts") {
		t.Error("chart HTML does not embed echarts")
	}
}

func TestLayerChartErrors(t *testing.T) {
	mux := debugMux(t)

	w := testutil.NewTestRecorder()
	mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, "/debug/layers/chart?project=missing&partition=default"))
	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)

	w = testutil.NewTestRecorder()
	mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, "/debug/layers/chart?project=demo&partition=default&axis=w"))
	testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
}

func TestLayerPlot(t *testing.T) {
	mux := debugMux(t)

	w := testutil.NewTestRecorder()
	mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, "/debug/layers/plot?project=demo&partition=default&axis=z&index=0"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	// PNG magic bytes
	if body := w.Body.Bytes(); len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Error("response is not a PNG")
	}
}

func TestLayerPlotErrors(t *testing.T) {
	mux := debugMux(t)

	w := testutil.NewTestRecorder()
	mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, "/debug/layers/plot?project=demo&partition=default&axis=z&index=77"))
	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)

	w = testutil.NewTestRecorder()
	mux.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, "/debug/layers/plot?project=demo&partition=default&axis=z"))
	testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
}
