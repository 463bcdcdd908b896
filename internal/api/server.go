// Package api exposes the voxel engine to the presentation collaborator
// (3D viewer, 2D layer grid, menus) as a JSON HTTP API.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/voxelforge/internal/engine"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server holds the engine and the directory where uploaded meshes and
// generated exports live.
type Server struct {
	eng     *engine.Engine
	dataDir string
}

// NewServer creates a new API server around the engine. dataDir is where
// uploaded STL files are stored and looked up by voxelize requests.
func NewServer(eng *engine.Engine, dataDir string) *Server {
	return &Server{
		eng:     eng,
		dataDir: dataDir,
	}
}

// ServeMux returns the API routes, to be mounted under /api.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/mesh", s.uploadMesh)
	mux.HandleFunc("/voxelize", s.voxelize)
	mux.HandleFunc("/projects", s.listProjects)
	mux.HandleFunc("/partitions", s.partitions)
	mux.HandleFunc("/voxels", s.listVoxels)
	mux.HandleFunc("/voxels/update", s.updateVoxels)
	mux.HandleFunc("/surface", s.surface)
	mux.HandleFunc("/layers", s.listLayers)
	mux.HandleFunc("/layer", s.getLayer)
	mux.HandleFunc("/history", s.history)
	mux.HandleFunc("/export", s.exportTable)
	mux.HandleFunc("/version", s.getVersion)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
