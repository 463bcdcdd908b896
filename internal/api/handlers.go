package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/voxelforge/internal/engine"
	"github.com/banshee-data/voxelforge/internal/httputil"
	"github.com/banshee-data/voxelforge/internal/mesh"
	"github.com/banshee-data/voxelforge/internal/version"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

// maxMeshUploadBytes caps STL uploads at 256 MiB.
const maxMeshUploadBytes = 256 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// uploadMesh stores an uploaded STL file in the data directory for a later
// voxelize call.
func (s *Server) uploadMesh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(maxMeshUploadBytes); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing \"file\" form field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".stl") {
		httputil.BadRequest(w, fmt.Sprintf("unsupported mesh file %q, want .stl", name))
		return
	}

	dst, err := os.Create(filepath.Join(s.dataDir, name))
	if err != nil {
		httputil.InternalServerError(w, "failed to store mesh file")
		return
	}
	defer dst.Close()

	n, err := io.Copy(dst, file)
	if err != nil {
		httputil.InternalServerError(w, "failed to store mesh file")
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"stl_filename": name,
		"size_bytes":   n,
	})
}

// VoxelizeRequest asks for a mesh to be rasterized into a new project.
type VoxelizeRequest struct {
	STLFilename string  `json:"stl_filename"`
	VoxelSize   float64 `json:"voxel_size"`
	ProjectName string  `json:"project_name"`
}

func (s *Server) voxelize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req VoxelizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.STLFilename == "" || req.ProjectName == "" {
		httputil.BadRequest(w, "stl_filename and project_name are required")
		return
	}
	if req.VoxelSize <= 0 {
		httputil.BadRequest(w, fmt.Sprintf("voxel_size must be positive, got %g", req.VoxelSize))
		return
	}

	path := filepath.Join(s.dataDir, filepath.Base(req.STLFilename))
	tris, err := mesh.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			httputil.NotFound(w, fmt.Sprintf("mesh file %q not found", req.STLFilename))
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("failed to read mesh: %v", err))
		return
	}

	summary, err := s.eng.Voxelize(req.ProjectName, tris, req.VoxelSize)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteJSONOK(w, summary)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"projects": s.eng.Projects(),
	})
}

// CreatePartitionRequest adds a named partition to a project.
type CreatePartitionRequest struct {
	ProjectName   string        `json:"project_name"`
	PartitionName string        `json:"partition_name"`
	Voxels        []voxel.Voxel `json:"voxels,omitempty"`
}

func (s *Server) partitions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		names, err := s.eng.Partitions(r.URL.Query().Get("project"))
		if err != nil {
			httputil.WriteEngineError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"project_name": r.URL.Query().Get("project"),
			"partitions":   names,
		})

	case http.MethodPost:
		var req CreatePartitionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := s.eng.CreatePartition(req.ProjectName, req.PartitionName, req.Voxels); err != nil {
			httputil.WriteEngineError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"project_name":   req.ProjectName,
			"partition_name": req.PartitionName,
			"voxel_count":    len(req.Voxels),
		})

	default:
		httputil.MethodNotAllowed(w)
	}
}

// voxelPoint is one voxel with its real-space centre, for display.
type voxelPoint struct {
	voxel.Voxel
	Center [3]float64 `json:"center"`
}

func (s *Server) listVoxels(w http.ResponseWriter, r *http.Request) {
	s.writeVoxelList(w, r, s.eng.List)
}

func (s *Server) surface(w http.ResponseWriter, r *http.Request) {
	s.writeVoxelList(w, r, s.eng.Surface)
}

func (s *Server) writeVoxelList(w http.ResponseWriter, r *http.Request, list func(project, partition string) ([]voxel.Voxel, error)) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	project := r.URL.Query().Get("project")
	partition := r.URL.Query().Get("partition")

	voxels, err := list(project, partition)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	grid, err := s.eng.GridOf(project)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}

	points := make([]voxelPoint, len(voxels))
	for i, v := range voxels {
		c := grid.Center(v.Coord)
		points[i] = voxelPoint{Voxel: v, Center: [3]float64{c.X, c.Y, c.Z}}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"project_name":   project,
		"partition_name": partition,
		"voxel_count":    len(points),
		"voxels":         points,
	})
}

func (s *Server) listLayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	axis, err := voxel.ParseAxis(r.URL.Query().Get("axis"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	project := r.URL.Query().Get("project")
	partition := r.URL.Query().Get("partition")

	layers, err := s.eng.Layers(project, partition, axis)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"project_name":   project,
		"partition_name": partition,
		"axis":           axis.String(),
		"layer_count":    len(layers),
		"layers":         layers,
	})
}

func (s *Server) getLayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
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

	view, err := s.eng.Layer(r.URL.Query().Get("project"), r.URL.Query().Get("partition"), axis, index)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteJSONOK(w, view)
}

// UpdateVoxelsRequest applies one batch edit to a partition.
type UpdateVoxelsRequest struct {
	ProjectName   string               `json:"project_name"`
	PartitionName string               `json:"partition_name"`
	Voxels        []voxel.Coord        `json:"voxels"`
	Action        string               `json:"action"`
	Material      *int                 `json:"material,omitempty"`
	Magnetization *voxel.Magnetization `json:"magnetization,omitempty"`
}

func (s *Server) updateVoxels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req UpdateVoxelsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action, err := engine.ParseAction(req.Action)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	result, err := s.eng.Apply(req.ProjectName, req.PartitionName, req.Voxels, action, engine.EditParams{
		Material: req.Material,
		Magnet:   req.Magnetization,
	})
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"project_name":   req.ProjectName,
		"partition_name": req.PartitionName,
		"action":         req.Action,
		"result":         result,
	})
}

// HistoryRequest asks for an undo or redo on a partition.
type HistoryRequest struct {
	ProjectName   string `json:"project_name"`
	PartitionName string `json:"partition_name"`
	Action        string `json:"action"`
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req HistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		status *engine.HistoryStatus
		err    error
	)
	switch req.Action {
	case "undo":
		status, err = s.eng.Undo(req.ProjectName, req.PartitionName)
	case "redo":
		status, err = s.eng.Redo(req.ProjectName, req.PartitionName)
	default:
		httputil.BadRequest(w, fmt.Sprintf("history action must be \"undo\" or \"redo\", got %q", req.Action))
		return
	}
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteJSONOK(w, status)
}

// ExportRequest flattens a project into a fabrication table.
type ExportRequest struct {
	ProjectName string `json:"project_name"`
	ExportName  string `json:"export_name"`
}

var exportHeader = []string{
	"partition", "ix", "iy", "iz", "x", "y", "z",
	"material", "mag_magnitude", "mag_polar", "mag_azimuth",
}

func (s *Server) exportTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ExportName == "" {
		httputil.BadRequest(w, "export_name is required")
		return
	}

	rows, err := s.eng.ExportRows(req.ProjectName)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	if _, err := s.eng.RecordExport(req.ProjectName, req.ExportName, len(rows)); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(req.ExportName)+".csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return
	}
	for _, row := range rows {
		record := []string{
			row.Partition,
			strconv.Itoa(row.Coord.X), strconv.Itoa(row.Coord.Y), strconv.Itoa(row.Coord.Z),
			formatFloat(row.Center[0]), formatFloat(row.Center[1]), formatFloat(row.Center[2]),
			strconv.Itoa(row.Material),
			formatFloat(row.Magnet.Magnitude), formatFloat(row.Magnet.Polar), formatFloat(row.Magnet.Azimuth),
		}
		if err := cw.Write(record); err != nil {
			return
		}
	}
	cw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}
