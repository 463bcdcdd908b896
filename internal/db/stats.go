package db

import (
	"fmt"
	"net/http"
	"os"

	"github.com/banshee-data/voxelforge/internal/httputil"
)

// TableStats holds per-table row counts for the stats endpoint.
type TableStats struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

// DatabaseStats summarises the database for the debug surface.
type DatabaseStats struct {
	Path        string       `json:"path"`
	TotalSizeMB float64      `json:"total_size_mb"`
	Tables      []TableStats `json:"tables"`
}

// statsTables is the fixed set reported by GetDatabaseStats. Table names
// are never interpolated from user input.
var statsTables = []string{"projects", "partitions", "voxels", "history_entries", "exports"}

// GetDatabaseStats reports row counts per table and the file size.
func (db *DB) GetDatabaseStats(path string) (*DatabaseStats, error) {
	stats := &DatabaseStats{Path: path}

	if fi, err := os.Stat(path); err == nil {
		stats.TotalSizeMB = float64(fi.Size()) / (1024 * 1024)
	}

	for _, table := range statsTables {
		var count int64
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats.Tables = append(stats.Tables, TableStats{Name: table, RowCount: count})
	}
	return stats, nil
}

// AttachAdminRoutes mounts the database debug endpoints on mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux, path string) {
	mux.HandleFunc("/debug/db-stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		stats, err := db.GetDatabaseStats(path)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to read database stats: %v", err))
			return
		}
		httputil.WriteJSONOK(w, stats)
	})
}
