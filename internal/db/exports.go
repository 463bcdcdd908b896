package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export is the stored record of one table export.
type Export struct {
	ID        string    `json:"export_id"`
	Project   string    `json:"project_name"`
	Name      string    `json:"export_name"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordExport notes a completed table export and returns its ID.
func (db *DB) RecordExport(project, exportName string, rows int) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO exports (export_id, project_name, export_name, row_count)
		VALUES (?, ?, ?, ?)`,
		id, project, exportName, rows,
	)
	if err != nil {
		return "", fmt.Errorf("insert export: %w", err)
	}
	return id, nil
}

// ListExports returns a project's exports, newest first.
func (db *DB) ListExports(project string) ([]Export, error) {
	rows, err := db.Query(`
		SELECT export_id, project_name, export_name, row_count, created_at
		FROM exports WHERE project_name = ? ORDER BY created_at DESC`, project)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var (
			e  Export
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Project, &e.Name, &e.RowCount, &ts); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		// CURRENT_TIMESTAMP is stored as "2006-01-02 15:04:05"
		if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
			e.CreatedAt = t
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
