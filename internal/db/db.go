// Package db persists the voxel engine's state in SQLite. The engine is
// authoritative in memory; this package records every mutation write-through
// and rebuilds the engine state at startup.
package db

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/voxelforge/internal/engine"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

// schema.sql bootstraps a fresh database. The same statements form the
// initial migration; later schema changes go through migrations/ only.
//
//go:embed schema.sql
var schemaSQL string

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the database at path and applies the
// bootstrap schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// OpenDB opens the database without touching the schema. The migrate CLI
// uses it so migrations fully own schema changes.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return &DB{db}, nil
}

// CreateProject records a new project and its grid anchoring.
func (db *DB) CreateProject(name string, grid voxel.Grid) error {
	_, err := db.Exec(`
		INSERT INTO projects (name, origin_x, origin_y, origin_z, voxel_size)
		VALUES (?, ?, ?, ?, ?)`,
		name, grid.Origin.X, grid.Origin.Y, grid.Origin.Z, grid.Size,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// DeleteProject removes a project; partitions, voxels and history cascade.
func (db *DB) DeleteProject(name string) error {
	if _, err := db.Exec(`DELETE FROM projects WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// CreatePartition records a partition and its initial voxels in one
// transaction.
func (db *DB) CreatePartition(project, name string, voxels []voxel.Voxel) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO partitions (project_name, name) VALUES (?, ?)`, project, name)
	if err != nil {
		return 0, fmt.Errorf("insert partition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("partition id: %w", err)
	}

	if err := upsertVoxels(tx, id, voxels); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecordEdit applies one batch edit in one transaction: voxel rows, the new
// undo entry, a cleared redo stack, and any entries dropped by the history
// cap.
func (db *DB) RecordEdit(partitionID int64, entry *engine.ChangeSet, upserts []voxel.Voxel, deletes []voxel.Coord, dropped []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertVoxels(tx, partitionID, upserts); err != nil {
		return err
	}
	if err := deleteVoxels(tx, partitionID, deletes); err != nil {
		return err
	}

	deltas, err := json.Marshal(entry.Deltas)
	if err != nil {
		return fmt.Errorf("marshal deltas: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO history_entries (entry_id, partition_id, stack, seq, action, deltas_json, applied_at)
		VALUES (?, ?, 'undo', ?, ?, ?, ?)`,
		entry.ID, partitionID, entry.Seq, string(entry.Action), string(deltas), entry.AppliedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM history_entries WHERE partition_id = ? AND stack = 'redo'`, partitionID); err != nil {
		return fmt.Errorf("clear redo stack: %w", err)
	}
	for _, id := range dropped {
		if _, err := tx.Exec(`DELETE FROM history_entries WHERE entry_id = ?`, id); err != nil {
			return fmt.Errorf("drop capped history entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecordHistoryMove replays a diff (forward or inverse) and moves its entry
// between the undo and redo stacks.
func (db *DB) RecordHistoryMove(partitionID int64, entryID string, toRedo bool, upserts []voxel.Voxel, deletes []voxel.Coord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertVoxels(tx, partitionID, upserts); err != nil {
		return err
	}
	if err := deleteVoxels(tx, partitionID, deletes); err != nil {
		return err
	}

	stack := "undo"
	if toRedo {
		stack = "redo"
	}
	res, err := tx.Exec(`UPDATE history_entries SET stack = ? WHERE entry_id = ?`, stack, entryID)
	if err != nil {
		return fmt.Errorf("move history entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("history entry %s not found", entryID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsertVoxels(tx *sql.Tx, partitionID int64, voxels []voxel.Voxel) error {
	if len(voxels) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO voxels (partition_id, ix, iy, iz, material, mag_magnitude, mag_polar, mag_azimuth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (partition_id, ix, iy, iz) DO UPDATE SET
			material = excluded.material,
			mag_magnitude = excluded.mag_magnitude,
			mag_polar = excluded.mag_polar,
			mag_azimuth = excluded.mag_azimuth`)
	if err != nil {
		return fmt.Errorf("prepare voxel upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range voxels {
		if _, err := stmt.Exec(partitionID, v.X, v.Y, v.Z,
			v.Material, v.Magnet.Magnitude, v.Magnet.Polar, v.Magnet.Azimuth); err != nil {
			return fmt.Errorf("upsert voxel (%d,%d,%d): %w", v.X, v.Y, v.Z, err)
		}
	}
	return nil
}

func deleteVoxels(tx *sql.Tx, partitionID int64, coords []voxel.Coord) error {
	if len(coords) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`DELETE FROM voxels WHERE partition_id = ? AND ix = ? AND iy = ? AND iz = ?`)
	if err != nil {
		return fmt.Errorf("prepare voxel delete: %w", err)
	}
	defer stmt.Close()

	for _, c := range coords {
		if _, err := stmt.Exec(partitionID, c.X, c.Y, c.Z); err != nil {
			return fmt.Errorf("delete voxel (%d,%d,%d): %w", c.X, c.Y, c.Z, err)
		}
	}
	return nil
}

// LoadState reads every project, partition, voxel and history entry back
// into the shape the engine restores from at startup.
func (db *DB) LoadState() ([]engine.ProjectState, error) {
	rows, err := db.Query(`SELECT name, origin_x, origin_y, origin_z, voxel_size FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var states []engine.ProjectState
	for rows.Next() {
		var ps engine.ProjectState
		if err := rows.Scan(&ps.Name, &ps.Grid.Origin.X, &ps.Grid.Origin.Y, &ps.Grid.Origin.Z, &ps.Grid.Size); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		states = append(states, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	for i := range states {
		parts, err := db.loadPartitions(states[i].Name)
		if err != nil {
			return nil, err
		}
		states[i].Partitions = parts
	}
	return states, nil
}

func (db *DB) loadPartitions(project string) ([]engine.PartitionState, error) {
	rows, err := db.Query(`SELECT partition_id, name FROM partitions WHERE project_name = ? ORDER BY name`, project)
	if err != nil {
		return nil, fmt.Errorf("query partitions: %w", err)
	}
	defer rows.Close()

	var parts []engine.PartitionState
	for rows.Next() {
		var ps engine.PartitionState
		if err := rows.Scan(&ps.ID, &ps.Name); err != nil {
			return nil, fmt.Errorf("scan partition: %w", err)
		}
		parts = append(parts, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partitions: %w", err)
	}

	for i := range parts {
		if parts[i].Voxels, err = db.loadVoxels(parts[i].ID); err != nil {
			return nil, err
		}
		if parts[i].Undo, err = db.loadStack(parts[i].ID, "undo"); err != nil {
			return nil, err
		}
		if parts[i].Redo, err = db.loadStack(parts[i].ID, "redo"); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

func (db *DB) loadVoxels(partitionID int64) ([]voxel.Voxel, error) {
	rows, err := db.Query(`
		SELECT ix, iy, iz, material, mag_magnitude, mag_polar, mag_azimuth
		FROM voxels WHERE partition_id = ? ORDER BY ix, iy, iz`, partitionID)
	if err != nil {
		return nil, fmt.Errorf("query voxels: %w", err)
	}
	defer rows.Close()

	var voxels []voxel.Voxel
	for rows.Next() {
		var v voxel.Voxel
		if err := rows.Scan(&v.X, &v.Y, &v.Z,
			&v.Material, &v.Magnet.Magnitude, &v.Magnet.Polar, &v.Magnet.Azimuth); err != nil {
			return nil, fmt.Errorf("scan voxel: %w", err)
		}
		voxels = append(voxels, v)
	}
	return voxels, rows.Err()
}

// loadStack reads one history stack. Undo entries come back oldest first;
// redo entries newest first, so in both cases the last element is the next
// one to pop.
func (db *DB) loadStack(partitionID int64, stack string) ([]*engine.ChangeSet, error) {
	order := `ASC`
	if stack == "redo" {
		order = `DESC`
	}
	rows, err := db.Query(`
		SELECT entry_id, seq, action, deltas_json, applied_at
		FROM history_entries WHERE partition_id = ? AND stack = ?
		ORDER BY seq `+order, partitionID, stack)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*engine.ChangeSet
	for rows.Next() {
		var (
			cs        engine.ChangeSet
			action    string
			deltas    string
			appliedAt string
		)
		if err := rows.Scan(&cs.ID, &cs.Seq, &action, &deltas, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		cs.Action = engine.Action(action)
		if t, err := time.Parse(time.RFC3339Nano, appliedAt); err == nil {
			cs.AppliedAt = t
		}
		if err := json.Unmarshal([]byte(deltas), &cs.Deltas); err != nil {
			return nil, fmt.Errorf("unmarshal deltas for %s: %w", cs.ID, err)
		}
		entries = append(entries, &cs)
	}
	return entries, rows.Err()
}
