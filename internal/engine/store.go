package engine

import (
	"github.com/banshee-data/voxelforge/internal/voxel"
)

// Store is the write-through persistence boundary. The engine is
// authoritative in memory; each successful mutation is recorded through the
// store before the in-memory state changes, so a store failure leaves the
// engine untouched.
//
// Implementations must make each call atomic (one transaction).
type Store interface {
	// CreateProject records a new project and its grid anchoring.
	CreateProject(name string, grid voxel.Grid) error

	// DeleteProject removes a project and everything under it. Used when a
	// re-voxelization replaces a project wholesale.
	DeleteProject(name string) error

	// CreatePartition records a partition and its initial voxels, returning
	// the partition's storage ID.
	CreatePartition(project, name string, voxels []voxel.Voxel) (int64, error)

	// RecordEdit applies one batch edit: upserts and deletes the given voxel
	// rows, pushes entry onto the undo stack, clears the redo stack, and
	// removes entries dropped by the history cap.
	RecordEdit(partitionID int64, entry *ChangeSet, upserts []voxel.Voxel, deletes []voxel.Coord, dropped []string) error

	// RecordHistoryMove moves one history entry between stacks (toRedo for
	// undo, the reverse for redo) and applies the voxel row changes of the
	// replayed diff.
	RecordHistoryMove(partitionID int64, entryID string, toRedo bool, upserts []voxel.Voxel, deletes []voxel.Coord) error

	// RecordExport notes a completed table export and returns its ID.
	RecordExport(project, exportName string, rows int) (string, error)
}

// PartitionState is one partition's persisted state, used to rebuild the
// in-memory engine at startup.
type PartitionState struct {
	ID     int64
	Name   string
	Voxels []voxel.Voxel
	// Undo is ordered oldest first (top of stack last); Redo is ordered so
	// that the next entry to redo is last.
	Undo []*ChangeSet
	Redo []*ChangeSet
}

// ProjectState is one project's persisted state.
type ProjectState struct {
	Name       string
	Grid       voxel.Grid
	Partitions []PartitionState
}
