package engine

import (
	"github.com/google/uuid"

	"github.com/banshee-data/voxelforge/internal/voxel"
)

// ExportRow is one line of the flattened fabrication table: one voxel with
// its partition, grid and real-space coordinates, material and
// magnetization.
type ExportRow struct {
	Partition string
	Coord     voxel.Coord
	Center    [3]float64
	Material  int
	Magnet    voxel.Magnetization
}

// ExportRows flattens every partition of a project into row-per-voxel
// order: partitions lexically, voxels by (ix,iy,iz) within each.
func (e *Engine) ExportRows(project string) ([]ExportRow, error) {
	proj, err := e.project(project)
	if err != nil {
		return nil, err
	}

	names, err := e.Partitions(project)
	if err != nil {
		return nil, err
	}

	var rows []ExportRow
	for _, name := range names {
		_, part, err := e.partition(project, name)
		if err != nil {
			return nil, err
		}
		part.mu.RLock()
		voxels := part.snapshot()
		part.mu.RUnlock()

		for _, v := range voxels {
			center := proj.Grid.Center(v.Coord)
			rows = append(rows, ExportRow{
				Partition: name,
				Coord:     v.Coord,
				Center:    [3]float64{center.X, center.Y, center.Z},
				Material:  v.Material,
				Magnet:    v.Magnet,
			})
		}
	}
	return rows, nil
}

// RecordExport notes a completed export through the store and returns the
// export ID.
func (e *Engine) RecordExport(project, exportName string, rows int) (string, error) {
	if e.store == nil {
		return uuid.New().String(), nil
	}
	id, err := e.store.RecordExport(project, exportName, rows)
	if err != nil {
		return "", internalErr("record export", err)
	}
	return id, nil
}
