package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxelforge/internal/engine"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

func TestExportRows(t *testing.T) {
	eng := cubeEngine(t, "demo", 2)
	seed := []voxel.Voxel{
		{Coord: voxel.Coord{X: 3, Y: 0, Z: 0}, Attributes: voxel.DefaultAttributes()},
		{Coord: voxel.Coord{X: 2, Y: 0, Z: 0}, Attributes: voxel.DefaultAttributes()},
	}
	require.NoError(t, eng.CreatePartition("demo", "aux", seed))

	_, err := eng.Apply("demo", "default", []voxel.Coord{{X: 0, Y: 0, Z: 0}},
		engine.ActionUpdate, engine.EditParams{Material: intp(6)})
	require.NoError(t, err)

	rows, err := eng.ExportRows("demo")
	require.NoError(t, err)
	require.Len(t, rows, 10)

	// partitions come out lexically, voxels sorted within each
	assert.Equal(t, "aux", rows[0].Partition)
	assert.Equal(t, voxel.Coord{X: 2, Y: 0, Z: 0}, rows[0].Coord)
	assert.Equal(t, voxel.Coord{X: 3, Y: 0, Z: 0}, rows[1].Coord)
	assert.Equal(t, "default", rows[2].Partition)

	// the edit is visible in the flattened table
	assert.Equal(t, voxel.Coord{}, rows[2].Coord)
	assert.Equal(t, 6, rows[2].Material)

	// centres derive from the shared grid anchoring
	assert.Equal(t, [3]float64{0.5, 0.5, 0.5}, rows[2].Center)
	assert.Equal(t, [3]float64{2.5, 0.5, 0.5}, rows[0].Center)
}

func TestExportRowsUnknownProject(t *testing.T) {
	eng := engine.New(nil)
	_, err := eng.ExportRows("missing")
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestRecordExportVolatile(t *testing.T) {
	eng := cubeEngine(t, "demo", 2)
	id, err := eng.RecordExport("demo", "run-1", 8)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
