package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxelforge/internal/engine"
	"github.com/banshee-data/voxelforge/internal/testutil"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

// cubeEngine voxelizes an axis-aligned cube of the given side at edge
// length 1 into a fresh volatile engine.
func cubeEngine(t *testing.T, project string, side float64) *engine.Engine {
	t.Helper()
	eng := engine.New(nil)
	sum, err := eng.Voxelize(project, testutil.CubeTriangles(side), 1)
	require.NoError(t, err)
	require.Equal(t, engine.DefaultPartition, sum.Partition)
	return eng
}

func TestVoxelizeCreatesDefaultPartition(t *testing.T) {
	eng := cubeEngine(t, "demo", 4)

	assert.Equal(t, []string{"demo"}, eng.Projects())

	parts, err := eng.Partitions("demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, parts)

	voxels, err := eng.List("demo", "default")
	require.NoError(t, err)
	assert.Len(t, voxels, 64)
	for _, v := range voxels {
		assert.Equal(t, voxel.DefaultAttributes(), v.Attributes)
	}
}

func TestVoxelizeReplacesProject(t *testing.T) {
	eng := cubeEngine(t, "demo", 4)
	require.NoError(t, eng.CreatePartition("demo", "supports", nil))

	sum, err := eng.Voxelize("demo", testutil.CubeTriangles(2), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, sum.VoxelCount)

	// the replacement is wholesale: extra partitions do not survive
	parts, err := eng.Partitions("demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, parts)
}

func TestVoxelizeRejectsBadInput(t *testing.T) {
	eng := engine.New(nil)

	_, err := eng.Voxelize("", testutil.CubeTriangles(1), 1)
	assert.Equal(t, engine.KindInvalidInput, engine.KindOf(err))

	_, err = eng.Voxelize("demo", nil, 1)
	assert.Equal(t, engine.KindInvalidInput, engine.KindOf(err))

	_, err = eng.Voxelize("demo", testutil.CubeTriangles(1), -1)
	assert.Equal(t, engine.KindInvalidInput, engine.KindOf(err))

	// a failed voxelize must not leave a half-made project behind
	assert.Empty(t, eng.Projects())
}

func TestCreatePartition(t *testing.T) {
	eng := cubeEngine(t, "demo", 2)

	seed := []voxel.Voxel{
		{Coord: voxel.Coord{X: 9, Y: 9, Z: 9}, Attributes: voxel.DefaultAttributes()},
	}
	require.NoError(t, eng.CreatePartition("demo", "magnets", seed))

	got, err := eng.Get("demo", "magnets", voxel.Coord{X: 9, Y: 9, Z: 9})
	require.NoError(t, err)
	assert.Equal(t, voxel.DefaultAttributes(), got.Attributes)

	err = eng.CreatePartition("demo", "magnets", nil)
	assert.Equal(t, engine.KindConflict, engine.KindOf(err))

	err = eng.CreatePartition("demo", "", nil)
	assert.Equal(t, engine.KindInvalidInput, engine.KindOf(err))

	bad := []voxel.Voxel{{Coord: voxel.Coord{}, Attributes: voxel.Attributes{Material: 0}}}
	err = eng.CreatePartition("demo", "bad", bad)
	assert.Equal(t, engine.KindInvalidInput, engine.KindOf(err))

	dup := []voxel.Voxel{
		{Coord: voxel.Coord{X: 1}, Attributes: voxel.DefaultAttributes()},
		{Coord: voxel.Coord{X: 1}, Attributes: voxel.Attributes{Material: 2, Magnet: voxel.DefaultMagnetization()}},
	}
	err = eng.CreatePartition("demo", "dup", dup)
	assert.Equal(t, engine.KindInvalidInput, engine.KindOf(err))
	parts, err := eng.Partitions("demo")
	require.NoError(t, err)
	assert.NotContains(t, parts, "dup")

	err = eng.CreatePartition("nope", "x", nil)
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestGetNotFound(t *testing.T) {
	eng := cubeEngine(t, "demo", 2)

	_, err := eng.Get("demo", "default", voxel.Coord{X: 99})
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))

	_, err = eng.Get("demo", "missing", voxel.Coord{})
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))

	_, err = eng.Get("missing", "default", voxel.Coord{})
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestListIsSorted(t *testing.T) {
	eng := cubeEngine(t, "demo", 3)
	voxels, err := eng.List("demo", "default")
	require.NoError(t, err)
	require.Len(t, voxels, 27)
	for i := 1; i < len(voxels); i++ {
		a, b := voxels[i-1].Coord, voxels[i].Coord
		less := a.X < b.X || (a.X == b.X && (a.Y < b.Y || (a.Y == b.Y && a.Z < b.Z)))
		assert.True(t, less, "voxels[%d]=%v not before voxels[%d]=%v", i-1, a, i, b)
	}
}

func TestSurface(t *testing.T) {
	eng := cubeEngine(t, "demo", 4)

	surf, err := eng.Surface("demo", "default")
	require.NoError(t, err)
	// a 4^3 cube has a 2^3 fully-enclosed interior
	assert.Len(t, surf, 64-8)
	for _, v := range surf {
		interior := v.X >= 1 && v.X <= 2 && v.Y >= 1 && v.Y <= 2 && v.Z >= 1 && v.Z <= 2
		assert.False(t, interior, "interior voxel %v reported as surface", v.Coord)
	}
}

func TestGridOf(t *testing.T) {
	eng := cubeEngine(t, "demo", 2)
	grid, err := eng.GridOf("demo")
	require.NoError(t, err)
	assert.Equal(t, 1.0, grid.Size)

	_, err = eng.GridOf("missing")
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}
