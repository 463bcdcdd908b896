package voxel_test

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxelforge/internal/testutil"
	"github.com/banshee-data/voxelforge/internal/voxel"
)

func TestRasterizeCubeUnitEdge(t *testing.T) {
	grid, coords, err := voxel.Rasterize(testutil.CubeTriangles(8), 1)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(coords) != 512 {
		t.Errorf("got %d voxels, want 512 (8x8x8)", len(coords))
	}
	if grid.Origin != (r3.Vec{}) {
		t.Errorf("grid origin = %v, want the cube's minimum corner (0,0,0)", grid.Origin)
	}
	if grid.Size != 1 {
		t.Errorf("grid size = %g, want 1", grid.Size)
	}
	seen := make(map[voxel.Coord]bool, len(coords))
	for _, c := range coords {
		if c.X < 0 || c.X > 7 || c.Y < 0 || c.Y > 7 || c.Z < 0 || c.Z > 7 {
			t.Fatalf("voxel %v outside the cube's index range [0,7]^3", c)
		}
		if seen[c] {
			t.Fatalf("voxel %v produced twice", c)
		}
		seen[c] = true
	}
}

func TestRasterizeCubeQuarterEdge(t *testing.T) {
	// side L with edge L/4 must fill exactly 4x4x4 cells
	_, coords, err := voxel.Rasterize(testutil.CubeTriangles(2), 0.5)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(coords) != 64 {
		t.Errorf("got %d voxels, want 64 (4x4x4)", len(coords))
	}
}

func TestRasterizeOffsetCube(t *testing.T) {
	// anchoring must follow the mesh: shift every vertex and the origin
	// shifts with it while the fill stays identical
	offset := r3.Vec{X: 10, Y: -3, Z: 2.5}
	tris := testutil.CubeTriangles(4)
	for i := range tris {
		for v := range tris[i] {
			tris[i][v] = r3.Add(tris[i][v], offset)
		}
	}

	grid, coords, err := voxel.Rasterize(tris, 1)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if grid.Origin != offset {
		t.Errorf("grid origin = %v, want %v", grid.Origin, offset)
	}
	if len(coords) != 64 {
		t.Errorf("got %d voxels, want 64", len(coords))
	}
}

func TestRasterizeRejectsBadInput(t *testing.T) {
	cube := testutil.CubeTriangles(1)

	if _, _, err := voxel.Rasterize(cube, 0); err == nil {
		t.Error("zero edge length accepted")
	}
	if _, _, err := voxel.Rasterize(cube, -0.5); err == nil {
		t.Error("negative edge length accepted")
	}

	if _, _, err := voxel.Rasterize(nil, 1); !errors.Is(err, voxel.ErrInvalidMesh) {
		t.Errorf("empty mesh: got %v, want ErrInvalidMesh", err)
	}

	flat := []r3.Triangle{{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
	}}
	if _, _, err := voxel.Rasterize(flat, 1); !errors.Is(err, voxel.ErrInvalidMesh) {
		t.Errorf("flat mesh: got %v, want ErrInvalidMesh", err)
	}
}

func TestRasterizeSkipsDegenerateTriangles(t *testing.T) {
	tris := testutil.CubeTriangles(2)
	// a zero-area sliver must not perturb the parity fill
	tris = append(tris, r3.Triangle{
		{X: 0.5, Y: 0.5, Z: 1}, {X: 1.5, Y: 1.5, Z: 1}, {X: 1, Y: 1, Z: 1},
	})

	_, coords, err := voxel.Rasterize(tris, 1)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(coords) != 8 {
		t.Errorf("got %d voxels, want 8", len(coords))
	}
}
