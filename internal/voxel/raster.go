package voxel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidMesh is returned when a mesh cannot be rasterized at all: no
// triangles, or a bounding box with zero volume.
var ErrInvalidMesh = errors.New("invalid mesh")

// rasterEpsilon is the tolerance used for the in-triangle test and for
// merging coincident ray crossings (shared edges of coplanar triangles
// report the same crossing twice).
const rasterEpsilon = 1e-9

// Rasterize converts a closed triangulated surface into the set of grid
// cells occupied by the solid it bounds, at the given voxel edge length.
//
// For every cell column along Z it casts a ray through the column centre,
// accumulates triangle-crossing parity, and fills the cells whose centres
// fall inside an interior span. This is a best-effort fill: parity counting
// assumes a watertight surface, and results for open or self-intersecting
// meshes are not guaranteed. Degenerate (zero-area) triangles are skipped.
//
// All produced voxels carry default attributes.
func Rasterize(tris []r3.Triangle, edge float64) (Grid, []Coord, error) {
	if edge <= 0 {
		return Grid{}, nil, fmt.Errorf("voxel edge length must be positive, got %g", edge)
	}
	if len(tris) == 0 {
		return Grid{}, nil, fmt.Errorf("%w: no triangles", ErrInvalidMesh)
	}

	min, max := bounds(tris)
	if max.X <= min.X || max.Y <= min.Y || max.Z <= min.Z {
		return Grid{}, nil, fmt.Errorf("%w: degenerate bounding box", ErrInvalidMesh)
	}

	grid := Grid{Origin: min, Size: edge}
	nx := cellCount(max.X-min.X, edge)
	ny := cellCount(max.Y-min.Y, edge)
	nz := cellCount(max.Z-min.Z, edge)

	// Crossing merge tolerance scales with the mesh so that meshes far from
	// the origin behave the same as meshes at the origin.
	span := math.Max(max.Z-min.Z, math.Max(max.X-min.X, max.Y-min.Y))
	mergeEps := rasterEpsilon * span

	var coords []Coord
	hits := make([]float64, 0, 8)
	for ix := 0; ix < nx; ix++ {
		px := min.X + (float64(ix)+0.5)*edge
		for iy := 0; iy < ny; iy++ {
			py := min.Y + (float64(iy)+0.5)*edge

			hits = hits[:0]
			for i := range tris {
				if z, ok := columnCrossing(&tris[i], px, py); ok {
					hits = append(hits, z)
				}
			}
			if len(hits) < 2 {
				continue
			}
			sort.Float64s(hits)
			hits = mergeCoincident(hits, mergeEps)

			// An odd crossing count means the surface is not watertight at
			// this column; the trailing unpaired crossing is dropped.
			for i := 0; i+1 < len(hits); i += 2 {
				lo, hi := hits[i], hits[i+1]
				izLo := int(math.Ceil((lo-min.Z)/edge - 0.5))
				izHi := int(math.Floor((hi-min.Z)/edge - 0.5))
				if izLo < 0 {
					izLo = 0
				}
				if izHi > nz-1 {
					izHi = nz - 1
				}
				for iz := izLo; iz <= izHi; iz++ {
					coords = append(coords, Coord{X: ix, Y: iy, Z: iz})
				}
			}
		}
	}

	return grid, coords, nil
}

// bounds returns the axis-aligned bounding box of the triangle set.
func bounds(tris []r3.Triangle) (min, max r3.Vec) {
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, t := range tris {
		for _, v := range t {
			min.X = math.Min(min.X, v.X)
			min.Y = math.Min(min.Y, v.Y)
			min.Z = math.Min(min.Z, v.Z)
			max.X = math.Max(max.X, v.X)
			max.Y = math.Max(max.Y, v.Y)
			max.Z = math.Max(max.Z, v.Z)
		}
	}
	return min, max
}

func cellCount(span, edge float64) int {
	n := int(math.Ceil(span/edge - rasterEpsilon))
	if n < 1 {
		n = 1
	}
	return n
}

// columnCrossing intersects the upward ray through (px,py) with the
// triangle. It returns the crossing height and true when the ray pierces
// the triangle's XY projection. Triangles whose projection is degenerate
// (zero area, which includes faces parallel to the ray) produce no
// crossing.
func columnCrossing(t *r3.Triangle, px, py float64) (float64, bool) {
	ax, ay := t[0].X, t[0].Y
	bx, by := t[1].X, t[1].Y
	cx, cy := t[2].X, t[2].Y

	area := (bx-ax)*(cy-ay) - (cx-ax)*(by-ay)
	if math.Abs(area) < rasterEpsilon {
		return 0, false
	}

	// Barycentric weights of (px,py) via sub-triangle areas. Points on
	// shared edges test inside both neighbouring triangles; the duplicate
	// crossing is merged later.
	wa := ((bx-px)*(cy-py) - (cx-px)*(by-py)) / area
	wb := ((cx-px)*(ay-py) - (ax-px)*(cy-py)) / area
	wc := 1 - wa - wb
	if wa < -rasterEpsilon || wb < -rasterEpsilon || wc < -rasterEpsilon {
		return 0, false
	}

	return wa*t[0].Z + wb*t[1].Z + wc*t[2].Z, true
}

// mergeCoincident collapses crossings closer than eps into one. hits must
// be sorted.
func mergeCoincident(hits []float64, eps float64) []float64 {
	out := hits[:1]
	for _, h := range hits[1:] {
		if h-out[len(out)-1] > eps {
			out = append(out, h)
		}
	}
	return out
}
