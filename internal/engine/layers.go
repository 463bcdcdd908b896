package engine

import (
	"sort"

	"github.com/banshee-data/voxelforge/internal/voxel"
)

// LayerInfo describes one occupied layer along an axis.
type LayerInfo struct {
	Index      int     `json:"index"`
	Coordinate float64 `json:"coordinate"`
	Count      int     `json:"count"`
}

// PlaneBounds is the min/max of the two in-plane components across a
// layer's voxels, so a caller can lay the layer out on a 2D grid without
// recomputing bounds.
type PlaneBounds struct {
	MinU int `json:"min_u"`
	MaxU int `json:"max_u"`
	MinV int `json:"min_v"`
	MaxV int `json:"max_v"`
}

// LayerVoxel is one voxel of a layer, annotated with its in-plane grid
// components and real-space centre.
type LayerVoxel struct {
	voxel.Voxel
	U      int        `json:"u"`
	V      int        `json:"v"`
	Center [3]float64 `json:"center"`
}

// LayerView is the read-only derived view of one layer. It is recomputed
// from the voxel store, never persisted.
type LayerView struct {
	Axis       string       `json:"axis"`
	Index      int          `json:"index"`
	Coordinate float64      `json:"coordinate"`
	Bounds     PlaneBounds  `json:"bounds"`
	Voxels     []LayerVoxel `json:"voxels"`
}

// Layers returns one entry per distinct occupied grid index along the
// axis, ascending by index.
func (e *Engine) Layers(project, partition string, axis voxel.Axis) ([]LayerInfo, error) {
	proj, part, err := e.partition(project, partition)
	if err != nil {
		return nil, err
	}

	// The cache map is live and keeps mutating under edits, so it must not
	// escape the lock; only the flattened copy does.
	part.mu.Lock()
	counts := part.layers.counts(axis, part.voxels)
	infos := make([]LayerInfo, 0, len(counts))
	for index, count := range counts {
		infos = append(infos, LayerInfo{
			Index:      index,
			Coordinate: proj.Grid.AxisCoordinate(axis, index),
			Count:      count,
		})
	}
	part.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Index < infos[j].Index })
	return infos, nil
}

// Layer returns all voxels whose coordinate along the axis equals index,
// with in-plane components and bounds. A layer with zero voxels is a
// NotFound failure.
func (e *Engine) Layer(project, partition string, axis voxel.Axis, index int) (*LayerView, error) {
	proj, part, err := e.partition(project, partition)
	if err != nil {
		return nil, err
	}

	part.mu.RLock()
	defer part.mu.RUnlock()

	view := &LayerView{
		Axis:       axis.String(),
		Index:      index,
		Coordinate: proj.Grid.AxisCoordinate(axis, index),
	}
	for c, attrs := range part.voxels {
		if axis.Component(c) != index {
			continue
		}
		u, v := axis.Planar(c)
		center := proj.Grid.Center(c)
		view.Voxels = append(view.Voxels, LayerVoxel{
			Voxel:  voxel.Voxel{Coord: c, Attributes: attrs},
			U:      u,
			V:      v,
			Center: [3]float64{center.X, center.Y, center.Z},
		})
	}
	if len(view.Voxels) == 0 {
		return nil, notFoundf("layer %s=%d has no voxels in partition %q", axis, index, partition)
	}

	sort.Slice(view.Voxels, func(i, j int) bool {
		a, b := view.Voxels[i], view.Voxels[j]
		if a.U != b.U {
			return a.U < b.U
		}
		return a.V < b.V
	})

	b := PlaneBounds{MinU: view.Voxels[0].U, MaxU: view.Voxels[0].U, MinV: view.Voxels[0].V, MaxV: view.Voxels[0].V}
	for _, lv := range view.Voxels[1:] {
		if lv.U < b.MinU {
			b.MinU = lv.U
		}
		if lv.U > b.MaxU {
			b.MaxU = lv.U
		}
		if lv.V < b.MinV {
			b.MinV = lv.V
		}
		if lv.V > b.MaxV {
			b.MaxV = lv.V
		}
	}
	view.Bounds = b
	return view, nil
}

// layerCache memoises per-axis layer occupancy counts. It is built lazily
// on the first Layers call for an axis and maintained incrementally as
// voxels are added and deleted, so structural edits invalidate exactly the
// touched indices.
type layerCache struct {
	counts3 [3]map[int]int
}

// counts returns the occupancy map for the axis, building it if needed.
// Callers hold the partition write lock.
func (lc *layerCache) counts(axis voxel.Axis, voxels map[voxel.Coord]voxel.Attributes) map[int]int {
	if lc.counts3[axis] == nil {
		m := make(map[int]int)
		for c := range voxels {
			m[axis.Component(c)]++
		}
		lc.counts3[axis] = m
	}
	return lc.counts3[axis]
}

func (lc *layerCache) add(c voxel.Coord) {
	for _, axis := range []voxel.Axis{voxel.AxisX, voxel.AxisY, voxel.AxisZ} {
		if m := lc.counts3[axis]; m != nil {
			m[axis.Component(c)]++
		}
	}
}

func (lc *layerCache) remove(c voxel.Coord) {
	for _, axis := range []voxel.Axis{voxel.AxisX, voxel.AxisY, voxel.AxisZ} {
		if m := lc.counts3[axis]; m != nil {
			i := axis.Component(c)
			if m[i]--; m[i] <= 0 {
				delete(m, i)
			}
		}
	}
}
