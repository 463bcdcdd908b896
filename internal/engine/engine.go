// Package engine implements the voxel grid engine: rasterized projects,
// named partitions with their own undo/redo history, batched reversible
// edits, and the layer and query views an interactive editor reads.
//
// Locking is layered: the engine guards its project table, each project
// guards its partition table, and each partition carries one RWMutex that
// serializes mutations and gives readers snapshot-consistent views.
// Partitions never share locks, so edits on different partitions run
// concurrently.
package engine

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxelforge/internal/voxel"
)

// DefaultPartition is the partition created by voxelization.
const DefaultPartition = "default"

// Engine is the root of the voxel store. A nil Store makes it volatile,
// which the tests use.
type Engine struct {
	mu       sync.RWMutex
	projects map[string]*Project
	store    Store
}

// Project is a named set of partitions sharing one grid anchoring.
type Project struct {
	Name string
	Grid voxel.Grid

	mu         sync.RWMutex
	partitions map[string]*Partition
}

// Partition is an independently addressable, independently undo/redo-scoped
// voxel subset.
type Partition struct {
	ID   int64
	Name string

	mu      sync.RWMutex
	voxels  map[voxel.Coord]voxel.Attributes
	undo    []*ChangeSet
	redo    []*ChangeSet
	nextSeq int64
	layers  layerCache
}

// New creates an empty engine backed by store. Pass nil for a volatile
// in-memory engine.
func New(store Store) *Engine {
	return &Engine{
		projects: make(map[string]*Project),
		store:    store,
	}
}

// Restore rebuilds the in-memory state from persisted project states. It is
// meant to run once at startup, before the engine is shared.
func (e *Engine) Restore(states []ProjectState) {
	for _, ps := range states {
		proj := &Project{
			Name:       ps.Name,
			Grid:       ps.Grid,
			partitions: make(map[string]*Partition),
		}
		for _, pt := range ps.Partitions {
			part := newPartition(pt.ID, pt.Name, pt.Voxels)
			part.undo = pt.Undo
			part.redo = pt.Redo
			for _, cs := range pt.Undo {
				if cs.Seq >= part.nextSeq {
					part.nextSeq = cs.Seq + 1
				}
			}
			for _, cs := range pt.Redo {
				if cs.Seq >= part.nextSeq {
					part.nextSeq = cs.Seq + 1
				}
			}
			proj.partitions[pt.Name] = part
		}
		e.projects[ps.Name] = proj
	}
}

func newPartition(id int64, name string, voxels []voxel.Voxel) *Partition {
	p := &Partition{
		ID:     id,
		Name:   name,
		voxels: make(map[voxel.Coord]voxel.Attributes, len(voxels)),
	}
	for _, v := range voxels {
		p.voxels[v.Coord] = v.Attributes
	}
	return p
}

// VoxelizeSummary reports what a voxelize call produced.
type VoxelizeSummary struct {
	Project    string     `json:"project_name"`
	Partition  string     `json:"partition_name"`
	VoxelCount int        `json:"voxel_count"`
	Grid       voxel.Grid `json:"grid"`
}

// Voxelize rasterizes a mesh into a new project with one default partition.
// An existing project of the same name is replaced wholesale. Rasterization
// runs before any engine lock is taken, so long meshes never stall queries
// against other projects.
func (e *Engine) Voxelize(name string, tris []r3.Triangle, edge float64) (*VoxelizeSummary, error) {
	if name == "" {
		return nil, invalidInputf("project name must not be empty")
	}

	grid, coords, err := voxel.Rasterize(tris, edge)
	if err != nil {
		return nil, invalidInputf("voxelize %q: %v", name, err)
	}

	voxels := make([]voxel.Voxel, len(coords))
	for i, c := range coords {
		voxels[i] = voxel.Voxel{Coord: c, Attributes: voxel.DefaultAttributes()}
	}

	var partID int64
	if e.store != nil {
		if err := e.store.DeleteProject(name); err != nil {
			return nil, internalErr("replace project", err)
		}
		if err := e.store.CreateProject(name, grid); err != nil {
			return nil, internalErr("create project", err)
		}
		partID, err = e.store.CreatePartition(name, DefaultPartition, voxels)
		if err != nil {
			return nil, internalErr("create default partition", err)
		}
	}

	proj := &Project{
		Name:       name,
		Grid:       grid,
		partitions: map[string]*Partition{DefaultPartition: newPartition(partID, DefaultPartition, voxels)},
	}

	e.mu.Lock()
	e.projects[name] = proj
	e.mu.Unlock()

	return &VoxelizeSummary{
		Project:    name,
		Partition:  DefaultPartition,
		VoxelCount: len(voxels),
		Grid:       grid,
	}, nil
}

// CreatePartition adds a named partition to a project, optionally seeded
// with initial voxels. Partition names are unique within a project.
func (e *Engine) CreatePartition(project, name string, initial []voxel.Voxel) error {
	if name == "" {
		return invalidInputf("partition name must not be empty")
	}
	seen := make(map[voxel.Coord]bool, len(initial))
	for _, v := range initial {
		if err := v.Validate(); err != nil {
			return invalidInputf("initial voxel %v: %v", v.Coord, err)
		}
		if seen[v.Coord] {
			return invalidInputf("coordinate (%d,%d,%d) appears twice in initial voxels", v.Coord.X, v.Coord.Y, v.Coord.Z)
		}
		seen[v.Coord] = true
	}

	proj, err := e.project(project)
	if err != nil {
		return err
	}

	proj.mu.Lock()
	defer proj.mu.Unlock()
	if _, ok := proj.partitions[name]; ok {
		return conflictf("partition %q already exists in project %q", name, project)
	}

	var id int64
	if e.store != nil {
		id, err = e.store.CreatePartition(project, name, initial)
		if err != nil {
			return internalErr("create partition", err)
		}
	}
	proj.partitions[name] = newPartition(id, name, initial)
	return nil
}

// Projects lists project names in lexical order.
func (e *Engine) Projects() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.projects))
	for name := range e.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Partitions lists a project's partition names in lexical order.
func (e *Engine) Partitions(project string) ([]string, error) {
	proj, err := e.project(project)
	if err != nil {
		return nil, err
	}
	proj.mu.RLock()
	defer proj.mu.RUnlock()
	names := make([]string, 0, len(proj.partitions))
	for name := range proj.partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GridOf returns the grid anchoring of a project.
func (e *Engine) GridOf(project string) (voxel.Grid, error) {
	proj, err := e.project(project)
	if err != nil {
		return voxel.Grid{}, err
	}
	return proj.Grid, nil
}

// Get returns one voxel.
func (e *Engine) Get(project, partition string, c voxel.Coord) (voxel.Voxel, error) {
	_, part, err := e.partition(project, partition)
	if err != nil {
		return voxel.Voxel{}, err
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	attrs, ok := part.voxels[c]
	if !ok {
		return voxel.Voxel{}, notFoundf("voxel (%d,%d,%d) not found in partition %q", c.X, c.Y, c.Z, partition)
	}
	return voxel.Voxel{Coord: c, Attributes: attrs}, nil
}

// List returns all voxels of a partition ordered by (ix,iy,iz).
func (e *Engine) List(project, partition string) ([]voxel.Voxel, error) {
	_, part, err := e.partition(project, partition)
	if err != nil {
		return nil, err
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	return part.snapshot(), nil
}

// Surface returns the voxels with at least one empty 6-neighbour. Viewers
// use it to cut payload size for display.
func (e *Engine) Surface(project, partition string) ([]voxel.Voxel, error) {
	_, part, err := e.partition(project, partition)
	if err != nil {
		return nil, err
	}
	part.mu.RLock()
	defer part.mu.RUnlock()

	var out []voxel.Voxel
	for c, attrs := range part.voxels {
		if part.exposed(c) {
			out = append(out, voxel.Voxel{Coord: c, Attributes: attrs})
		}
	}
	sortVoxels(out)
	return out, nil
}

var neighbours = [6]voxel.Coord{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

func (p *Partition) exposed(c voxel.Coord) bool {
	for _, d := range neighbours {
		n := voxel.Coord{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z}
		if _, ok := p.voxels[n]; !ok {
			return true
		}
	}
	return false
}

// snapshot copies the voxel map into a sorted slice. Callers hold at least
// a read lock.
func (p *Partition) snapshot() []voxel.Voxel {
	out := make([]voxel.Voxel, 0, len(p.voxels))
	for c, attrs := range p.voxels {
		out = append(out, voxel.Voxel{Coord: c, Attributes: attrs})
	}
	sortVoxels(out)
	return out
}

func sortVoxels(vs []voxel.Voxel) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i].Coord, vs[j].Coord
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}

func (e *Engine) project(name string) (*Project, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	proj, ok := e.projects[name]
	if !ok {
		return nil, notFoundf("project %q not found", name)
	}
	return proj, nil
}

func (e *Engine) partition(project, partition string) (*Project, *Partition, error) {
	proj, err := e.project(project)
	if err != nil {
		return nil, nil, err
	}
	proj.mu.RLock()
	defer proj.mu.RUnlock()
	part, ok := proj.partitions[partition]
	if !ok {
		return nil, nil, notFoundf("partition %q not found in project %q", partition, project)
	}
	return proj, part, nil
}
