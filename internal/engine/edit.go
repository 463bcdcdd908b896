package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/voxelforge/internal/voxel"
)

// Action is one of the batch edit kinds.
type Action string

const (
	ActionUpdate             Action = "update"
	ActionAdd                Action = "add"
	ActionDelete             Action = "delete"
	ActionResetMaterial      Action = "reset_material"
	ActionResetMagnetization Action = "reset_magnetization"
)

// ParseAction validates the wire representation of an action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionUpdate, ActionAdd, ActionDelete, ActionResetMaterial, ActionResetMagnetization:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown edit action %q", s)
}

// EditParams carries the optional attribute values of an edit. For update,
// at least one field must be set and only the set fields change. For add,
// unset fields fall back to defaults.
type EditParams struct {
	Material *int                 `json:"material,omitempty"`
	Magnet   *voxel.Magnetization `json:"magnetization,omitempty"`
}

func (p EditParams) validate() error {
	if p.Material != nil && *p.Material <= 0 {
		return invalidInputf("material id must be positive, got %d", *p.Material)
	}
	if p.Magnet != nil {
		if err := p.Magnet.Validate(); err != nil {
			return invalidInputf("%v", err)
		}
	}
	return nil
}

// Delta records one coordinate's transition inside a batch edit. A nil
// Before means the voxel was created; a nil After means it was deleted.
type Delta struct {
	Coord  voxel.Coord       `json:"coord"`
	Before *voxel.Attributes `json:"before,omitempty"`
	After  *voxel.Attributes `json:"after,omitempty"`
}

// ChangeSet is one immutable, invertible history entry: the complete diff
// of one batch edit.
type ChangeSet struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Action    Action    `json:"action"`
	Deltas    []Delta   `json:"deltas"`
	AppliedAt time.Time `json:"applied_at"`
}

// EditResult summarises a successful Apply.
type EditResult struct {
	EntryID string `json:"entry_id,omitempty"`
	Changed int    `json:"changed"`
	Skipped int    `json:"skipped"`
}

// maxUndoDepth caps the per-partition undo stack; the oldest entries are
// discarded once the cap is reached.
const maxUndoDepth = 100

// Apply validates and atomically applies one batch edit. Either the whole
// batch commits, producing one history entry and clearing the redo stack,
// or the partition is left unchanged. The documented per-action skip
// behaviours (update/delete on absent coordinates) count as success.
func (e *Engine) Apply(project, partition string, coords []voxel.Coord, action Action, params EditParams) (*EditResult, error) {
	if len(coords) == 0 {
		return nil, invalidInputf("edit batch must name at least one coordinate")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	seen := make(map[voxel.Coord]bool, len(coords))
	for _, c := range coords {
		if seen[c] {
			return nil, invalidInputf("coordinate (%d,%d,%d) appears twice in batch", c.X, c.Y, c.Z)
		}
		seen[c] = true
	}

	_, part, err := e.partition(project, partition)
	if err != nil {
		return nil, err
	}

	part.mu.Lock()
	defer part.mu.Unlock()

	deltas, skipped, err := part.buildDeltas(coords, action, params)
	if err != nil {
		return nil, err
	}
	if len(deltas) == 0 {
		// Everything in the batch was skippable; a no-op needs no history.
		return &EditResult{Skipped: skipped}, nil
	}

	entry := &ChangeSet{
		ID:        uuid.New().String(),
		Seq:       part.nextSeq,
		Action:    action,
		Deltas:    deltas,
		AppliedAt: time.Now().UTC(),
	}

	var dropped []string
	if len(part.undo) >= maxUndoDepth {
		drop := len(part.undo) - maxUndoDepth + 1
		for _, cs := range part.undo[:drop] {
			dropped = append(dropped, cs.ID)
		}
	}

	if e.store != nil {
		upserts, deletes := rowChanges(deltas, false)
		if err := e.store.RecordEdit(part.ID, entry, upserts, deletes, dropped); err != nil {
			return nil, internalErr("record edit", err)
		}
	}

	part.applyDeltas(deltas, false)
	if n := len(dropped); n > 0 {
		part.undo = append(part.undo[:0], part.undo[n:]...)
	}
	part.undo = append(part.undo, entry)
	part.redo = part.redo[:0]
	part.nextSeq++

	return &EditResult{EntryID: entry.ID, Changed: len(deltas), Skipped: skipped}, nil
}

// buildDeltas computes the diff for one batch without mutating anything.
// Callers hold the partition write lock.
func (p *Partition) buildDeltas(coords []voxel.Coord, action Action, params EditParams) ([]Delta, int, error) {
	var (
		deltas  []Delta
		skipped int
	)

	switch action {
	case ActionUpdate, ActionResetMaterial, ActionResetMagnetization:
		switch action {
		case ActionResetMaterial:
			m := voxel.DefaultMaterial
			params = EditParams{Material: &m}
		case ActionResetMagnetization:
			mag := voxel.DefaultMagnetization()
			params = EditParams{Magnet: &mag}
		default:
			if params.Material == nil && params.Magnet == nil {
				return nil, 0, invalidInputf("update needs a material id or a magnetization")
			}
		}
		for _, c := range coords {
			before, ok := p.voxels[c]
			if !ok {
				// no implicit creation
				skipped++
				continue
			}
			after := before
			if params.Material != nil {
				after.Material = *params.Material
			}
			if params.Magnet != nil {
				after.Magnet = *params.Magnet
			}
			if after == before {
				skipped++
				continue
			}
			b, a := before, after
			deltas = append(deltas, Delta{Coord: c, Before: &b, After: &a})
		}

	case ActionAdd:
		attrs := voxel.DefaultAttributes()
		if params.Material != nil {
			attrs.Material = *params.Material
		}
		if params.Magnet != nil {
			attrs.Magnet = *params.Magnet
		}
		for _, c := range coords {
			if _, ok := p.voxels[c]; ok {
				return nil, 0, conflictf("coordinate (%d,%d,%d) is already occupied", c.X, c.Y, c.Z)
			}
			a := attrs
			deltas = append(deltas, Delta{Coord: c, After: &a})
		}

	case ActionDelete:
		for _, c := range coords {
			before, ok := p.voxels[c]
			if !ok {
				// deleting an absent voxel is idempotent
				skipped++
				continue
			}
			b := before
			deltas = append(deltas, Delta{Coord: c, Before: &b})
		}

	default:
		return nil, 0, invalidInputf("unknown edit action %q", action)
	}

	return deltas, skipped, nil
}

// applyDeltas mutates the voxel map. With invert set, the Before side is
// restored instead of the After side. Callers hold the write lock.
func (p *Partition) applyDeltas(deltas []Delta, invert bool) {
	for _, d := range deltas {
		target := d.After
		if invert {
			target = d.Before
		}
		if target == nil {
			delete(p.voxels, d.Coord)
			p.layers.remove(d.Coord)
		} else {
			if _, existed := p.voxels[d.Coord]; !existed {
				p.layers.add(d.Coord)
			}
			p.voxels[d.Coord] = *target
		}
	}
}

// rowChanges converts deltas into persistence row operations.
func rowChanges(deltas []Delta, invert bool) (upserts []voxel.Voxel, deletes []voxel.Coord) {
	for _, d := range deltas {
		target := d.After
		if invert {
			target = d.Before
		}
		if target == nil {
			deletes = append(deletes, d.Coord)
		} else {
			upserts = append(upserts, voxel.Voxel{Coord: d.Coord, Attributes: *target})
		}
	}
	return upserts, deletes
}
