package engine

// HistoryStatus reports where the stacks stand after an undo or redo, so
// the editor can enable or grey out its history controls.
type HistoryStatus struct {
	Action    string `json:"action"`
	EntryID   string `json:"entry_id"`
	Reverted  int    `json:"reverted"`
	UndoEmpty bool   `json:"undo_empty"`
	RedoEmpty bool   `json:"redo_empty"`
}

// Undo pops the partition's latest history entry, restores the prior
// attribute value (or absence) at every touched coordinate, and pushes the
// entry onto the redo stack.
func (e *Engine) Undo(project, partition string) (*HistoryStatus, error) {
	return e.moveHistory(project, partition, true)
}

// Redo reapplies the most recently undone entry. Any new edit in between
// clears the redo stack, keeping history linear.
func (e *Engine) Redo(project, partition string) (*HistoryStatus, error) {
	return e.moveHistory(project, partition, false)
}

func (e *Engine) moveHistory(project, partition string, undo bool) (*HistoryStatus, error) {
	_, part, err := e.partition(project, partition)
	if err != nil {
		return nil, err
	}

	part.mu.Lock()
	defer part.mu.Unlock()

	from, to := &part.undo, &part.redo
	action := "undo"
	if !undo {
		from, to = &part.redo, &part.undo
		action = "redo"
	}
	if len(*from) == 0 {
		return nil, emptyHistoryf("nothing to %s in partition %q", action, partition)
	}

	entry := (*from)[len(*from)-1]

	if e.store != nil {
		upserts, deletes := rowChanges(entry.Deltas, undo)
		if err := e.store.RecordHistoryMove(part.ID, entry.ID, undo, upserts, deletes); err != nil {
			return nil, internalErr(action, err)
		}
	}

	part.applyDeltas(entry.Deltas, undo)
	*from = (*from)[:len(*from)-1]
	*to = append(*to, entry)

	return &HistoryStatus{
		Action:    action,
		EntryID:   entry.ID,
		Reverted:  len(entry.Deltas),
		UndoEmpty: len(part.undo) == 0,
		RedoEmpty: len(part.redo) == 0,
	}, nil
}

// HistoryDepths returns the undo and redo stack depths of a partition.
func (e *Engine) HistoryDepths(project, partition string) (undo, redo int, err error) {
	_, part, err := e.partition(project, partition)
	if err != nil {
		return 0, 0, err
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	return len(part.undo), len(part.redo), nil
}
