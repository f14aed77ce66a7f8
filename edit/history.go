package edit

// DefaultHistoryCapacity bounds the undo depth when none is configured.
const DefaultHistoryCapacity = 100

// History keeps a bounded, navigable sequence of revisions with a cursor.
// Undo and redo move the cursor; committing while the cursor is not at the
// tail discards the redo-able future (linear history, no branching).
//
// History never touches rendering state: cache keys are content and
// parameter derived, so re-applying an old revision naturally rehits
// whatever cache entries are still valid.
type History struct {
	revs     []*Revision
	cursor   int
	capacity int
}

// NewHistory creates a history bounded to capacity revisions.
// Non-positive capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{cursor: -1, capacity: capacity}
}

// Commit records a revision as the new tail. Any redo-able revisions past
// the cursor are discarded first; the oldest revision is dropped once the
// capacity is reached.
func (h *History) Commit(rev *Revision) {
	if rev == nil {
		return
	}
	h.revs = h.revs[:h.cursor+1]
	h.revs = append(h.revs, rev)
	if len(h.revs) > h.capacity {
		h.revs = h.revs[len(h.revs)-h.capacity:]
	}
	h.cursor = len(h.revs) - 1
}

// Undo moves the cursor one revision back and returns the revision there.
// Returns false when there is nothing to undo.
func (h *History) Undo() (*Revision, bool) {
	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.revs[h.cursor], true
}

// Redo moves the cursor one revision forward and returns the revision
// there. Returns false when there is nothing to redo.
func (h *History) Redo() (*Revision, bool) {
	if h.cursor < 0 || h.cursor >= len(h.revs)-1 {
		return nil, false
	}
	h.cursor++
	return h.revs[h.cursor], true
}

// Current returns the revision at the cursor, or nil when empty.
func (h *History) Current() *Revision {
	if h.cursor < 0 || h.cursor >= len(h.revs) {
		return nil
	}
	return h.revs[h.cursor]
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.revs)-1 }

// Len returns the number of recorded revisions.
func (h *History) Len() int { return len(h.revs) }
