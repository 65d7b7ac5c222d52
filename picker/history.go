package picker

import "slices"

// HistoryLimit is the maximum number of refs remembered.
const HistoryLimit = 15

// History is an ordered record of recently used refs, oldest first.
// It never holds more than HistoryLimit entries.
type History struct {
	refs []string
}

// Push appends ref, evicting the oldest entry when over the limit.
func (h *History) Push(ref string) {
	h.refs = append(h.refs, ref)
	if len(h.refs) > HistoryLimit {
		h.refs = slices.Delete(h.refs, 0, len(h.refs)-HistoryLimit)
	}
}

// Contains reports whether ref is in the history.
func (h *History) Contains(ref string) bool {
	return slices.Contains(h.refs, ref)
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.refs) }

// Refs returns a copy of the entries, oldest first.
func (h *History) Refs() []string { return slices.Clone(h.refs) }
