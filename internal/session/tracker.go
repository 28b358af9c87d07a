package session

import "sort"

// Tracker records which issues of the current report are selected for
// remediation, keyed by the issue's position in the report.
type Tracker struct {
	entries map[int]bool
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[int]bool)}
}

// Reset drops every entry. Called when a new scan starts so selections never
// leak from one report into the next.
func (t *Tracker) Reset() {
	t.entries = make(map[int]bool)
}

// Ensure creates an unselected entry for index unless one already exists.
func (t *Tracker) Ensure(index int) {
	if t.entries == nil {
		t.entries = make(map[int]bool)
	}
	if _, ok := t.entries[index]; !ok {
		t.entries[index] = false
	}
}

// Set records an explicit toggle.
func (t *Tracker) Set(index int, value bool) {
	if t.entries == nil {
		t.entries = make(map[int]bool)
	}
	t.entries[index] = value
}

// Selected reports the state of index; missing entries read as false.
func (t *Tracker) Selected(index int) bool {
	return t.entries[index]
}

// Len returns the number of tracked entries.
func (t *Tracker) Len() int {
	return len(t.entries)
}

func (t *Tracker) AnySelected() bool {
	for _, selected := range t.entries {
		if selected {
			return true
		}
	}
	return false
}

// SelectedIndices returns the selected indices in ascending order.
func (t *Tracker) SelectedIndices() []int {
	indices := []int{}
	for index, selected := range t.entries {
		if selected {
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)
	return indices
}
