package downloads

import (
	"github.com/vertextoedge/request-tui/internal/domain"
)

// FinishList collects the entries of tasks that left the active list,
// oldest first.
type FinishList struct {
	entries []domain.FinishedEntry
}

// NewFinishList creates an empty FinishList
func NewFinishList() *FinishList {
	return &FinishList{}
}

// Push appends an entry
func (f *FinishList) Push(entry domain.FinishedEntry) {
	f.entries = append(f.entries, entry)
}

// Len returns the number of entries
func (f *FinishList) Len() int {
	return len(f.entries)
}

// Entries returns a copy of the entries
func (f *FinishList) Entries() []domain.FinishedEntry {
	out := make([]domain.FinishedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Counts returns the number of successful and failed entries
func (f *FinishList) Counts() (succeeded, failed int) {
	for _, e := range f.entries {
		if e.Success() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
