package cache

import "fmt"

// LineChange describes how one line differs between two states.
type LineChange struct {
	Index   int
	Message string
}

// String renders the change as a log line.
func (c LineChange) String() string {
	return fmt.Sprintf("Cache line %d: %s", c.Index, c.Message)
}

// Diff compares two states of the same cache and reports, per line, whether
// it was activated or invalidated, modified or written back, and whether a
// new tag was loaded. Lines missing from prev are skipped.
func Diff(prev, cur []LineView) []LineChange {
	var changes []LineChange

	for i, line := range cur {
		if i >= len(prev) {
			break
		}
		old := prev[i]

		if line.Valid != old.Valid {
			msg := "Invalidated"
			if line.Valid {
				msg = "Activated"
			}
			changes = append(changes, LineChange{Index: line.Index, Message: msg})
		}

		if line.Dirty != old.Dirty {
			msg := "Written back to memory"
			if line.Dirty {
				msg = "Modified"
			}
			changes = append(changes, LineChange{Index: line.Index, Message: msg})
		}

		if line.Tag != old.Tag {
			changes = append(changes, LineChange{
				Index:   line.Index,
				Message: "New data loaded from tag " + line.Tag,
			})
		}
	}

	return changes
}
