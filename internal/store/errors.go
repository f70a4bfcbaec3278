package store

import (
	"fmt"
	"strings"
)

// PartialDeleteError reports a delete that stopped at Table. Tables listed in
// Deleted were already removed; Table and every table after it were not.
type PartialDeleteError struct {
	ProductID string
	Table     string
	Position  int
	Deleted   []string
	Err       error
}

func (e *PartialDeleteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "delete product %q failed at table %s (position %d)", e.ProductID, e.Table, e.Position)
	if len(e.Deleted) > 0 {
		fmt.Fprintf(&b, " after deleting from %s", strings.Join(e.Deleted, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }
