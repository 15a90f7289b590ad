package dbr

// Display is the tri-state display text of a value. Enum values whose
// name list is not yet known must stay distinguishable from an
// out-of-range index (empty text), so Display carries an explicit
// resolved flag rather than collapsing both to "".
//
// The zero Display is unresolved.
type Display struct {
	resolved bool
	items    []string
}

// ResolvedDisplay returns a resolved display with the given items.
func ResolvedDisplay(items ...string) Display {
	return Display{resolved: true, items: items}
}

// Unresolved is the unresolved display marker.
var Unresolved = Display{}

// Resolved returns true if display text is available.
func (d Display) Resolved() bool { return d.resolved }

// Len returns the number of display items.
func (d Display) Len() int { return len(d.items) }

// String returns the first display item, or "" when unresolved or
// empty.
func (d Display) String() string {
	if len(d.items) == 0 {
		return ""
	}
	return d.items[0]
}

// Strings returns the display items. Nil when unresolved.
func (d Display) Strings() []string {
	if !d.resolved {
		return nil
	}
	return d.items
}

// Value returns the display shaped like the source value: a bare
// string for a single item, a []string otherwise, nil when unresolved.
func (d Display) Value() any {
	if !d.resolved {
		return nil
	}
	if len(d.items) == 1 {
		return d.items[0]
	}
	return d.items
}
