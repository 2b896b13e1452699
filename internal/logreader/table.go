package logreader

// Key addresses one channel of a log: the section header it appeared under
// and the channel name.
type Key struct {
	Header  string
	Channel string
}

// Table is a two-level table of (header, channel) to the channel's raw
// values in encounter order. Keys iterate in first-encounter order.
type Table struct {
	keys  []Key
	cells map[Key][]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{cells: make(map[Key][]string)}
}

// Append adds value to the cell at k, creating the cell if absent.
func (t *Table) Append(k Key, value string) {
	vals, ok := t.cells[k]
	if !ok {
		t.keys = append(t.keys, k)
	}
	t.cells[k] = append(vals, value)
}

// Keys returns the cell keys in first-encounter order.
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.keys))
	copy(out, t.keys)
	return out
}

// Values returns the raw values at k.
func (t *Table) Values(k Key) []string {
	return t.cells[k]
}

// Len returns the number of cells.
func (t *Table) Len() int {
	return len(t.keys)
}

// Retain keeps only the cells for which keep returns true and returns the
// number of cells removed.
func (t *Table) Retain(keep func(Key) bool) int {
	kept := t.keys[:0]
	removed := 0
	for _, k := range t.keys {
		if keep(k) {
			kept = append(kept, k)
			continue
		}
		delete(t.cells, k)
		removed++
	}
	t.keys = kept
	return removed
}
