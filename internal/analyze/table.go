package analyze

// Table is a frequency table: field value → occurrence count. Alongside each
// count it tracks the global first-seen sequence number of the value, which
// makes the Top-K tie-break deterministic across runs regardless of worker
// scheduling or chunk boundaries.
//
// A Table is not safe for concurrent mutation; the engine builds one per
// chunk and merges them through a single-owner reducer.
type Table struct {
	entries map[string]*tableEntry
}

type tableEntry struct {
	count uint64
	seen  uint64 // global sequence number of the first occurrence
}

// Entry is one (value, count) pair of a ranked result.
type Entry struct {
	Value string
	Count uint64
}

// NewTable returns an empty frequency table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*tableEntry)}
}

// add counts one occurrence of value. seq is the occurrence's global scan
// position; only the smallest seq per value is retained.
func (t *Table) add(value string, seq uint64) {
	if e, ok := t.entries[value]; ok {
		e.count++
		if seq < e.seen {
			e.seen = seq
		}
		return
	}
	t.entries[value] = &tableEntry{count: 1, seen: seq}
}

// Merge folds other into t by per-value integer addition, keeping the minimum
// first-seen sequence per value. Addition is exact (no floating point), so
// merging is associative and commutative: any merge order over any chunking
// yields the identical table.
func (t *Table) Merge(other *Table) {
	for v, oe := range other.entries {
		if e, ok := t.entries[v]; ok {
			e.count += oe.count
			if oe.seen < e.seen {
				e.seen = oe.seen
			}
			continue
		}
		t.entries[v] = &tableEntry{count: oe.count, seen: oe.seen}
	}
}

// Count returns the count recorded for value, zero when absent.
func (t *Table) Count(value string) uint64 {
	if e, ok := t.entries[value]; ok {
		return e.count
	}
	return 0
}

// Len returns the number of distinct values in the table.
func (t *Table) Len() int { return len(t.entries) }

// Total returns the sum of all counts in the table.
func (t *Table) Total() uint64 {
	var n uint64
	for _, e := range t.entries {
		n += e.count
	}
	return n
}
