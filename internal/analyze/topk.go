package analyze

import "sort"

// TopK returns the k highest-count entries of t, ordered by count descending.
// Equal counts are broken by earliest first-seen position in the original
// scan order, so the output is reproducible for a given input regardless of
// chunk size or worker count. When t has fewer than k entries, all of them
// are returned; k <= 0 or an empty table yields an empty slice.
func TopK(t *Table, k int) []Entry {
	if k <= 0 || t == nil || len(t.entries) == 0 {
		return nil
	}

	type ranked struct {
		Entry
		seen uint64
	}
	all := make([]ranked, 0, len(t.entries))
	for v, e := range t.entries {
		all = append(all, ranked{Entry{Value: v, Count: e.count}, e.seen})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].seen < all[j].seen
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]Entry, k)
	for i := range out {
		out[i] = all[i].Entry
	}
	return out
}

// Max returns the single most frequent entry of t. It returns ErrNotFound
// when the table is empty.
func Max(t *Table) (Entry, error) {
	top := TopK(t, 1)
	if len(top) == 0 {
		return Entry{}, ErrNotFound
	}
	return top[0], nil
}
