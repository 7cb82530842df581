package transform

import (
	"strconv"
	"strings"

	"placestat/internal/storage"
)

// DeDup collapses rows that share (timestamp, user key, x, y), keeping the
// first occurrence in the batch. The 2022 export contains occasional repeated
// rows from the upstream splitter; dropping them before the insert avoids
// write amplification. Cross-batch duplicates are left alone: the destination
// table carries no uniqueness constraint and the loader favors throughput
// over exactness here.
type DeDup struct{}

func (DeDup) Apply(events []storage.Event) []storage.Event {
	if len(events) < 2 {
		return events
	}
	seen := make(map[string]struct{}, len(events))
	out := events[:0]
	var b strings.Builder
	for _, ev := range events {
		b.Reset()
		b.WriteString(ev.Timestamp)
		b.WriteByte('\x1f')
		b.WriteString(strconv.FormatUint(ev.UserKey, 16))
		b.WriteByte('\x1f')
		b.WriteString(strconv.Itoa(ev.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(ev.Y))
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}
