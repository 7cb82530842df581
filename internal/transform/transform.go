// Package transform contains in-memory, per-batch event filters applied
// between the CSV parser and the storage loader: duplicate collapsing and
// bounds validation. Each Stage rewrites one batch; stages compose with Chain
// and hook into the loader by wrapping its insert function.
package transform

import (
	"context"

	"placestat/internal/storage"
)

// Stage rewrites one batch of events. Implementations must not retain the
// input slice; returning it (possibly re-sliced) is fine.
type Stage interface {
	Apply(events []storage.Event) []storage.Event
}

// Chain applies stages in order.
type Chain []Stage

func (c Chain) Apply(events []storage.Event) []storage.Event {
	for _, s := range c {
		events = s.Apply(events)
	}
	return events
}

// WrapInsert returns an insert function that runs stage over each batch
// before delegating to next. A stage that empties the batch skips the insert
// and reports zero rows.
func WrapInsert(stage Stage, next storage.InsertFn) storage.InsertFn {
	if stage == nil {
		return next
	}
	return func(ctx context.Context, events []storage.Event) (int64, error) {
		events = stage.Apply(events)
		if len(events) == 0 {
			return 0, nil
		}
		return next(ctx, events)
	}
}
