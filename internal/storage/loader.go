// This file implements a generic, batched loader that drains event rows from
// a channel and invokes a provided bulk-insert function per batch.
//
// Backends (Postgres, SQLite) implement InsertFn using their most efficient
// primitives (Postgres COPY, SQLite transactional multi-INSERT).
//
// Logging: on every successful flush, a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// InsertFn abstracts a backend's bulk insert capability. Implementations
// should insert the provided events, return the number of rows reported as
// inserted, and cancel promptly when ctx is done.
type InsertFn func(ctx context.Context, events []Event) (int64, error)

// LoadBatches drains events from 'in', groups them into batches of size
// 'batchSize', and calls 'insertFn' for each non-empty batch. It returns the
// total number of rows reported by insertFn and the first error encountered.
//
// Cancellation: returns (total, ctx.Err()) when canceled. Progress is logged
// on each successful flush.
func LoadBatches(
	ctx context.Context,
	in <-chan Event,
	batchSize int,
	insertFn InsertFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if insertFn == nil {
		return 0, fmt.Errorf("insertFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([]Event, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := insertFn(ctx, batch)
		total += n

		// Reuse allocated slice; keep capacity to avoid churn.
		batch = batch[:0]

		if err != nil {
			log.Printf("loader: insert failed after=%d total=%d err=%v", n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		insertedSinceLast := total - lastTotal
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(insertedSinceLast) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
			batches,
			rps,
			n,
			total,
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total

		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case ev, ok := <-in:
			if !ok {
				// Channel closed: flush remaining rows.
				if err := flush(); err != nil {
					return total, err
				}
				log.Printf("loader: input closed, total_inserted=%d batches=%d", total, batches)
				return total, nil
			}
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
