// Package analyze implements the parallel chunked aggregation engine over an
// append-only, timestamp-ordered CSV event log (r/place style records:
// timestamp, user_id, pixel_color, coordinate).
//
// The engine computes frequency distributions of the color and coordinate
// fields restricted to an inclusive timestamp range. The file body is split
// into disjoint contiguous chunks of raw lines, each chunk is counted by a
// pure per-chunk processor running on a bounded worker pool, and the partial
// tables are folded by a single-owner reducer. Counter merging is exact
// integer addition, so the final tables are bit-identical to a sequential
// single pass no matter how the file was chunked or how workers were
// scheduled.
//
// Concurrency model:
//
//	reader/dispatcher (1 goroutine, sequential file read)
//	     → N chunk workers (errgroup, SetLimit(N); pure computation)
//	     → reducer (1 goroutine, owns the merged tables)
//
// Backpressure comes from the errgroup limit: dispatch blocks while all N
// workers are busy, so peak memory stays around O(N × chunk size) lines, not
// the file size. Any chunk failure cancels the group and aborts the whole
// run; no partial results are surfaced.
package analyze

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"placestat/internal/timefmt"
)

const (
	// DefaultChunkSize is the chunk capacity in lines.
	DefaultChunkSize = 200_000

	// skipSamples caps how many malformed-line examples the run summary logs.
	skipSamples = 3
)

// DefaultWorkers returns the default worker count: available parallelism
// minus one to leave headroom for the reader/dispatcher, floor 1.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Options tunes a single aggregation run. The zero value selects defaults.
type Options struct {
	// ChunkSize is the chunk capacity in lines; <= 0 means DefaultChunkSize.
	ChunkSize int

	// Workers is the number of concurrent chunk processors; <= 0 means
	// DefaultWorkers().
	Workers int

	// Strict fails the run on the first record with fewer than four fields
	// instead of skipping it. Blank lines are skipped either way.
	Strict bool
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	return o
}

// Result carries the merged frequency tables and the run's row accounting.
type Result struct {
	Colors *Table // pixel_color → count
	Coords *Table // coordinate → count

	Matched uint64 // in-range, well-formed records counted into both tables
	Skipped uint64 // malformed records dropped under the skip policy
	Lines   uint64 // data lines read (header excluded)
}

// Aggregate reads the log from r and counts color and coordinate frequencies
// for records whose timestamp lies in [start, end], inclusive. Both bounds
// must be canonical timestamps (timefmt.CanonicalLayout); build them with
// timefmt.NewRange for hour-granularity user input.
//
// Failure modes: timefmt.ErrInvalidRange when start >= end (checked before
// any reading), ErrMalformedInput when the source has no header line or, in
// strict mode, when a record lacks its fields. A failed chunk aborts the
// whole run and discards all partial results; retrying cannot help since
// chunk processing is deterministic.
func Aggregate(ctx context.Context, r io.Reader, start, end string, opt Options) (*Result, error) {
	if start >= end {
		return nil, fmt.Errorf("%w: start=%s end=%s", timefmt.ErrInvalidRange, start, end)
	}
	opt = opt.withDefaults()

	ch, err := newChunker(r, opt.ChunkSize)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.Workers)

	results := make(chan partial, opt.Workers)
	skips := newSkipAgg(skipSamples)

	// Reducer: sole owner of the merged tables. Partial results are applied
	// one at a time, so no other synchronization touches the accumulator.
	res := &Result{Colors: NewTable(), Coords: NewTable()}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range results {
			res.Colors.Merge(p.colors)
			res.Coords.Merge(p.coords)
			res.Matched += p.matched
			res.Skipped += p.skipped
		}
	}()

	// Dispatcher: the only goroutine reading the source. g.Go blocks while
	// all workers are busy, which is the backpressure bound.
	var readErr error
	for {
		if gctx.Err() != nil {
			break
		}
		chunk, ok, err := ch.next()
		if err != nil {
			readErr = fmt.Errorf("read source: %w", err)
			break
		}
		if !ok {
			break
		}
		g.Go(func() error {
			p, err := processChunk(chunk, start, end, opt.Strict, skips.add)
			if err != nil {
				return err
			}
			select {
			case results <- p:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	werr := g.Wait()
	close(results)
	<-done

	if readErr != nil {
		return nil, readErr
	}
	if werr != nil {
		return nil, werr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Lines = ch.lines()
	skips.logSummary()
	return res, nil
}

// skipAgg aggregates malformed-line reports across workers: total count plus
// the first few samples for the run summary.
type skipAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newSkipAgg(limit int) *skipAgg {
	return &skipAgg{limit: limit}
}

func (a *skipAgg) add(line uint64, reason string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, fmt.Sprintf("line=%d: %s", line, reason))
	}
	a.count++
	a.mu.Unlock()
}

func (a *skipAgg) logSummary() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return
	}
	log.Printf("skipped malformed records: %d (showing first %d)", a.count, len(a.first))
	for i, s := range a.first {
		log.Printf("  #%03d: %s", i+1, s)
	}
}
