package transform

import (
	"log"
	"sync/atomic"

	"placestat/internal/canvas"
	"placestat/internal/storage"
)

// Validate drops rows whose coordinates fall off the canvas and tracks how
// many distinct pixels the surviving rows touch. Rectangle moderation events
// are already reduced to a single corner by the parser, so anything still out
// of bounds is a corrupt row.
type Validate struct {
	cov     *canvas.Coverage
	dropped atomic.Int64
}

// NewValidate returns a Validate stage for a w x h canvas.
func NewValidate(w, h int) *Validate {
	return &Validate{cov: canvas.NewCoverage(w, h)}
}

func (v *Validate) Apply(events []storage.Event) []storage.Event {
	out := events[:0]
	for _, ev := range events {
		if !v.cov.InBounds(ev.X, ev.Y) {
			if n := v.dropped.Add(1); n <= 5 {
				log.Printf("transform: out-of-bounds pixel (%d,%d) dropped", ev.X, ev.Y)
			}
			continue
		}
		v.cov.Mark(ev.X, ev.Y)
		out = append(out, ev)
	}
	return out
}

// Dropped returns how many rows were rejected for being off-canvas.
func (v *Validate) Dropped() int64 { return v.dropped.Load() }

// PixelsTouched returns the number of distinct pixels seen across all batches.
func (v *Validate) PixelsTouched() int { return v.cov.Count() }
