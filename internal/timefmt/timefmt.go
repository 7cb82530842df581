// Package timefmt defines the canonical event-timestamp format and the
// string-based chronological comparison the aggregation engine relies on.
//
// Event timestamps are stored as fixed-width, zero-padded strings of the form
//
//	2022-04-01 13:05:09.123456 UTC
//
// (layout CanonicalLayout). Because every field is zero-padded and the layout
// is fixed-width, lexicographic byte comparison of two such strings orders
// them chronologically. The engine deliberately compares raw strings instead
// of parsing a time.Time per record; this package names that comparison and
// pins the format contract so the optimization stays an invariant rather than
// an accident.
package timefmt

import (
	"errors"
	"fmt"
	"time"
)

const (
	// CanonicalLayout is the full event timestamp layout as stored in the log.
	CanonicalLayout = "2006-01-02 15:04:05.000000 UTC"

	// HourLayout is the coarse input layout accepted for range bounds
	// (e.g. "2022-04-01 13"). Minutes and below are forced to zero.
	HourLayout = "2006-01-02 15"
)

// ErrInvalidRange reports a range whose end is not strictly after its start.
var ErrInvalidRange = errors.New("invalid time range: end must be after start")

// Compare orders two canonical timestamps chronologically. It returns a
// negative value when a precedes b, zero when equal, positive otherwise.
//
// Correctness depends on both inputs using the fixed-width zero-padded
// canonical layout; see the package comment.
func Compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// InRange reports whether ts falls inside [start, end], inclusive on both
// ends, under canonical string ordering. Raw event timestamps may carry finer
// precision than the hour-granularity bounds and still compare correctly.
func InRange(ts, start, end string) bool {
	return start <= ts && ts <= end
}

// ParseHour validates an hour-granularity input string ("YYYY-MM-DD HH") and
// returns its canonical form with minutes, seconds, and microseconds zeroed.
func ParseHour(s string) (string, error) {
	t, err := time.Parse(HourLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid datetime %q: use %s: %w", s, HourLayout, err)
	}
	return t.UTC().Format(CanonicalLayout), nil
}

// Range is an immutable inclusive time range over canonical timestamps.
// Construct it with NewRange; both bounds are hour-normalized strings.
type Range struct {
	Start string
	End   string
}

// NewRange builds a Range from two hour-granularity input strings. It returns
// ErrInvalidRange (wrapped) when end is not strictly after start.
func NewRange(start, end string) (Range, error) {
	s, err := ParseHour(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseHour(end)
	if err != nil {
		return Range{}, err
	}
	if e <= s {
		return Range{}, fmt.Errorf("%w: start=%s end=%s", ErrInvalidRange, s, e)
	}
	return Range{Start: s, End: e}, nil
}

// Contains reports whether ts is inside the range, inclusive on both ends.
func (r Range) Contains(ts string) bool {
	return InRange(ts, r.Start, r.End)
}
