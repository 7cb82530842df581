package analyze

import (
	"fmt"
	"strings"

	"placestat/internal/timefmt"
)

// recordFields is the column layout of one log line:
// timestamp, user_id, pixel_color, coordinate.
const recordFields = 4

// partial is one chunk's contribution to the final result.
type partial struct {
	colors  *Table
	coords  *Table
	matched uint64
	skipped uint64
}

// splitRecord splits a raw line into its four fields. The coordinate is the
// final field and may carry an embedded comma in quoted form ("x,y"), so the
// split is capped at four pieces and surrounding quotes are stripped from the
// remainder. ok is false when the line has fewer than four fields.
func splitRecord(line string) (ts, user, color, coord string, ok bool) {
	f := strings.SplitN(line, ",", recordFields)
	if len(f) < recordFields {
		return "", "", "", "", false
	}
	coord = f[3]
	if len(coord) >= 2 && coord[0] == '"' && coord[len(coord)-1] == '"' {
		coord = coord[1 : len(coord)-1]
	}
	return f[0], f[1], f[2], coord, true
}

// processChunk counts color and coordinate frequencies for the records of one
// chunk whose timestamps fall inside [start, end], inclusive on both ends
// under canonical string comparison (see timefmt).
//
// It is a pure function over its inputs: no I/O, no shared state, safe to run
// concurrently with any number of other invocations.
//
// Malformed lines (fewer than four fields) are skipped and reported through
// onSkip when strict is false; with strict set, the first malformed record
// fails the chunk. Blank lines are always skipped silently: trailing newlines
// are expected in real exports and carry no timestamp to judge.
func processChunk(chunk Chunk, start, end string, strict bool, onSkip func(line uint64, reason string)) (partial, error) {
	p := partial{colors: NewTable(), coords: NewTable()}

	for i, line := range chunk.Lines {
		if line == "" {
			continue
		}
		seq := chunk.Base + uint64(i)

		ts, _, color, coord, ok := splitRecord(line)
		if !ok {
			if strict {
				return partial{}, fmt.Errorf("%w: line %d: expected %d fields", ErrMalformedInput, seq+1, recordFields)
			}
			p.skipped++
			if onSkip != nil {
				onSkip(seq+1, fmt.Sprintf("expected %d fields, got %d", recordFields, 1+strings.Count(line, ",")))
			}
			continue
		}

		if !timefmt.InRange(ts, start, end) {
			continue
		}
		p.colors.add(color, seq)
		p.coords.add(coord, seq)
		p.matched++
	}
	return p, nil
}
