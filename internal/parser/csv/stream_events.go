// Package csv streams the placement export into typed storage.Event values.
// It reuses csv.Reader buffers (ReuseRecord=true) and defers per-row problems
// to a soft-drop callback so one broken line never aborts a multi-hour load.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"placestat/internal/storage"
)

// utf8BOM is the byte-order mark some CSV exporters prepend to the header.
const utf8BOM = "\ufeff"

// header column count of the placement export:
// timestamp, user_id, pixel_color, coordinate.
const wantFields = 4

// StreamEvents reads the CSV export from src and sends one storage.Event per
// well-formed data row to out. The header line is consumed and ignored; a
// source without even a header fails with an error.
//
// Row-level problems (short rows, unparseable coordinates) are recoverable:
// they are reported through onErr(line, err) and the row is dropped. Reader-
// level errors end the stream.
//
// The caller owns both channels; StreamEvents closes neither. It returns when
// src is exhausted or ctx is canceled.
func StreamEvents(
	ctx context.Context,
	src io.ReadCloser,
	out chan<- storage.Event,
	onErr func(line int, err error),
) error {
	defer src.Close()

	cr := csv.NewReader(src)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1 // tolerant by default; short rows are soft-dropped
	cr.LazyQuotes = true

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	// Header
	hdr, err := read()
	if err != nil {
		if onErr != nil {
			onErr(line, fmt.Errorf("read header: %w", err))
		}
		return fmt.Errorf("read header: %w", err)
	}
	// Column order is fixed by the export; names are not consulted beyond
	// stripping a possible BOM for the heartbeat log.
	if len(hdr) > 0 {
		hdr[0] = strings.TrimPrefix(hdr[0], utf8BOM)
	}
	log.Printf("reader: header=%s", strings.Join(hdr, ","))

	// Progress heartbeat
	const logEveryN = 500_000
	emitted := 0

	for {
		// cooperative cancel
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}
		if len(rec) < wantFields {
			if onErr != nil {
				onErr(line, fmt.Errorf("expected %d fields, got %d", wantFields, len(rec)))
			}
			continue
		}

		x, y, err := storage.ParseCoordinate(rec[3])
		if err != nil {
			if onErr != nil {
				onErr(line, err)
			}
			continue
		}

		ev := storage.Event{
			Timestamp: rec[0],
			UserKey:   storage.UserKey(rec[1]),
			Color:     rec[2],
			X:         x,
			Y:         y,
		}

		select {
		case out <- ev:
			emitted++
			if emitted%logEveryN == 0 {
				log.Printf("reader: line=%d emitted=%d", line, emitted)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
