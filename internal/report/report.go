// Package report renders ranked frequency results for terminal output.
// Counts are printed with locale-aware thousands separators so large tallies
// stay readable.
package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"placestat/internal/analyze"
	"placestat/internal/storage"
)

// Renderer writes ranked tables to an output stream.
type Renderer struct {
	w io.Writer
	p *message.Printer
}

// New returns a Renderer that writes to w using English number formatting.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w, p: message.NewPrinter(language.English)}
}

// Ranking writes a titled ranked list:
//
//	Color Rankings by Placements:
//	---------------------------------
//	1. #000000: 1,234,567
//	2. #FFFFFF: 987,654
func (r *Renderer) Ranking(title string, entries []analyze.Entry) {
	fmt.Fprintf(r.w, "\n%s:\n", title)
	fmt.Fprintln(r.w, "---------------------------------")
	for i, e := range entries {
		r.p.Fprintf(r.w, "%d. %s: %d\n", i+1, e.Value, e.Count)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.w, "(no records in range)")
	}
}

// ColorCounts writes a titled ranked list of SQL-side color counts, in the
// same shape as Ranking.
func (r *Renderer) ColorCounts(title string, rows []storage.ColorCount) {
	fmt.Fprintf(r.w, "\n%s:\n", title)
	fmt.Fprintln(r.w, "---------------------------------")
	for i, row := range rows {
		r.p.Fprintf(r.w, "%d. %s: %d\n", i+1, row.Color, row.Count)
	}
	if len(rows) == 0 {
		fmt.Fprintln(r.w, "(no records in range)")
	}
}

// Summary writes the most-placed lines of the run footer. Either argmax may
// be absent when the range matched nothing.
func (r *Renderer) Summary(color, coord *analyze.Entry) {
	if color != nil {
		r.p.Fprintf(r.w, "- Most Placed Color: %s (%d)\n", color.Value, color.Count)
	}
	if coord != nil {
		r.p.Fprintf(r.w, "- Most Placed Pixel Location: (%s) (%d)\n", coord.Value, coord.Count)
	}
}
