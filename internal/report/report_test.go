package report

import (
	"strings"
	"testing"

	"placestat/internal/analyze"
	"placestat/internal/storage"
)

func TestRanking(t *testing.T) {
	var b strings.Builder
	New(&b).Ranking("Color Rankings by Placements", []analyze.Entry{
		{Value: "#FF4500", Count: 1234567},
		{Value: "#FFFFFF", Count: 89},
	})
	out := b.String()

	for _, want := range []string{
		"Color Rankings by Placements:",
		"1. #FF4500: 1,234,567", // thousands separators
		"2. #FFFFFF: 89",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRankingEmpty(t *testing.T) {
	var b strings.Builder
	New(&b).Ranking("Pixel Rankings by Placements", nil)
	if !strings.Contains(b.String(), "(no records in range)") {
		t.Errorf("empty ranking output:\n%s", b.String())
	}
}

func TestColorCounts(t *testing.T) {
	var b strings.Builder
	New(&b).ColorCounts("Top 2 Colors", []storage.ColorCount{
		{Color: "#000000", Count: 5000},
		{Color: "#FF4500", Count: 4999},
	})
	out := b.String()
	if !strings.Contains(out, "1. #000000: 5,000") || !strings.Contains(out, "2. #FF4500: 4,999") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	var b strings.Builder
	New(&b).Summary(
		&analyze.Entry{Value: "#000000", Count: 12000},
		&analyze.Entry{Value: "0,0", Count: 321},
	)
	out := b.String()
	if !strings.Contains(out, "- Most Placed Color: #000000 (12,000)") {
		t.Errorf("color line missing:\n%s", out)
	}
	if !strings.Contains(out, "- Most Placed Pixel Location: (0,0) (321)") {
		t.Errorf("pixel line missing:\n%s", out)
	}

	b.Reset()
	New(&b).Summary(nil, nil)
	if b.Len() != 0 {
		t.Errorf("nil summary wrote %q", b.String())
	}
}
