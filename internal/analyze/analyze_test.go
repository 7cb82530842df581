package analyze

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"placestat/internal/timefmt"
)

const header = "timestamp,user_id,pixel_color,coordinate\n"

// hourly builds a log body with one record per entry, timestamps advancing by
// one hour from 12:00.
func hourly(colors ...string) string {
	var b strings.Builder
	b.WriteString(header)
	for i, c := range colors {
		fmt.Fprintf(&b, "2022-04-01 %02d:00:00.000000 UTC,user%d,%s,\"%d,%d\"\n", 12+i, i, c, i, i)
	}
	return b.String()
}

func mustRange(t *testing.T, start, end string) timefmt.Range {
	t.Helper()
	r, err := timefmt.NewRange(start, end)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return r
}

func TestAggregateInclusiveRange(t *testing.T) {
	// Records at 12:00 A, 13:00 A, 14:00 B, 15:00 A, 16:00 C; the range
	// [13:00, 15:00] keeps both boundary records.
	src := hourly("#A", "#A", "#B", "#A", "#C")
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 15")

	res, err := Aggregate(context.Background(), strings.NewReader(src), rng.Start, rng.End, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if res.Matched != 3 {
		t.Errorf("Matched = %d, want 3", res.Matched)
	}
	if res.Lines != 5 {
		t.Errorf("Lines = %d, want 5", res.Lines)
	}
	if got := res.Colors.Count("#A"); got != 2 {
		t.Errorf("colors[#A] = %d, want 2", got)
	}
	if got := res.Colors.Count("#B"); got != 1 {
		t.Errorf("colors[#B] = %d, want 1", got)
	}
	if got := res.Colors.Count("#C"); got != 0 {
		t.Errorf("colors[#C] = %d, want 0", got)
	}
	// Each matched record lands in both tables exactly once.
	if res.Colors.Total() != res.Matched || res.Coords.Total() != res.Matched {
		t.Errorf("table totals %d/%d, want both = Matched %d",
			res.Colors.Total(), res.Coords.Total(), res.Matched)
	}
}

// The result must not depend on chunking: one line per chunk, everything in
// one chunk, and an uneven split all produce identical tables and rankings.
func TestAggregateChunkingInvariance(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	colors := []string{"#FF4500", "#FFFFFF", "#000000", "#00A368"}
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&b, "2022-04-01 13:%02d:%02d.%06d UTC,u%d,%s,\"%d,%d\"\n",
			i/60, i%60, i, i, colors[rnd.Intn(len(colors))], rnd.Intn(10), rnd.Intn(10))
	}
	src := b.String()
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 14")

	var results []*Result
	for _, chunkSize := range []int{1, 7, 500, 100000} {
		res, err := Aggregate(context.Background(), strings.NewReader(src), rng.Start, rng.End,
			Options{ChunkSize: chunkSize, Workers: 4})
		if err != nil {
			t.Fatalf("Aggregate(chunk=%d): %v", chunkSize, err)
		}
		results = append(results, res)
	}

	base := results[0]
	baseColors := TopK(base.Colors, 10)
	baseCoords := TopK(base.Coords, 10)
	for i, res := range results[1:] {
		if res.Matched != base.Matched {
			t.Errorf("run %d Matched = %d, want %d", i+1, res.Matched, base.Matched)
		}
		if !reflect.DeepEqual(TopK(res.Colors, 10), baseColors) {
			t.Errorf("run %d color ranking differs", i+1)
		}
		if !reflect.DeepEqual(TopK(res.Coords, 10), baseCoords) {
			t.Errorf("run %d coordinate ranking differs", i+1)
		}
	}
}

func TestAggregateSkipsMalformedByDefault(t *testing.T) {
	src := header +
		"2022-04-01 13:00:00.000000 UTC,u1,#A,0,0\n" +
		"2022-04-01 13:30:00.000000 UTC,broken\n" +
		"2022-04-01 14:00:00.000000 UTC,u2,#A,1,1\n"
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 15")

	res, err := Aggregate(context.Background(), strings.NewReader(src), rng.Start, rng.End, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if res.Matched != 2 || res.Skipped != 1 {
		t.Fatalf("Matched=%d Skipped=%d, want 2/1", res.Matched, res.Skipped)
	}
}

func TestAggregateStrictFailsOnMalformed(t *testing.T) {
	src := header +
		"2022-04-01 13:00:00.000000 UTC,u1,#A,0,0\n" +
		"2022-04-01 13:30:00.000000 UTC,broken\n"
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 15")

	_, err := Aggregate(context.Background(), strings.NewReader(src), rng.Start, rng.End, Options{Strict: true})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestAggregateInvalidRange(t *testing.T) {
	// The bound check runs before any reading, so even a valid source is
	// never touched.
	for _, tc := range [][2]string{
		{"2022-04-01 15:00:00.000000 UTC", "2022-04-01 13:00:00.000000 UTC"},
		{"2022-04-01 13:00:00.000000 UTC", "2022-04-01 13:00:00.000000 UTC"},
	} {
		_, err := Aggregate(context.Background(), strings.NewReader(hourly("#A")), tc[0], tc[1], Options{})
		if !errors.Is(err, timefmt.ErrInvalidRange) {
			t.Errorf("Aggregate(%q, %q) err = %v, want ErrInvalidRange", tc[0], tc[1], err)
		}
	}
}

func TestAggregateMissingHeader(t *testing.T) {
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 15")
	_, err := Aggregate(context.Background(), strings.NewReader(""), rng.Start, rng.End, Options{})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestAggregateEmptyMatch(t *testing.T) {
	src := hourly("#A", "#B")
	rng := mustRange(t, "2023-01-01 00", "2023-01-01 01")

	res, err := Aggregate(context.Background(), strings.NewReader(src), rng.Start, rng.End, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if res.Matched != 0 || res.Colors.Len() != 0 || res.Coords.Len() != 0 {
		t.Fatalf("empty range produced Matched=%d colors=%d coords=%d", res.Matched, res.Colors.Len(), res.Coords.Len())
	}
	if _, err := Max(res.Colors); !errors.Is(err, ErrNotFound) {
		t.Errorf("Max on empty result err = %v, want ErrNotFound", err)
	}
}

func TestAggregateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 15")

	_, err := Aggregate(ctx, strings.NewReader(hourly("#A", "#B", "#C")), rng.Start, rng.End,
		Options{ChunkSize: 1, Workers: 2})
	if err == nil {
		t.Fatal("Aggregate on canceled context returned nil error")
	}
}

// errReader fails after its prefix is exhausted, standing in for a source
// that dies mid-stream.
type errReader struct {
	prefix *strings.Reader
	err    error
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.prefix.Len() > 0 {
		return r.prefix.Read(p)
	}
	return 0, r.err
}

func TestAggregateReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := &errReader{prefix: strings.NewReader(hourly("#A", "#B")), err: boom}
	rng := mustRange(t, "2022-04-01 13", "2022-04-01 15")

	_, err := Aggregate(context.Background(), src, rng.Start, rng.End, Options{ChunkSize: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped read error", err)
	}
}

func BenchmarkAggregate(b *testing.B) {
	rnd := rand.New(rand.NewSource(1))
	colors := []string{"#FF4500", "#FFFFFF", "#000000", "#00A368", "#3690EA"}
	var sb strings.Builder
	sb.WriteString(header)
	for i := 0; i < 100_000; i++ {
		fmt.Fprintf(&sb, "2022-04-01 13:%02d:%02d.%06d UTC,u%d,%s,\"%d,%d\"\n",
			(i/60)%60, i%60, i, i%5000, colors[rnd.Intn(len(colors))], rnd.Intn(2000), rnd.Intn(2000))
	}
	src := sb.String()
	rng, _ := timefmt.NewRange("2022-04-01 13", "2022-04-01 15")

	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Aggregate(context.Background(), strings.NewReader(src), rng.Start, rng.End,
			Options{ChunkSize: 10_000}); err != nil {
			b.Fatal(err)
		}
	}
}
