package transform

import (
	"context"
	"reflect"
	"testing"

	"placestat/internal/storage"
)

func ev(ts string, user uint64, x, y int) storage.Event {
	return storage.Event{Timestamp: ts, UserKey: user, Color: "#FF4500", X: x, Y: y}
}

func TestDeDupKeepsFirst(t *testing.T) {
	in := []storage.Event{
		ev("2022-04-01 13:00:00.000000 UTC", 1, 5, 5),
		ev("2022-04-01 13:00:00.000000 UTC", 1, 5, 5), // exact duplicate
		ev("2022-04-01 13:00:00.000000 UTC", 2, 5, 5), // same pixel, other user
		ev("2022-04-01 13:00:01.000000 UTC", 1, 5, 5), // same user+pixel, later ts
	}
	got := DeDup{}.Apply(in)
	want := []storage.Event{in[0], in[2], in[3]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DeDup = %+v, want %+v", got, want)
	}
}

func TestDeDupSmallBatches(t *testing.T) {
	if got := (DeDup{}).Apply(nil); len(got) != 0 {
		t.Errorf("DeDup(nil) = %+v", got)
	}
	one := []storage.Event{ev("t", 1, 0, 0)}
	if got := (DeDup{}).Apply(one); !reflect.DeepEqual(got, one) {
		t.Errorf("DeDup single = %+v", got)
	}
}

func TestValidateDropsOffCanvas(t *testing.T) {
	v := NewValidate(10, 10)
	in := []storage.Event{
		ev("t", 1, 0, 0),
		ev("t", 2, 10, 0), // x out of bounds
		ev("t", 3, 3, -1), // y out of bounds
		ev("t", 4, 9, 9),
		ev("t", 5, 9, 9), // same pixel again: kept, counted once
	}
	got := v.Apply(in)
	if len(got) != 3 {
		t.Fatalf("kept %d events, want 3", len(got))
	}
	if v.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", v.Dropped())
	}
	if v.PixelsTouched() != 2 {
		t.Errorf("PixelsTouched = %d, want 2", v.PixelsTouched())
	}
}

func TestChain(t *testing.T) {
	v := NewValidate(10, 10)
	c := Chain{DeDup{}, v}
	in := []storage.Event{
		ev("t", 1, 0, 0),
		ev("t", 1, 0, 0),  // duplicate
		ev("t", 2, 50, 0), // off canvas
	}
	if got := c.Apply(in); len(got) != 1 {
		t.Fatalf("chain kept %d events, want 1", len(got))
	}
}

func TestWrapInsert(t *testing.T) {
	var inserted [][]storage.Event
	next := func(ctx context.Context, events []storage.Event) (int64, error) {
		inserted = append(inserted, append([]storage.Event(nil), events...))
		return int64(len(events)), nil
	}

	fn := WrapInsert(DeDup{}, next)
	n, err := fn(context.Background(), []storage.Event{
		ev("t", 1, 0, 0),
		ev("t", 1, 0, 0),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 1 || len(inserted) != 1 || len(inserted[0]) != 1 {
		t.Fatalf("n=%d inserted=%v", n, inserted)
	}

	// A fully filtered batch skips the insert entirely.
	v := NewValidate(1, 1)
	fn = WrapInsert(v, next)
	n, err = fn(context.Background(), []storage.Event{ev("t", 1, 50, 50)})
	if err != nil || n != 0 {
		t.Fatalf("filtered batch: n=%d err=%v", n, err)
	}
	if len(inserted) != 1 {
		t.Fatalf("insert called for empty batch")
	}

	// nil stage passes through untouched.
	if got := WrapInsert(nil, next); got == nil {
		t.Fatal("WrapInsert(nil) returned nil")
	}
}
