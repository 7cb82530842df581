// Package storage contains storage-agnostic contracts and utilities for
// persisting event rows: the Repository interface, the Event row model, and a
// kind-based factory that concrete backends (SQLite, Postgres) register with
// at init time. Callers depend only on this package and select a backend by
// configuration, never by import.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
)

// Event is one placement row ready for storage. The raw user id (a long
// base64 token in the source export) is folded into a compact 64-bit key so
// per-user grouping stays cheap downstream.
type Event struct {
	Timestamp string // canonical timestamp string, stored as text
	UserKey   uint64 // xxh3 of the raw user id
	Color     string // pixel_color, e.g. "#FFFFFF"
	X         int    // coordinate x
	Y         int    // coordinate y
}

// UserKey derives the stable 64-bit key stored for a raw user id.
func UserKey(userID string) uint64 {
	return xxh3.HashString(userID)
}

// ParseCoordinate splits an "x,y" coordinate string into integers. Rectangle
// events ("x1,y1,x2,y2", used by moderation) are reduced to their first
// corner.
func ParseCoordinate(coord string) (x, y int, err error) {
	parts := strings.Split(coord, ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("coordinate %q: want x,y", coord)
	}
	x, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("coordinate %q: %w", coord, err)
	}
	y, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("coordinate %q: %w", coord, err)
	}
	return x, y, nil
}

// ColorCount is one row of a SQL-side color ranking.
type ColorCount struct {
	Color string
	Count int64
}

// Repository is the minimal storage contract the loader and query CLIs need.
type Repository interface {
	// EnsureSchema creates the destination table (and indexes) when absent.
	EnsureSchema(ctx context.Context) error

	// InsertEvents bulk-inserts a batch of events and reports how many rows
	// the backend acknowledged.
	InsertEvents(ctx context.Context, events []Event) (int64, error)

	// TopColors ranks colors by placement count for timestamps in
	// [start, end] inclusive, highest first, at most limit rows.
	TopColors(ctx context.Context, start, end string, limit int) ([]ColorCount, error)

	// Close releases the backend's resources.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind  string // registered backend kind, e.g. "sqlite", "postgres"
	DSN   string
	Table string
}

// Factory constructs a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a backend kind. Backends
// call this from init; see the storage/all package for the wiring import.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind. Unknown kinds list the registered ones
// in the error to make mis-wired binaries obvious.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	fn, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(kinds(), ", "))
	}
	return fn(ctx, cfg)
}

func kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}
