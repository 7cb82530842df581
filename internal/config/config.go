// Package config defines the canonical, JSON-serializable configuration model
// for loader jobs. It is intentionally small, explicit, and dependency-free so
// that jobs can be loaded from disk (or other sources) and passed through the
// program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in job files.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "name":    "rplace_2022",
//	  "source":  { "kind": "file", "file": { "path": "2022_place_canvas_history.csv.gz" } },
//	  "runtime": { "chunk_size": 200000, "workers": 7, "batch_size": 10000 },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "place.db", "table": "placements" } }
//	}
package config

import (
	"encoding/json"
	"os"
	"strconv"
)

// Job describes one loader job: where the event log comes from, how the run
// is tuned, and which storage backend receives the rows.
type Job struct {
	// Name identifies the job in logs and metrics.
	Name string `json:"name"`

	// Source describes where input data comes from (local file or URL).
	Source Source `json:"source"`

	// Runtime controls concurrency, chunking, and batching.
	Runtime RuntimeConfig `json:"runtime"`

	// Storage describes where event rows are written.
	Storage Storage `json:"storage"`

	// Transform configures optional per-batch filters between the parser and
	// the loader.
	Transform TransformConfig `json:"transform"`
}

// TransformConfig enables the built-in batch filters. CanvasWidth and
// CanvasHeight bound the Validate filter; both default to 2000, the 2022
// canvas size.
type TransformConfig struct {
	DeDup        bool `json:"dedup"`
	Validate     bool `json:"validate"`
	CanvasWidth  int  `json:"canvas_width"`
	CanvasHeight int  `json:"canvas_height"`
}

// RuntimeConfig controls chunking, concurrency, and batch sizes. Zero values
// defer to engine defaults and ETL-style environment overrides (see Resolve*).
type RuntimeConfig struct {
	ChunkSize int  `json:"chunk_size"`
	Workers   int  `json:"workers"`
	BatchSize int  `json:"batch_size"`
	Strict    bool `json:"strict"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`

	// Options is a free-form map for source-specific tuning.
	Options Options `json:"options"`
}

// SourceFile holds configuration for the "file" source kind. Paths ending in
// ".gz" are decompressed on the fly.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url"`
}

// Storage selects the sink used to persist event rows.
type Storage struct {
	// Kind selects the storage implementation: "sqlite" or "postgres".
	Kind string `json:"kind"`

	// DB configures the selected backend.
	DB DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the connection string (pgx pool DSN or a SQLite path/DSN).
	DSN string `json:"dsn"`

	// Table is the destination table name, e.g. "placements".
	Table string `json:"table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// GetenvInt reads an int from the environment, returning def when unset or
// invalid. Used for 12-factor overrides of runtime knobs.
func GetenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// PickInt chooses the first positive value 'a', otherwise returns 'b'.
func PickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
