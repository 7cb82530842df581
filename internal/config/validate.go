// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "source.file.path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values;
// callers decide whether to treat warnings as fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	add := func(sev IssueSeverity, path, msg string) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: msg})
	}

	if strings.TrimSpace(j.Name) == "" {
		add(SeverityWarning, "name", "job name is empty; logs and metrics will use a default")
	}

	switch j.Source.Kind {
	case "file":
		if strings.TrimSpace(j.Source.File.Path) == "" {
			add(SeverityError, "source.file.path", "path is required for source.kind=file")
		}
	case "http":
		if strings.TrimSpace(j.Source.HTTP.URL) == "" {
			add(SeverityError, "source.http.url", "url is required for source.kind=http")
		}
	case "":
		add(SeverityError, "source.kind", "source kind is required (file or http)")
	default:
		add(SeverityError, "source.kind", fmt.Sprintf("unsupported source kind %q", j.Source.Kind))
	}

	switch j.Storage.Kind {
	case "sqlite", "postgres":
		if strings.TrimSpace(j.Storage.DB.DSN) == "" {
			add(SeverityError, "storage.db.dsn", "dsn is required")
		}
		if strings.TrimSpace(j.Storage.DB.Table) == "" {
			add(SeverityError, "storage.db.table", "table is required")
		}
	case "":
		add(SeverityError, "storage.kind", "storage kind is required (sqlite or postgres)")
	default:
		add(SeverityError, "storage.kind", fmt.Sprintf("unsupported storage kind %q", j.Storage.Kind))
	}

	if j.Runtime.ChunkSize < 0 {
		add(SeverityError, "runtime.chunk_size", "chunk size must not be negative")
	}
	if j.Runtime.Workers < 0 {
		add(SeverityError, "runtime.workers", "workers must not be negative")
	}
	if j.Runtime.BatchSize < 0 {
		add(SeverityError, "runtime.batch_size", "batch size must not be negative")
	}
	if j.Runtime.ChunkSize > 0 && j.Runtime.ChunkSize < 1000 {
		add(SeverityWarning, "runtime.chunk_size", "very small chunks increase scheduling overhead")
	}

	if j.Transform.CanvasWidth < 0 {
		add(SeverityError, "transform.canvas_width", "canvas width must not be negative")
	}
	if j.Transform.CanvasHeight < 0 {
		add(SeverityError, "transform.canvas_height", "canvas height must not be negative")
	}

	return issues
}

// HasErrors reports whether any issue in the slice is of error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
