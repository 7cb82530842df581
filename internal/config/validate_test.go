package config

import (
	"strings"
	"testing"
)

func validJob() Job {
	return Job{
		Name:    "rplace_2022",
		Source:  Source{Kind: "file", File: SourceFile{Path: "canvas.csv"}},
		Runtime: RuntimeConfig{ChunkSize: 200000, Workers: 4, BatchSize: 10000},
		Storage: Storage{Kind: "sqlite", DB: DBConfig{DSN: "place.db", Table: "placements"}},
	}
}

func TestValidateJobOK(t *testing.T) {
	issues := ValidateJob(validJob())
	if HasErrors(issues) {
		t.Fatalf("valid job has errors: %v", issues)
	}
}

func TestValidateJob(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Job)
		wantPath string
		wantErr  bool
	}{
		{
			name:     "empty name warns",
			mutate:   func(j *Job) { j.Name = "" },
			wantPath: "name",
			wantErr:  false,
		},
		{
			name:     "file source needs path",
			mutate:   func(j *Job) { j.Source.File.Path = "" },
			wantPath: "source.file.path",
			wantErr:  true,
		},
		{
			name: "http source needs url",
			mutate: func(j *Job) {
				j.Source = Source{Kind: "http"}
			},
			wantPath: "source.http.url",
			wantErr:  true,
		},
		{
			name:     "missing source kind",
			mutate:   func(j *Job) { j.Source.Kind = "" },
			wantPath: "source.kind",
			wantErr:  true,
		},
		{
			name:     "unknown source kind",
			mutate:   func(j *Job) { j.Source.Kind = "ftp" },
			wantPath: "source.kind",
			wantErr:  true,
		},
		{
			name:     "storage needs dsn",
			mutate:   func(j *Job) { j.Storage.DB.DSN = "" },
			wantPath: "storage.db.dsn",
			wantErr:  true,
		},
		{
			name:     "storage needs table",
			mutate:   func(j *Job) { j.Storage.DB.Table = "" },
			wantPath: "storage.db.table",
			wantErr:  true,
		},
		{
			name:     "unknown storage kind",
			mutate:   func(j *Job) { j.Storage.Kind = "mongodb" },
			wantPath: "storage.kind",
			wantErr:  true,
		},
		{
			name:     "negative workers",
			mutate:   func(j *Job) { j.Runtime.Workers = -1 },
			wantPath: "runtime.workers",
			wantErr:  true,
		},
		{
			name:     "tiny chunk warns",
			mutate:   func(j *Job) { j.Runtime.ChunkSize = 10 },
			wantPath: "runtime.chunk_size",
			wantErr:  false,
		},
		{
			name:     "negative canvas width",
			mutate:   func(j *Job) { j.Transform.CanvasWidth = -5 },
			wantPath: "transform.canvas_width",
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := validJob()
			tc.mutate(&j)
			issues := ValidateJob(j)

			var found *Issue
			for i := range issues {
				if issues[i].Path == tc.wantPath {
					found = &issues[i]
					break
				}
			}
			if found == nil {
				t.Fatalf("no issue at path %q, got %v", tc.wantPath, issues)
			}
			if tc.wantErr && found.Severity != SeverityError {
				t.Errorf("issue at %q has severity %s, want error", tc.wantPath, found.Severity)
			}
			if !tc.wantErr && found.Severity != SeverityWarning {
				t.Errorf("issue at %q has severity %s, want warning", tc.wantPath, found.Severity)
			}
			if HasErrors(issues) != tc.wantErr {
				t.Errorf("HasErrors = %v, want %v", HasErrors(issues), tc.wantErr)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	i := Issue{Severity: SeverityError, Path: "storage.kind", Message: "boom"}
	s := i.Error()
	for _, part := range []string{"error", "storage.kind", "boom"} {
		if !strings.Contains(s, part) {
			t.Errorf("Error() = %q missing %q", s, part)
		}
	}
}
