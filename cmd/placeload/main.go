// Command placeload loads an r/place-style placement log into a SQL backend
// and can rank colors with a SQL-side query afterwards.
//
// Jobs are described by a small JSON file (see internal/config):
//
//	{
//	  "name":    "rplace_2022",
//	  "source":  { "kind": "file", "file": { "path": "2022_place_canvas_history.csv.gz" } },
//	  "runtime": { "batch_size": 10000 },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "place.db", "table": "placements" } }
//	}
//
// Modes:
//
//	placeload -config job.json              load events into storage
//	placeload -config job.json -validate    lint the job file and exit
//	placeload -config job.json -top 10 -start "2022-04-01 12" -end "2022-04-01 13"
//	                                        query the stored rows instead of loading
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"placestat/internal/config"
	"placestat/internal/datasource"
	"placestat/internal/datasource/file"
	"placestat/internal/datasource/httpds"
	"placestat/internal/metrics"
	"placestat/internal/parser/csv"
	"placestat/internal/report"
	"placestat/internal/storage"
	_ "placestat/internal/storage/all"
	"placestat/internal/timefmt"
	"placestat/internal/transform"
)

const defaultBatchSize = 10_000

func main() {
	var (
		configPath string
		validate   bool
		topFlg     int
		startFlg   string
		endFlg     string
	)

	flag.StringVar(&configPath, "config", "", "path to the job JSON file (required)")
	flag.BoolVar(&validate, "validate", false, "validate the job file and exit")
	flag.IntVar(&topFlg, "top", 0, "query mode: rank the top N colors instead of loading")
	flag.StringVar(&startFlg, "start", "", "query mode: start of the range (YYYY-MM-DD HH, inclusive)")
	flag.StringVar(&endFlg, "end", "", "query mode: end of the range (YYYY-MM-DD HH, inclusive)")
	flag.Parse()

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: placeload -config <job.json> [-validate] [-top N -start ... -end ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	job, err := loadJob(configPath)
	if err != nil {
		fatalf("config: %v", err)
	}

	issues := config.ValidateJob(job)
	for _, is := range issues {
		log.Printf("config: %s", is.Error())
	}
	if config.HasErrors(issues) {
		fatalf("config: %s has errors", configPath)
	}
	if validate {
		fmt.Printf("%s: ok (%d warnings)\n", configPath, len(issues))
		return
	}

	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{
		Kind:  job.Storage.Kind,
		DSN:   job.Storage.DB.DSN,
		Table: job.Storage.DB.Table,
	})
	if err != nil {
		fatalf("storage: %v", err)
	}
	defer repo.Close()

	if topFlg > 0 {
		if err := queryTopColors(ctx, repo, startFlg, endFlg, topFlg); err != nil {
			fatalf("query: %v", err)
		}
		return
	}

	if err := runLoad(ctx, job, repo); err != nil {
		fatalf("load: %v", err)
	}
}

// runLoad streams events from the job source through the CSV parser into the
// batched loader. Parse errors on individual rows are dropped with a log line;
// source and storage errors abort the run.
func runLoad(ctx context.Context, job config.Job, repo storage.Repository) error {
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	src, err := openSource(ctx, job.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	batchSize := config.PickInt(job.Runtime.BatchSize, config.GetenvInt("PLACELOAD_BATCH_SIZE", defaultBatchSize))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan storage.Event, batchSize)
	var dropped int64
	parseErrs := make(chan error, 1)

	go func() {
		defer close(events)
		err := csv.StreamEvents(ctx, src, events, func(line int, err error) {
			dropped++
			if dropped <= 5 {
				log.Printf("parser: line=%d dropped: %v", line, err)
			}
		})
		parseErrs <- err
	}()

	insertFn := repo.InsertEvents
	var validate *transform.Validate
	var chain transform.Chain
	if job.Transform.DeDup {
		chain = append(chain, transform.DeDup{})
	}
	if job.Transform.Validate {
		w := config.PickInt(job.Transform.CanvasWidth, 2000)
		h := config.PickInt(job.Transform.CanvasHeight, 2000)
		validate = transform.NewValidate(w, h)
		chain = append(chain, validate)
	}
	if len(chain) > 0 {
		insertFn = transform.WrapInsert(chain, insertFn)
	}

	start := time.Now()
	total, err := storage.LoadBatches(ctx, events, batchSize, insertFn)
	elapsed := time.Since(start)

	metrics.RecordStep(job.Name, "load", err, elapsed)
	metrics.RecordRows(job.Name, "inserted", total)
	if flushErr := metrics.Flush(); flushErr != nil {
		log.Printf("metrics: flush error: %v", flushErr)
	}

	if err != nil {
		cancel()
		<-parseErrs
		return err
	}
	if perr := <-parseErrs; perr != nil {
		return fmt.Errorf("stream: %w", perr)
	}

	log.Printf("job=%s inserted=%d dropped=%d elapsed=%s", job.Name, total, dropped, elapsed.Truncate(time.Millisecond))
	if validate != nil {
		log.Printf("job=%s pixels_touched=%d out_of_bounds=%d", job.Name, validate.PixelsTouched(), validate.Dropped())
	}
	return nil
}

func queryTopColors(ctx context.Context, repo storage.Repository, start, end string, limit int) error {
	if start == "" || end == "" {
		return fmt.Errorf("-top requires -start and -end")
	}
	rng, err := timefmt.NewRange(start, end)
	if err != nil {
		return err
	}

	rows, err := repo.TopColors(ctx, rng.Start, rng.End, limit)
	if err != nil {
		return err
	}

	r := report.New(os.Stdout)
	r.ColorCounts(fmt.Sprintf("Top %d Colors (%s to %s)", limit, rng.Start, rng.End), rows)
	return nil
}

func openSource(ctx context.Context, src config.Source) (io.ReadCloser, error) {
	var ds datasource.Source
	switch src.Kind {
	case "file":
		ds = file.NewLocal(src.File.Path)
	case "http":
		ds = httpds.NewRemote(src.HTTP.URL, httpds.Config{})
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
	return ds.Open(ctx)
}

func loadJob(path string) (config.Job, error) {
	var job config.Job
	b, err := os.ReadFile(path)
	if err != nil {
		return job, err
	}
	if err := json.Unmarshal(b, &job); err != nil {
		return job, fmt.Errorf("parse %s: %w", path, err)
	}
	return job, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
