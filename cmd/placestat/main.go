// Command placestat aggregates an r/place-style placement log: it counts
// color and coordinate frequencies for an inclusive time range using the
// parallel chunked engine, then prints ranked tables.
//
// Usage:
//
//	placestat -start "2022-04-01 13" -end "2022-04-01 15" 2022_place_canvas_history.csv.gz
//
// The input may be plain CSV or gzipped (".gz"). Range bounds are given at
// hour granularity and normalized to the canonical timestamp format before
// filtering.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"placestat/internal/analyze"
	"placestat/internal/config"
	"placestat/internal/datasource/file"
	"placestat/internal/metrics"
	"placestat/internal/metrics/datadog"
	"placestat/internal/metrics/prompush"
	"placestat/internal/report"
	"placestat/internal/timefmt"
)

func main() {
	var (
		startFlg          string
		endFlg            string
		topFlg            int
		chunkFlg          int
		workersFlg        int
		strictFlg         bool
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
	)

	flag.StringVar(&startFlg, "start", "", "start of the range (YYYY-MM-DD HH, inclusive)")
	flag.StringVar(&endFlg, "end", "", "end of the range (YYYY-MM-DD HH, inclusive)")
	flag.IntVar(&topFlg, "top", 10, "number of entries per ranking")
	flag.IntVar(&chunkFlg, "chunk-size", 0, "lines per chunk (0 = default)")
	flag.IntVar(&workersFlg, "workers", 0, "parallel chunk workers (0 = CPUs-1)")
	flag.BoolVar(&strictFlg, "strict", false, "fail on malformed records instead of skipping them")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	if flag.NArg() != 1 || startFlg == "" || endFlg == "" {
		fmt.Fprintln(os.Stderr, "usage: placestat -start \"YYYY-MM-DD HH\" -end \"YYYY-MM-DD HH\" [flags] <csv file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	rng, err := timefmt.NewRange(startFlg, endFlg)
	if err != nil {
		fatalf("invalid range: %v", err)
	}

	setupMetrics("placestat", metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, *verbose)

	opt := analyze.Options{
		ChunkSize: config.PickInt(chunkFlg, config.GetenvInt("PLACESTAT_CHUNK_SIZE", 0)),
		Workers:   config.PickInt(workersFlg, config.GetenvInt("PLACESTAT_WORKERS", 0)),
		Strict:    strictFlg,
	}

	ctx := context.Background()
	fmt.Printf("Analyzing colors between %s and %s...\n", rng.Start, rng.End)

	src, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		fatalf("source open: %v", err)
	}
	defer src.Close()

	start := time.Now()
	res, err := analyze.Aggregate(ctx, src, rng.Start, rng.End, opt)
	elapsed := time.Since(start)

	metrics.RecordStep("placestat", "aggregate", err, elapsed)
	if err != nil {
		metricsFlush()
		fatalf("aggregate: %v", err)
	}
	metrics.RecordRows("placestat", "lines", int64(res.Lines))
	metrics.RecordRows("placestat", "matched", int64(res.Matched))
	metrics.RecordRows("placestat", "skipped", int64(res.Skipped))
	metricsFlush()

	if *verbose {
		log.Printf("summary: lines=%d matched=%d skipped=%d colors=%d coords=%d elapsed=%s",
			res.Lines, res.Matched, res.Skipped, res.Colors.Len(), res.Coords.Len(),
			elapsed.Truncate(time.Millisecond))
	}

	r := report.New(os.Stdout)
	r.Ranking("Color Rankings by Placements", analyze.TopK(res.Colors, topFlg))
	r.Ranking("Pixel Rankings by Placements", analyze.TopK(res.Coords, topFlg))

	fmt.Printf("\n- Timeframe: %s to %s\n", rng.Start, rng.End)
	fmt.Printf("- Execution Time: %d ms\n", elapsed.Milliseconds())

	topColor, colorErr := analyze.Max(res.Colors)
	topCoord, coordErr := analyze.Max(res.Coords)
	if colorErr == nil && coordErr == nil {
		r.Summary(&topColor, &topCoord)
	} else {
		fmt.Println("- No placements in range")
	}
}

// setupMetrics installs the requested metrics backend. Decisions follow
// flag → env → default, and a backend that fails to initialize degrades to
// the no-op backend with a log line rather than aborting the run.
func setupMetrics(job, backendName, gwURL, ddAddr string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, job)
		}
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr, Namespace: "placestat."})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: backend=datadog addr=%s", ddAddr)
		}
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func metricsFlush() {
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
