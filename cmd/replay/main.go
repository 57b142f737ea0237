package main

import (
	"context"
	"crossline/internal/config"
	"crossline/internal/logger"
	"crossline/internal/repository"
	"crossline/internal/repository/sqlite"
	"crossline/internal/service"
	"crossline/internal/service/dispatch"
	"crossline/internal/source"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"
)

func main() {
	input := flag.String("input", "-", "JSONL file with one frame per line, - for stdin")
	dryRun := flag.Bool("dry-run", false, "Log valve codes instead of calling the actuator")
	actuator := flag.String("actuator", "", "Actuator base URL (overrides ACTUATOR_URL)")
	band := flag.Int("band", 0, "Band half-width in pixels (overrides BAND_HALF_WIDTH)")
	workers := flag.Int("workers", -1, "Dispatch workers, 0 dispatches inline (overrides DISPATCH_WORKERS)")
	dbPath := flag.String("db", "", "Store the dispatch audit in this sqlite database")
	logDir := flag.String("logs", "", "Write log files to this directory instead of stderr only")
	flag.Parse()

	cfg := config.Load()
	if *actuator != "" {
		cfg.ActuatorURL = *actuator
	}
	if *band > 0 {
		cfg.BandHalfWidth = *band
	}
	if *workers >= 0 {
		cfg.DispatchWorkers = *workers
	}

	var lg *logger.Logger
	if *logDir != "" {
		cfg.LogDirectory = *logDir
		lg = logger.NewLogger(cfg)
	} else {
		lg = logger.NewWriterLogger(os.Stderr)
	}

	var reader io.Reader = os.Stdin
	if *input != "-" {
		file, err := os.Open(*input)
		if err != nil {
			log.Fatalf("Failed to open input: %v", err)
		}
		defer file.Close()
		reader = file
	}

	var repo repository.DispatchRepository
	if *dbPath != "" {
		db, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		repo = sqlite.NewDispatchRepository(db)
	}

	var sender dispatch.Sender
	if *dryRun {
		sender = dispatch.NewDryRun(lg)
	} else {
		sender = dispatch.NewClient(cfg, lg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := service.NewSession(cfg, lg, sender, repo, nil)
	lines := source.NewLineSource(reader, lg)

	fmt.Printf("Replaying %s against %s\n", *input, describeTarget(cfg, *dryRun))

	runErr := session.Run(ctx, lines)

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Close(drainCtx); err != nil {
		lg.Warning("Dispatch drain incomplete: %v", err)
	}

	printSummary(session.Stats(), lines.Skipped())

	if runErr != nil {
		log.Fatalf("Replay stopped: %v", runErr)
	}
}

func describeTarget(cfg *config.Config, dryRun bool) string {
	if dryRun {
		return "dry-run actuator"
	}
	return cfg.ActuatorURL
}

func printSummary(stats service.Stats, skipped int) {
	fmt.Printf("\n📊 Replay summary (session %s)\n", stats.SessionID)
	if stats.Geometry != nil {
		fmt.Printf("   Geometry: %s\n", stats.Geometry)
	}
	fmt.Printf("   Frames: %d processed, %d rejected, %d unparsable line(s)\n",
		stats.FramesProcessed, stats.FramesRejected, skipped)
	fmt.Printf("   Tracks: %d seen, %d dispatched\n", stats.Tracks, stats.DispatchedTracks)
	fmt.Printf("   Dispatches: %d ok, %d failed\n", stats.Succeeded, stats.Failed)

	classes := make([]int, 0, len(stats.Counters))
	for classID := range stats.Counters {
		classes = append(classes, classID)
	}
	sort.Ints(classes)

	if len(classes) > 0 {
		fmt.Printf("   Per class:\n")
	}
	for _, classID := range classes {
		c := stats.Counters[classID]
		fmt.Printf("      - class %d: total %d, left %d, right %d\n", classID, c.Total, c.Left, c.Right)
	}
}
