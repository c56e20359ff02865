// Command import loads a location-history export into the place store.
//
//	import -file export.json [-threshold 0.5] [-boundaries countries.geojson]
//
// Files and boundaries may be local paths or http(s) URLs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/travelrecap/travelrecap/internal/config"
	"github.com/travelrecap/travelrecap/internal/database"
	"github.com/travelrecap/travelrecap/internal/fetch"
	"github.com/travelrecap/travelrecap/internal/geo"
	"github.com/travelrecap/travelrecap/internal/importer"
	"github.com/travelrecap/travelrecap/internal/logging"
	"github.com/travelrecap/travelrecap/internal/place"
	"github.com/travelrecap/travelrecap/internal/timeline"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "export to import (path or URL)")
	threshold := flag.Float64("threshold", -1, "minimum visit probability; defaults to the configured value")
	boundaries := flag.String("boundaries", "", "country boundaries GeoJSON; defaults to the configured source")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return errors.New("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return errors.New("a database is required to import")
	}

	opts := timeline.Options{ProbabilityThreshold: cfg.Timeline.ProbabilityThreshold}
	if *threshold >= 0 {
		if *threshold > 1 {
			return fmt.Errorf("-threshold must be within [0,1], got %v", *threshold)
		}
		opts.ProbabilityThreshold = *threshold
	}
	source := cfg.Boundaries.Source
	if *boundaries != "" {
		source = *boundaries
	}

	log := logging.New(cfg.Logging, "travelrecap-import", Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrate {
		if err := database.Migrate(cfg.Database, log); err != nil {
			return err
		}
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := fetch.NewLoader(fetch.NewClient(fetch.DefaultClientConfig("import")))
	lookup := geo.LoadLookup(ctx, loader, source, log)

	data, err := loader.Load(ctx, *file)
	if err != nil {
		return err
	}

	summary, err := importer.New(importer.Config{
		Repository: place.NewPostgresRepository(pool),
		Resolver:   lookup,
		Logger:     log,
	}).ImportJSON(ctx, data, opts)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", *file).
		Int("segments", summary.Segments).
		Int("locations", summary.Locations).
		Int("visits", summary.Visits).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("import finished")
	return nil
}

