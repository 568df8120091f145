package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"property-analyser/config"
	"property-analyser/models"
	"property-analyser/scraper/portal"
	"property-analyser/services"
	"property-analyser/storage"
	"property-analyser/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerTo(utils.ParseLevel(cfg.LogLevel), os.Stdout, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "generate":
			if err := generate(args[1:], logger); err != nil {
				logger.Error("Generate failed: %v", err)
				os.Exit(1)
			}
			return
		case "analyze":
			args = args[1:]
		case "-h", "--help", "help":
			usage(os.Stdout)
			return
		}
	}

	if err := cfg.ApplyArgs(args); err != nil {
		logger.Error("Invalid arguments: %v", err)
		usage(os.Stderr)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(2)
	}

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error("Analysis failed: %v", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  property-analyser [analyze] [<input_file_path> <output_file_path>]")
	fmt.Fprintln(w, "  property-analyser generate [-rows N] [-seed S] [-out path]")
}

// run loads listings from the configured source, ranks suburbs and writes the
// report to every configured sink. The JSON report is required; other sinks
// only log their failures.
func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, out io.Writer) error {
	logger.Info("=== Property Analyser starting ===")
	logger.Info("Config: source=%s | concurrency=%d | postgres=%t",
		cfg.ListingSource, cfg.MaxConcurrency, cfg.PostgresEnabled)

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
		pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retry)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer pw.Close()
		pgWriter = pw
	}

	listings, err := loadListings(ctx, cfg, logger, pgWriter)
	if err != nil {
		return err
	}
	logger.Info("Loaded %d records.", len(listings))

	if pgWriter != nil && cfg.ListingSource != config.SourcePostgres {
		if err := pgWriter.Write(listings); err != nil {
			logger.Error("PostgreSQL listing write failed: %v", err)
		} else {
			logger.Info("Listings stored in PostgreSQL (table: listings)")
		}
	}

	start := time.Now()
	reports := services.NewAnalysisService(logger, cfg.MaxConcurrency).Analyze(listings)
	logger.Info("Analysis complete in %d ms, %d suburbs reported.",
		time.Since(start).Milliseconds(), len(reports))

	if err := storage.NewJSONWriter(cfg.OutputPath).WriteReports(reports); err != nil {
		return err
	}
	logger.Info("Report written to %s", cfg.OutputPath)

	for _, s := range extraSinks(cfg, logger, pgWriter) {
		if err := s.sink.WriteReports(reports); err != nil {
			logger.Error("%s report write failed: %v", s.name, err)
			continue
		}
		logger.Info("Report written to %s", s.name)
	}

	services.NewReportPrinter(out).Print(reports)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.Info("Memory obtained from OS: %.2f MB", float64(mem.Sys)/1024/1024)
	return nil
}

func loadListings(ctx context.Context, cfg *config.Config, logger *utils.Logger, pg *storage.PostgresWriter) ([]*models.Listing, error) {
	var src storage.RawListingSource
	switch cfg.ListingSource {
	case config.SourcePostgres:
		listings, err := pg.FetchAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load listings from PostgreSQL: %w", err)
		}
		return listings, nil
	case config.SourcePortal:
		src = portal.New(cfg, logger)
	default:
		logger.Info("Loading data from %s...", cfg.InputPath)
		src = storage.NewCSVReader(cfg.InputPath)
	}

	raw, err := src.FetchRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	return services.NewCleaner(logger).Clean(raw), nil
}

type namedSink struct {
	name string
	sink storage.ReportSink
}

// extraSinks returns the optional report sinks enabled by cfg.
func extraSinks(cfg *config.Config, logger *utils.Logger, pg *storage.PostgresWriter) []namedSink {
	var sinks []namedSink
	if cfg.ReportCSVPath != "" {
		w, err := storage.NewCSVWriter(cfg.ReportCSVPath)
		if err != nil {
			logger.Error("CSV report disabled: %v", err)
		} else {
			sinks = append(sinks, namedSink{cfg.ReportCSVPath, &closingSink{w: w}})
		}
	}
	if pg != nil {
		sinks = append(sinks, namedSink{"PostgreSQL (run " + pg.RunID() + ")", pg})
	}
	return sinks
}

// closingSink closes the CSV file once the reports are written.
type closingSink struct {
	w *storage.CSVWriter
}

func (c *closingSink) WriteReports(reports []models.SuburbReport) error {
	if err := c.w.WriteReports(reports); err != nil {
		_ = c.w.Close()
		return err
	}
	return c.w.Close()
}

func generate(args []string, logger *utils.Logger) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	rows := fs.Int("rows", 1_000_000, "number of listings to generate")
	seed := fs.Int64("seed", 42, "random seed")
	outPath := fs.String("out", "data/listings.csv", "output CSV path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	w, err := storage.NewCSVWriter(*outPath)
	if err != nil {
		return err
	}

	logger.Info("Generating %d rows of mock data...", *rows)
	// header only, so an empty run still yields a readable file
	if err := w.Write(nil); err != nil {
		_ = w.Close()
		return err
	}
	gen := services.NewGenerator(*seed)
	const chunk = 100_000
	for written := 0; written < *rows; {
		n := chunk
		if *rows-written < n {
			n = *rows - written
		}
		if err := w.Write(gen.Generate(n)); err != nil {
			_ = w.Close()
			return err
		}
		written += n
		logger.Info("  ...wrote %d rows", written)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("csv: close: %w", err)
	}
	logger.Info("Successfully created %s", *outPath)
	return nil
}
