package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/idelchi/imgtree/internal/config"
	"github.com/idelchi/imgtree/internal/dirstat"
	"github.com/idelchi/imgtree/internal/history"
	"github.com/idelchi/imgtree/internal/logsink"
	"github.com/idelchi/imgtree/internal/resizer"
)

// load resolves and validates the configuration. A positional argument
// overrides the input root.
func load(v *viper.Viper, args []string) (config.Config, error) {
	if len(args) == 1 {
		v.Set(config.KeyInput, args[0])
	}

	cfg := config.Load(v)

	return cfg, cfg.Validate()
}

func newSink(cfg config.Config) (*logsink.Sink, error) {
	opts := logsink.Options{Dir: cfg.LogDir}

	if cfg.Debug {
		opts.Console = os.Stderr
		opts.Color = isatty.IsTerminal(os.Stderr.Fd())
	}

	sink, err := logsink.New(opts)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	return sink, nil
}

// startProgress prints an in-place status line on stderr until the returned
// function is called. It does nothing unless stderr is a terminal.
func startProgress(ctx context.Context, cfg config.Config, verb string, totals *dirstat.Totals, p *dirstat.Progress) func() {
	enable := cfg.Format != "json" &&
		!cfg.Debug &&
		isatty.IsTerminal(os.Stderr.Fd())

	if !enable {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	// Hide cursor for in-place updates; restore on exit.
	fmt.Fprint(os.Stderr, "\033[?25l")

	dirstat.StartProgressReporter(ctx, p, func(files, bytes int64) {
		msg := fmt.Sprintf("%s… %d/%d files, %s / %s", verb,
			files, totals.Files,
			humanize.IBytes(uint64(bytes)),        //nolint:gosec // Bytes is always positive
			humanize.IBytes(uint64(totals.Bytes)), //nolint:gosec // Bytes is always positive
		)
		fmt.Fprintf(os.Stderr, "\r\033[2K%s\r", msg)
	}, dirstat.DefaultProgressInterval)

	return func() {
		cancel()
		// Clear the status line
		fmt.Fprint(os.Stderr, "\r\033[2K\r")
		fmt.Fprint(os.Stderr, "\033[?25h")
	}
}

// survey pre-counts the input tree and logs the totals to the console.
func survey(ctx context.Context, sink *logsink.Sink, root string) (*dirstat.Totals, error) {
	totals, err := dirstat.Survey(ctx, root)
	if err != nil {
		return nil, err
	}

	sink.Debug(fmt.Sprintf("Found %s files (%s images) totaling %s under %s in %v",
		humanize.Comma(totals.Files), humanize.Comma(totals.Images),
		humanize.IBytes(uint64(totals.Bytes)), //nolint:gosec // Bytes is always positive
		root, totals.Elapsed))

	return totals, nil
}

func analyze(ctx context.Context, cfg config.Config, out io.Writer) (err error) {
	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sink.Close()) }()

	totals, err := survey(ctx, sink, cfg.Input)
	if err != nil {
		return err
	}

	analyzer := &dirstat.Analyzer{
		Log:            sink,
		Workers:        cfg.Workers,
		SkipUnreadable: cfg.SkipUnreadable,
		Progress:       &dirstat.Progress{},
	}

	var run *history.Run

	if cfg.DB != "" {
		store, err := history.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err = store.BeginRun(ctx, cfg.Input, time.Now())
		if err != nil {
			return err
		}

		analyzer.Recorder = run
	}

	stop := startProgress(ctx, cfg, "Analyzing", totals, analyzer.Progress)
	report, err := analyzer.Run(ctx, cfg.Input)
	stop()

	if err != nil {
		sink.Error(err.Error())

		return err
	}

	if run != nil {
		if err := run.Finish(ctx, report, time.Now()); err != nil {
			return err
		}
	}

	switch cfg.Format {
	case "json":
		return PrintJSON(report, out)
	case "table":
		return PrintReport(report, totals, out)
	default:
		return nil
	}
}

func resize(ctx context.Context, cfg config.Config, out io.Writer) (err error) {
	if err := cfg.ValidatePaths(); err != nil {
		return err
	}

	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sink.Close()) }()

	totals, err := survey(ctx, sink, cfg.Input)
	if err != nil {
		return err
	}

	engine := resizer.NewEngine(cfg.MaxWidth, cfg.MaxHeight)
	engine.JPEGQuality = cfg.JPEGQuality

	r := &resizer.Resizer{
		Engine: engine,
		Mapper: resizer.Mapper{
			InputRoot:  cfg.Input,
			OutputRoot: cfg.Output,
			Subfolder:  cfg.Subfolder,
		},
		Log:            sink,
		Workers:        cfg.Workers,
		SkipUnreadable: cfg.SkipUnreadable,
		Progress:       &dirstat.Progress{},
	}

	stop := startProgress(ctx, cfg, "Resizing", totals, r.Progress)
	summary, err := r.Run(ctx)
	stop()

	if err != nil {
		sink.Error(err.Error())

		return err
	}

	switch cfg.Format {
	case "json":
		return PrintJSON(summary, out)
	case "table":
		return PrintSummary(summary, totals, out)
	default:
		return nil
	}
}

func listHistory(ctx context.Context, cfg config.Config, out io.Writer) error {
	if cfg.DB == "" {
		return errors.New("--db is required")
	}

	if _, err := os.Stat(cfg.DB); err != nil {
		return fmt.Errorf("accessing history database %q: %w", cfg.DB, err)
	}

	store, err := history.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}

	switch cfg.Format {
	case "json":
		return PrintJSON(runs, out)
	case "table":
		return PrintRuns(runs, out)
	default:
		return nil
	}
}
