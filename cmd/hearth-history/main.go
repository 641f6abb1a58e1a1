package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/noahsabaj/hearth-docs/pkg/history/github"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"github.com/sirupsen/logrus"
)

const usage = `Usage: hearth-history [flags] <section>...

Resolves the last-modified record of documentation sections.

Without --follow each section is resolved independently. With --follow the
sections are watched one after another by a single watcher; a section that is
replaced before its lookup completes is never printed.

Flags:
`

type options struct {
	tablePath string
	latency   time.Duration
	follow    bool
	interval  time.Duration
	useGitHub bool
	verbose   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.tablePath, "table", "", "YAML history table (default: built-in table)")
	flag.DurationVar(&opts.latency, "latency", history.DefaultLatency, "Simulated lookup latency")
	flag.BoolVar(&opts.follow, "follow", false, "Watch the sections in order with one watcher")
	flag.DurationVar(&opts.interval, "interval", 0, "Pause between sections with --follow")
	flag.BoolVar(&opts.useGitHub, "github", false, "Resolve from the GitHub commits API (token from GITHUB_TOKEN)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	sections := flag.Args()
	if len(sections) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, sections, os.Stdout, logger); err != nil {
		logger.WithError(err).Fatal("hearth-history failed")
	}
}

// result is one line of output
type result struct {
	Section string          `json:"section"`
	Record  *history.Record `json:"record"`
}

func run(ctx context.Context, opts options, sections []string, out io.Writer, logger *logrus.Logger) error {
	source, err := buildSource(ctx, opts, logger)
	if err != nil {
		return err
	}

	historyOpts := []history.Option{
		history.WithLatency(opts.latency),
		history.WithLogger(observability.NewLogger(observability.WarnLevel, os.Stderr)),
	}

	enc := json.NewEncoder(out)
	if opts.follow {
		return follow(ctx, history.NewWatcher(source, historyOpts...), sections, opts.interval, enc, logger)
	}
	return resolveAll(ctx, history.NewResolver(source, historyOpts...), sections, enc, logger)
}

func buildSource(ctx context.Context, opts options, logger *logrus.Logger) (history.Source, error) {
	table := history.DefaultTable()
	if opts.tablePath != "" {
		loaded, err := history.LoadTableFile(opts.tablePath)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	logger.WithFields(logrus.Fields{
		"sections": table.Len(),
		"latency":  opts.latency,
	}).Debug("history table ready")

	if !opts.useGitHub {
		return history.NewTableSource(table), nil
	}

	cfg := github.DefaultConfig()
	cfg.Token = os.Getenv("GITHUB_TOKEN")
	if cfg.Token == "" {
		logger.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub API rate limits")
	}
	return github.NewSource(github.NewClient(ctx, cfg), table), nil
}

// resolveAll resolves every section concurrently and prints them in argument order
func resolveAll(ctx context.Context, resolver *history.Resolver, sections []string, enc *json.Encoder, logger *logrus.Logger) error {
	results := make([]result, len(sections))
	errs := make([]error, len(sections))

	var wg sync.WaitGroup
	for i, id := range sections {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			rec, err := resolver.Resolve(ctx, id)
			results[i] = result{Section: id, Record: rec}
			errs[i] = err
		}(i, id)
	}
	wg.Wait()

	for i, res := range results {
		if errs[i] != nil {
			return fmt.Errorf("resolve %s: %w", res.Section, errs[i])
		}
		if res.Record == nil {
			logger.WithField("section", res.Section).Debug("section not found")
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

// follow watches each section in turn and prints every delivered update until
// the last section resolves
func follow(ctx context.Context, watcher *history.Watcher, sections []string, interval time.Duration, enc *json.Encoder, logger *logrus.Logger) error {
	defer watcher.Close()

	// Each Watch delivers at most once, so this never blocks the listener
	printed := make(chan uint64, len(sections))
	var encErr error
	watcher.OnResolve(func(u history.Update) {
		if err := enc.Encode(result{Section: u.SectionID, Record: u.Record}); err != nil && encErr == nil {
			encErr = err
		}
		printed <- u.Token
	})

	var last uint64
	for i, id := range sections {
		last = watcher.Watch(id)
		logger.WithFields(logrus.Fields{"section": id, "token": last}).Debug("watching")

		if interval > 0 && i < len(sections)-1 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	for {
		select {
		case token := <-printed:
			if token == last {
				return encErr
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
