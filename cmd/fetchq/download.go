package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/fetchq/fetchq/internal/config"
	"github.com/fetchq/fetchq/internal/downloader"
	"github.com/fetchq/fetchq/internal/model"
	"github.com/fetchq/fetchq/pool"
)

func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	dir := fs.String("dir", "", "Download directory (overrides config)")
	workers := fs.Int("workers", 0, "Number of parallel downloads (overrides config)")
	quality := fs.String("quality", "", "Quality preset: best, medium, audio (overrides config)")
	format := fs.String("format", "", "Raw yt-dlp format selector (overrides config)")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchq download [options] <url> [url...]

Download the given URLs through the bounded worker pool.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	urls := fs.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one URL is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath)
	if code != ExitSuccess {
		return code
	}
	if *dir != "" {
		cfg.DownloadDir = *dir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *quality != "" {
		cfg.Quality = *quality
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	for _, d := range []string{cfg.DownloadDir, cfg.TempDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", d, err)
			return ExitGeneralError
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[fetchq] Received interrupt, shutting down...")
		cancel()
	}()

	return downloadAll(ctx, cfg, urls)
}

func downloadAll(ctx context.Context, cfg config.Config, urls []string) int {
	logger := newLogger(cfg.Debug)

	dlOpts := downloader.Options{
		DownloadDir:    cfg.DownloadDir,
		TempDir:        cfg.TempDir,
		TempKeep:       cfg.TempKeep,
		OutputTemplate: cfg.OutputTemplate,
		Format:         cfg.Format,
		Quality:        cfg.Quality,
		Logger:         logger,
	}

	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)
	notifier := &barNotifier{bar: bar}

	worker := func(ctx context.Context, item *model.Item) (string, error) {
		return downloader.New(item, dlOpts, notifier).Run(ctx)
	}

	p := pool.New("download", cfg.Workers, worker,
		pool.WithLoadFactor(cfg.LoadFactor),
		pool.WithAcceptWindow(cfg.AcceptWindow),
		pool.WithTaskTimeout(cfg.TaskTimeout),
		pool.WithFutures(),
		pool.WithRaiseOnJoin(),
		pool.WithLogEvery(cfg.LogEveryN, int64(len(urls))),
		pool.WithLogger(logger),
	)
	p.Start()

	items := make([]*model.Item, 0, len(urls))
	futures := make([]*pool.Future[string], 0, len(urls))
	for _, u := range urls {
		item := model.NewItem(u)
		item.Folder = cfg.DownloadDir
		item.OutputTemplate = cfg.OutputTemplate
		item.Format = cfg.Format
		item.Quality = cfg.Quality

		fut, err := p.Submit(ctx, item)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error submitting %s: %v\n", u, err)
			continue
		}
		items = append(items, item)
		futures = append(futures, fut)
	}

	for i, fut := range futures {
		_, err := fut.Get()
		_ = bar.Add(1)
		printStatusLine(items[i], err)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	joinErr := p.Join(ctx)

	renderSummary(items)

	switch {
	case errors.Is(joinErr, pool.ErrTasksFailed):
		return ExitDownloadsFailed
	case joinErr != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", joinErr)
		return ExitGeneralError
	case len(items) < len(urls):
		return ExitDownloadsFailed
	}
	return ExitSuccess
}

// barNotifier pushes per-item progress into the shared bar description.
type barNotifier struct {
	bar *progressbar.ProgressBar
}

func (n *barNotifier) Updated(item *model.Item) {
	if item.Status == model.StatusDownloading {
		n.bar.Describe(fmt.Sprintf("%.0f%% %s", item.Percent, item.DisplayTitle()))
	}
}

func (n *barNotifier) Error(*model.Item, string) {}

func printStatusLine(item *model.Item, err error) {
	switch {
	case err == nil:
		colorPrintf(green, "  done  %s\n", item.DisplayTitle())
	case errors.Is(err, pool.ErrTaskTimeout):
		colorPrintf(yellow, "  timeout  %s\n", item.DisplayTitle())
	case item.Status == model.StatusCanceled:
		colorPrintf(yellow, "  canceled  %s\n", item.DisplayTitle())
	default:
		colorPrintf(red, "  failed  %s: %v\n", item.DisplayTitle(), err)
	}
}

func loadConfig(path string) (config.Config, int) {
	if path == "" {
		return config.Default(), ExitSuccess
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, ExitConfigError
	}
	return cfg, ExitSuccess
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

func colorPrintf(c *color.Color, format string, a ...any) {
	_, _ = c.Printf(format, a...)
}

func elapsedString(item *model.Item) string {
	if item.StartedAt.IsZero() || item.FinishedAt.IsZero() {
		return "-"
	}
	return item.FinishedAt.Sub(item.StartedAt).Round(time.Second).String()
}
