package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fetchq/fetchq/internal/api"
	"github.com/fetchq/fetchq/internal/playlist"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	addr := fs.String("addr", "", "Listen address (overrides config)")
	dir := fs.String("dir", "", "Download directory to serve (overrides config)")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: fetchq serve [options]

Serve HLS playlists for downloaded files over HTTP.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath)
	if code != ExitSuccess {
		return code
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	if *dir != "" {
		cfg.DownloadDir = *dir
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	logger := newLogger(cfg.Debug)

	prober := playlist.NewFFProbe()
	generator := playlist.NewGenerator(
		cfg.DownloadDir,
		cfg.Serve.URLHost,
		cfg.Serve.URLPrefix,
		cfg.Serve.SegmentDuration,
		prober,
	)
	server := api.NewServer(generator, logger)

	httpServer := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("playlist server listening", slog.String("addr", cfg.Serve.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "\n[fetchq] Received interrupt, shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			return ExitGeneralError
		}
	}
	return ExitSuccess
}
