package downloader

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/crypto/sha3"
	"golang.org/x/time/rate"

	"github.com/fetchq/fetchq/internal/model"
)

// How often progress notifications are let through to the Notifier.
const notifyInterval = 500 * time.Millisecond

// Options configures a Download.
type Options struct {
	// DownloadDir is where finished files land.
	DownloadDir string

	// TempDir is the parent for per-download temp directories.
	TempDir string

	// TempKeep leaves the per-download temp directory in place after the
	// download ends.
	TempKeep bool

	// OutputTemplate is the yt-dlp output template for the final file.
	OutputTemplate string

	// Format is a raw yt-dlp format selector; overrides Quality when set.
	Format string

	// Quality is a preset selector: best, medium, or audio.
	Quality string

	// Logger receives downloader diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Download runs the native yt-dlp process for one item and feeds progress
// back through a Notifier. One Download serves exactly one item.
type Download struct {
	opts     Options
	item     *model.Item
	notifier Notifier
	logger   *slog.Logger
	limiter  *rate.Limiter
	tempPath string

	mu       sync.Mutex
	cancel   context.CancelFunc
	canceled bool
}

// New creates a download for item. notifier may be nil, in which case
// updates are discarded.
func New(item *model.Item, opts Options, notifier Notifier) *Download {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Download{
		opts:     opts,
		item:     item,
		notifier: notifier,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(notifyInterval), 1),
	}
}

// Run spawns the downloader process and blocks until it exits. It returns
// the path of the downloaded file relative to the download directory.
//
// Run is intended to be the pool's worker callback: the per-task timeout
// arrives through ctx and cancels the process.
func (d *Download) Run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	d.tempPath = filepath.Join(d.opts.TempDir, tempDigest(d.item.ID))
	if err := os.MkdirAll(d.tempPath, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer d.cleanupTemp()

	d.item.Status = model.StatusPreparing
	d.item.StartedAt = time.Now()
	d.notifier.Updated(d.item)

	d.logger.Info("starting download",
		slog.String("id", d.item.ID), slog.String("url", d.item.URL))

	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		Format(formatFor(d.opts.Format, d.opts.Quality)).
		Paths(d.tempPath).
		Output(filepath.Join(d.opts.DownloadDir, d.outputTemplate()))

	dl.ProgressFunc(notifyInterval, func(update ytdlp.ProgressUpdate) {
		title := ""
		if update.Info != nil && update.Info.Title != nil {
			title = *update.Info.Title
		}
		d.applyProgress(int64(update.DownloadedBytes), int64(update.TotalBytes), update.Started, update.ETA(), title)
	})

	result, err := dl.Run(ctx, d.item.URL)
	if err != nil {
		d.finishWithError(ctx, err)
		return "", err
	}

	filename := d.finalFilename(result)
	d.item.Status = model.StatusFinished
	d.item.Percent = 100
	d.item.ETASec = 0
	d.item.FinishedAt = time.Now()
	if filename != "" {
		d.item.Filename = filename
		if info, err := os.Stat(filepath.Join(d.opts.DownloadDir, filename)); err == nil {
			d.item.FileSize = info.Size()
		}
	}
	d.notifier.Updated(d.item)

	d.logger.Info("finished download",
		slog.String("id", d.item.ID), slog.String("file", d.item.Filename))
	return d.item.Filename, nil
}

// Cancel aborts the running process. The item ends in StatusCanceled.
func (d *Download) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.canceled = true
	if d.cancel != nil {
		d.cancel()
	}
}

// IsCanceled reports whether Cancel was called.
func (d *Download) IsCanceled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canceled
}

func (d *Download) outputTemplate() string {
	if d.item.OutputTemplate != "" {
		return d.item.OutputTemplate
	}
	if d.opts.OutputTemplate != "" {
		return d.opts.OutputTemplate
	}
	return "%(title)s.%(ext)s"
}

// applyProgress maps one native progress report onto the item and notifies
// the sink, rate-limited so a chatty process does not flood it.
func (d *Download) applyProgress(downloaded, total int64, started time.Time, eta time.Duration, title string) {
	d.mu.Lock()
	d.item.Status = model.StatusDownloading
	d.item.DownloadedBytes = downloaded
	if total > 0 {
		d.item.TotalBytes = total
		d.item.Percent = float64(downloaded) / float64(total) * 100
	}
	if !started.IsZero() {
		if elapsed := time.Since(started); elapsed > 0 {
			d.item.Speed = float64(downloaded) / elapsed.Seconds()
		}
	}
	if eta > 0 {
		d.item.ETASec = int(eta.Seconds())
	} else if total > 0 && d.item.Speed > 0 {
		d.item.ETASec = int(float64(total-downloaded) / d.item.Speed)
	}
	if title != "" && d.item.Title == "" {
		d.item.Title = title
	}
	d.mu.Unlock()

	if d.limiter.Allow() {
		d.notifier.Updated(d.item)
	}
}

func (d *Download) finishWithError(ctx context.Context, err error) {
	d.item.FinishedAt = time.Now()
	if d.IsCanceled() || errors.Is(ctx.Err(), context.Canceled) {
		d.item.Status = model.StatusCanceled
		d.notifier.Updated(d.item)
		return
	}
	d.item.Status = model.StatusError
	d.item.Error = err.Error()
	d.notifier.Error(d.item, d.item.Error)
	d.logger.Error("download failed",
		slog.String("id", d.item.ID), slog.Any("error", err))
}

func (d *Download) finalFilename(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return ""
	}
	if info[0].Filename == nil {
		return ""
	}
	rel, err := filepath.Rel(d.opts.DownloadDir, *info[0].Filename)
	if err != nil {
		return filepath.Base(*info[0].Filename)
	}
	return rel
}

// cleanupTemp removes the per-download temp directory unless configuration
// or a live stream in a non-finished state says otherwise.
func (d *Download) cleanupTemp() {
	if d.opts.TempKeep || d.tempPath == "" {
		return
	}

	if d.item.Status != model.StatusFinished && d.item.IsLive {
		d.logger.Warn("keeping live temp directory",
			slog.String("path", d.tempPath), slog.String("status", d.item.Status.String()))
		return
	}

	if filepath.Clean(d.tempPath) == filepath.Clean(d.opts.TempDir) {
		d.logger.Warn("temp path equals main temp directory, not deleting",
			slog.String("path", d.tempPath))
		return
	}

	if err := os.RemoveAll(d.tempPath); err != nil {
		d.logger.Warn("failed to delete temp directory",
			slog.String("path", d.tempPath), slog.Any("error", err))
	}
}

// tempDigest derives a short stable directory name from the item ID.
func tempDigest(id string) string {
	sum := make([]byte, 5)
	sha3.ShakeSum256(sum, []byte(id))
	return hex.EncodeToString(sum)
}

// formatFor maps the quality preset onto a yt-dlp format selector. An
// explicit format wins over the preset.
func formatFor(format, quality string) string {
	if format != "" {
		return format
	}
	switch quality {
	case "audio":
		return "bestaudio/best"
	case "medium":
		return "bestvideo[height<=720]+bestaudio/best[height<=720]"
	default:
		return "bestvideo+bestaudio/best"
	}
}
