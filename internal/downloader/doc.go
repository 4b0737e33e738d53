// Package downloader wraps the native yt-dlp binary: it runs one process
// per queued item, maps its progress reports onto the item model, and
// manages the per-download temp directory.
package downloader
