package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is one unit of download work handed to the pool's worker callback.
// Progress fields are filled in by the downloader as the native process
// reports status.
type Item struct {
	ID             string
	URL            string
	Title          string
	Folder         string
	OutputTemplate string
	Format         string
	Quality        string

	Status          Status
	Percent         float64 // 0 to 100
	TotalBytes      int64
	DownloadedBytes int64
	Speed           float64 // bytes per second
	ETASec          int     // -1 when unknown
	Error           string
	Filename        string
	FileSize        int64
	IsLive          bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewItem creates a pending item for the given URL with a fresh ID.
func NewItem(url string) *Item {
	return &Item{
		ID:     uuid.NewString(),
		URL:    url,
		Status: StatusPending,
		ETASec: -1,
	}
}

// ETAString formats the ETA as mm:ss or hh:mm:ss, or "—" when unknown.
func (it *Item) ETAString() string {
	if it.ETASec <= 0 {
		return "—"
	}

	hours := it.ETASec / 3600
	minutes := (it.ETASec % 3600) / 60
	seconds := it.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// SpeedString formats the transfer speed in a human-readable unit.
func (it *Item) SpeedString() string {
	switch {
	case it.Speed <= 0:
		return "—"
	case it.Speed >= 1<<20:
		return fmt.Sprintf("%.1fMB/s", it.Speed/(1<<20))
	case it.Speed >= 1<<10:
		return fmt.Sprintf("%.1fKB/s", it.Speed/(1<<10))
	default:
		return fmt.Sprintf("%.0fB/s", it.Speed)
	}
}

// DisplayTitle returns the title, the filename, or the URL, in that order of
// preference.
func (it *Item) DisplayTitle() string {
	if it.Title != "" && !strings.HasPrefix(it.Title, "http") {
		return it.Title
	}

	if it.Filename != "" {
		parts := strings.FieldsFunc(it.Filename, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			name := parts[len(parts)-1]
			if idx := strings.LastIndex(name, "."); idx > 0 {
				name = name[:idx]
			}
			return name
		}
	}

	return it.URL
}
