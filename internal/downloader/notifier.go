package downloader

import "github.com/fetchq/fetchq/internal/model"

// Notifier receives item status updates from a running download. It is
// supplied by the caller; the downloader never interprets what the sink
// does with them.
type Notifier interface {
	Updated(item *model.Item)
	Error(item *model.Item, msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Updated(*model.Item)       {}
func (NopNotifier) Error(*model.Item, string) {}
