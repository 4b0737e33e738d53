package model

// Status represents the lifecycle state of a download item.
type Status string

const (
	// StatusPending means the item is queued but not picked up yet.
	StatusPending Status = "pending"

	// StatusPreparing means the downloader process is starting up.
	StatusPreparing Status = "preparing"

	// StatusDownloading means the transfer is in progress.
	StatusDownloading Status = "downloading"

	// StatusFinished means the download completed successfully.
	StatusFinished Status = "finished"

	// StatusError means the download failed.
	StatusError Status = "error"

	// StatusCanceled means the download was canceled by the caller.
	StatusCanceled Status = "canceled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the item is being worked on.
func (s Status) IsActive() bool {
	return s == StatusPreparing || s == StatusDownloading
}

// IsTerminal reports whether the item reached a final state.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError || s == StatusCanceled
}
