package playlist

// Package playlist renders HLS VOD playlists for downloaded media files,
// using ffprobe for duration and codec metadata.
