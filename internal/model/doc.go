package model

// Package model defines the domain data shared between the downloader, the
// pool callback, and the CLI: download items and their status transitions.
