package config

// Package config loads the YAML configuration for the fetchq CLI: download
// directories, pool sizing and timing limits, and playlist server settings.
