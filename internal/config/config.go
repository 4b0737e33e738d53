package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the fetchq CLI and playlist server.
type Config struct {
	DownloadDir string
	TempDir     string
	TempKeep    bool

	Workers      int
	LoadFactor   int
	AcceptWindow time.Duration
	TaskTimeout  time.Duration
	LogEveryN    int

	OutputTemplate string
	Format         string
	Quality        string

	Serve ServeConfig

	Debug bool
}

// ServeConfig defines the playlist HTTP server settings.
type ServeConfig struct {
	Addr            string
	URLHost         string
	URLPrefix       string
	SegmentDuration float64
}

// yamlConfig mirrors Config for unmarshaling, with durations as strings
// ("30m", "2h") parsed by time.ParseDuration.
type yamlConfig struct {
	DownloadDir string `yaml:"download_dir"`
	TempDir     string `yaml:"temp_dir"`
	TempKeep    *bool  `yaml:"temp_keep"`

	Workers      int    `yaml:"workers"`
	LoadFactor   int    `yaml:"load_factor"`
	AcceptWindow string `yaml:"accept_window"`
	TaskTimeout  string `yaml:"task_timeout"`
	LogEveryN    int    `yaml:"log_every_n"`

	OutputTemplate string `yaml:"output_template"`
	Format         string `yaml:"format"`
	Quality        string `yaml:"quality"`

	Serve struct {
		Addr            string  `yaml:"addr"`
		URLHost         string  `yaml:"url_host"`
		URLPrefix       string  `yaml:"url_prefix"`
		SegmentDuration float64 `yaml:"segment_duration"`
	} `yaml:"serve"`

	Debug *bool `yaml:"debug"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		DownloadDir:    "downloads",
		TempDir:        os.TempDir(),
		Workers:        2,
		LoadFactor:     1,
		OutputTemplate: "%(title)s.%(ext)s",
		Quality:        "best",
		Serve: ServeConfig{
			Addr:            ":8081",
			URLPrefix:       "/",
			SegmentDuration: 6.0,
		},
	}
}

// Load reads a YAML config file, layered over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if yc.DownloadDir != "" {
		cfg.DownloadDir = yc.DownloadDir
	}
	if yc.TempDir != "" {
		cfg.TempDir = yc.TempDir
	}
	if yc.TempKeep != nil {
		cfg.TempKeep = *yc.TempKeep
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.LoadFactor != 0 {
		cfg.LoadFactor = yc.LoadFactor
	}
	if yc.AcceptWindow != "" {
		d, err := time.ParseDuration(yc.AcceptWindow)
		if err != nil {
			return cfg, fmt.Errorf("parse accept_window: %w", err)
		}
		cfg.AcceptWindow = d
	}
	if yc.TaskTimeout != "" {
		d, err := time.ParseDuration(yc.TaskTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse task_timeout: %w", err)
		}
		cfg.TaskTimeout = d
	}
	if yc.LogEveryN != 0 {
		cfg.LogEveryN = yc.LogEveryN
	}
	if yc.OutputTemplate != "" {
		cfg.OutputTemplate = yc.OutputTemplate
	}
	if yc.Format != "" {
		cfg.Format = yc.Format
	}
	if yc.Quality != "" {
		cfg.Quality = yc.Quality
	}
	if yc.Serve.Addr != "" {
		cfg.Serve.Addr = yc.Serve.Addr
	}
	if yc.Serve.URLHost != "" {
		cfg.Serve.URLHost = yc.Serve.URLHost
	}
	if yc.Serve.URLPrefix != "" {
		cfg.Serve.URLPrefix = yc.Serve.URLPrefix
	}
	if yc.Serve.SegmentDuration != 0 {
		cfg.Serve.SegmentDuration = yc.Serve.SegmentDuration
	}
	if yc.Debug != nil {
		cfg.Debug = *yc.Debug
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.LoadFactor < 1 {
		return errors.New("load_factor must be at least 1")
	}
	if c.AcceptWindow < 0 {
		return errors.New("accept_window must not be negative")
	}
	if c.TaskTimeout < 0 {
		return errors.New("task_timeout must not be negative")
	}
	if c.DownloadDir == "" {
		return errors.New("download_dir is required")
	}
	if c.Serve.SegmentDuration <= 0 {
		return errors.New("serve.segment_duration must be positive")
	}
	return nil
}
