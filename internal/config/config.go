// Package config loads and validates the demo program's configuration,
// the way the teacher's internal.TPAConfig loads TPAConfig: a TOML
// file via cleanenv, overridable by environment variables, with
// defaults baked in via struct tags and validated once at load time.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/ilyakaznacheev/cleanenv"
)

// SchedulerConfig is the root configuration for the demo program: the
// scheduler's own tunables plus the ingest source and diagnostic sink
// that drive it.
type SchedulerConfig struct {
	BufferSize int  `toml:"buffer_size" env:"BUFFER_SIZE" env-default:"10" validate:"gte=1"`
	DebugLevel int  `toml:"debug_level" env:"DEBUG_LEVEL" env-default:"1" validate:"gte=0,lte=4"`
	Show       bool `toml:"show" env:"SHOW" env-default:"false"`

	Ingest     IngestConfig     `toml:"ingest"`
	Diagnostic DiagnosticConfig `toml:"diagnostic"`
}

// IngestConfig configures the demo filesystem-watch frame source
// (mirrors the teacher's internal/ingest.Config).
type IngestConfig struct {
	Path        string   `toml:"ingest_path" env:"INGEST_PATH" validate:"required"`
	Blacklist   []string `toml:"ingest_blacklist"`
	Parallelism int      `toml:"ingest_parallelism" env:"INGEST_PARALLELISM" env-default:"1" validate:"gte=1"`
}

// DiagnosticConfig configures the demo diagnostic sink's worker pool
// and output location (mirrors the teacher's ffmpeg.Config output
// directory handling).
type DiagnosticConfig struct {
	OutputDir string `toml:"diagnostic_output_dir" env:"DIAGNOSTIC_OUTPUT_DIR" env-default:"~/.vtm/out"`
	Workers   int    `toml:"diagnostic_workers" env:"DIAGNOSTIC_WORKERS" env-default:"2" validate:"gte=1"`
}

// Load reads configPath (TOML, overridable by the env vars tagged
// above) into a SchedulerConfig, expands any `~`-prefixed path and
// validates the result, failing closed on the first bad field
// (mirrors the teacher's TPAConfig.LoadFromFile + validator pairing).
func Load(configPath string) (*SchedulerConfig, error) {
	var cfg SchedulerConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load scheduler configuration: %w", err)
	}

	expanded, err := homedir.Expand(cfg.Diagnostic.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand diagnostic output dir %q: %w", cfg.Diagnostic.OutputDir, err)
	}
	cfg.Diagnostic.OutputDir = expanded

	if expandedPath, err := homedir.Expand(cfg.Ingest.Path); err == nil {
		cfg.Ingest.Path = expandedPath
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}

	return &cfg, nil
}
