// Package config loads typocorpus settings from defaults, a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
	"github.com/Sumatoshi-tech/typocorpus/internal/observability"
	"github.com/Sumatoshi-tech/typocorpus/pkg/linediff"
)

// Config is the top-level configuration struct for typocorpus.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Mining        MiningConfig        `mapstructure:"mining"`
	Batch         BatchConfig         `mapstructure:"batch"`
	Output        OutputConfig        `mapstructure:"output"`
	Log           LogConfig           `mapstructure:"log"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// MiningConfig holds commit filtering and diffing knobs.
type MiningConfig struct {
	MaxChars         int     `mapstructure:"max_chars"`
	MinPairs         int     `mapstructure:"min_pairs"`
	MaxPairs         int     `mapstructure:"max_pairs"`
	MessageMarker    string  `mapstructure:"message_marker"`
	SampleModulus    uint64  `mapstructure:"sample_modulus"`
	MessageLength    int     `mapstructure:"message_length"`
	SkipVendored     bool    `mapstructure:"skip_vendored"`
	SimilarityCutoff float64 `mapstructure:"similarity_cutoff"`
	MaxReplaceDepth  int     `mapstructure:"max_replace_depth"`
	DiffTimeout      string  `mapstructure:"diff_timeout"`
}

// BatchConfig holds repository processing knobs.
type BatchConfig struct {
	Workers    int     `mapstructure:"workers"`
	WorkDir    string  `mapstructure:"work_dir"`
	CloneRate  float64 `mapstructure:"clone_rate"`
	CloneBurst int     `mapstructure:"clone_burst"`
	StateDB    string  `mapstructure:"state_db"`
}

// OutputConfig describes where records go. Path "-" is stdout.
type OutputConfig struct {
	Path     string `mapstructure:"path"`
	Compress bool   `mapstructure:"compress"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxChars indicates the size guard is not positive.
	ErrInvalidMaxChars = errors.New("mining.max_chars must be positive")
	// ErrInvalidMinPairs indicates the lower pair bound is not positive.
	ErrInvalidMinPairs = errors.New("mining.min_pairs must be positive")
	// ErrInvalidMaxPairs indicates the upper pair bound is below the lower one.
	ErrInvalidMaxPairs = errors.New("mining.max_pairs must be at least mining.min_pairs")
	// ErrInvalidMessageLength indicates the message length is not positive.
	ErrInvalidMessageLength = errors.New("mining.message_length must be positive")
	// ErrInvalidCutoff indicates the similarity cutoff is out of range.
	ErrInvalidCutoff = errors.New("mining.similarity_cutoff must be in (0, 1]")
	// ErrInvalidReplaceDepth indicates the replace depth bound is not positive.
	ErrInvalidReplaceDepth = errors.New("mining.max_replace_depth must be positive")
	// ErrInvalidDiffTimeout indicates the diff timeout does not parse or is negative.
	ErrInvalidDiffTimeout = errors.New("mining.diff_timeout must be a non-negative duration")
	// ErrInvalidWorkers indicates the workers value is not positive.
	ErrInvalidWorkers = errors.New("batch.workers must be positive")
	// ErrInvalidWorkDir indicates the work directory is empty.
	ErrInvalidWorkDir = errors.New("batch.work_dir must not be empty")
	// ErrInvalidCloneRate indicates the clone rate is negative.
	ErrInvalidCloneRate = errors.New("batch.clone_rate must be non-negative")
	// ErrInvalidCloneBurst indicates the clone burst is not positive.
	ErrInvalidCloneBurst = errors.New("batch.clone_burst must be positive")
	// ErrInvalidOutputPath indicates the output path is empty.
	ErrInvalidOutputPath = errors.New("output.path must not be empty")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be debug, info, warn or error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	miningErr := c.validateMining()
	if miningErr != nil {
		return miningErr
	}

	batchErr := c.validateBatch()
	if batchErr != nil {
		return batchErr
	}

	if c.Output.Path == "" {
		return ErrInvalidOutputPath
	}

	_, levelErr := c.LogLevel()

	return levelErr
}

func (c *Config) validateMining() error {
	m := c.Mining

	switch {
	case m.MaxChars <= 0:
		return ErrInvalidMaxChars
	case m.MinPairs <= 0:
		return ErrInvalidMinPairs
	case m.MaxPairs < m.MinPairs:
		return ErrInvalidMaxPairs
	case m.MessageLength <= 0:
		return ErrInvalidMessageLength
	case m.SimilarityCutoff <= 0 || m.SimilarityCutoff > 1:
		return ErrInvalidCutoff
	case m.MaxReplaceDepth <= 0:
		return ErrInvalidReplaceDepth
	}

	_, err := c.diffTimeout()

	return err
}

func (c *Config) validateBatch() error {
	b := c.Batch

	switch {
	case b.Workers <= 0:
		return ErrInvalidWorkers
	case b.WorkDir == "":
		return ErrInvalidWorkDir
	case b.CloneRate < 0:
		return ErrInvalidCloneRate
	case b.CloneBurst <= 0:
		return ErrInvalidCloneBurst
	}

	return nil
}

func (c *Config) diffTimeout() (time.Duration, error) {
	if c.Mining.DiffTimeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Mining.DiffTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDiffTimeout, err)
	}

	if d < 0 {
		return 0, ErrInvalidDiffTimeout
	}

	return d, nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Log.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	return level, nil
}

// MinerConfig converts the mining section. The config must be valid.
func (c *Config) MinerConfig() mining.Config {
	timeout, _ := c.diffTimeout()

	return mining.Config{
		MinPairs:      c.Mining.MinPairs,
		MaxPairs:      c.Mining.MaxPairs,
		MessageMarker: c.Mining.MessageMarker,
		SampleModulus: c.Mining.SampleModulus,
		MessageLength: c.Mining.MessageLength,
		SkipVendored:  c.Mining.SkipVendored,
		Diff: linediff.Options{
			MaxChars: c.Mining.MaxChars,
			Cutoff:   c.Mining.SimilarityCutoff,
			MaxDepth: c.Mining.MaxReplaceDepth,
			Timeout:  timeout,
		},
	}
}

// TelemetryConfig converts the log and observability sections.
func (c *Config) TelemetryConfig(version, runID string) observability.Config {
	level, _ := c.LogLevel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.RunID = runID
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.Prometheus = c.Observability.MetricsAddr != ""
	cfg.LogLevel = level
	cfg.LogJSON = c.Log.JSON

	return cfg
}
