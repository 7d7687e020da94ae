// Package config provides unified configuration loading for tie.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/tie-engine/internal/constants"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// FileName is the config file name inside the tie directory.
const FileName = "config.yaml"

// TieConfig contains all tie configuration settings.
type TieConfig struct {
	// Analysis holds window and smoothing parameters.
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`

	// Verdict holds the correlation decision thresholds.
	Verdict VerdictConfig `json:"verdict" yaml:"verdict"`

	// Sequence controls how input sequences are read.
	Sequence SequenceConfig `json:"sequence" yaml:"sequence"`

	// Logging contains settings for operational and stage logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP configures the stdio tool server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// AnalysisConfig configures the windowed and continuous signals.
type AnalysisConfig struct {
	// WindowSize is the window width in codons.
	WindowSize int `json:"window_size" yaml:"window_size"`

	// WindowStride is the distance between window starts in codons.
	WindowStride int `json:"window_stride" yaml:"window_stride"`

	// SmoothingWidth is the moving-average width in codons.
	SmoothingWidth int `json:"smoothing_width" yaml:"smoothing_width"`

	// PeakPercentile is the volatility percentile above which samples are peaks.
	PeakPercentile float64 `json:"peak_percentile" yaml:"peak_percentile"`

	// Workers bounds parallel window evaluation; 1 runs sequentially.
	Workers int `json:"workers" yaml:"workers"`
}

// VerdictConfig configures the significance decision.
type VerdictConfig struct {
	// MaxCoefficient is the value r must fall strictly below.
	MaxCoefficient float64 `json:"max_coefficient" yaml:"max_coefficient"`

	// Alpha is the value p must fall strictly below.
	Alpha float64 `json:"alpha" yaml:"alpha"`
}

// SequenceConfig configures sequence acquisition.
type SequenceConfig struct {
	// Strict rejects any symbol outside A/C/T/G instead of dropping it.
	Strict bool `json:"strict" yaml:"strict"`

	// MaxBytes caps the decompressed input size.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// LoggingConfig configures tie's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables stage logging to ~/.tie/runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	// AllowedDirs restricts which FASTA paths tools may read. Empty means
	// the working directory only. Supports ${VAR} syntax.
	AllowedDirs []string `json:"allowed_dirs,omitempty" yaml:"allowed_dirs,omitempty"`
}

// Default returns a TieConfig with sensible defaults.
func Default() *TieConfig {
	return &TieConfig{
		Analysis: AnalysisConfig{
			WindowSize:     constants.DefaultWindowSize,
			WindowStride:   constants.DefaultWindowStride,
			SmoothingWidth: constants.DefaultSmoothingWidth,
			PeakPercentile: constants.DefaultPeakPercentile,
			Workers:        constants.DefaultWorkers,
		},
		Verdict: VerdictConfig{
			MaxCoefficient: constants.DefaultMaxCoefficient,
			Alpha:          constants.DefaultSignificanceAlpha,
		},
		Sequence: SequenceConfig{
			Strict:   false,
			MaxBytes: constants.DefaultMaxSequenceBytes,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the tie state directory: $TIE_HOME if set, else ~/.tie.
func Dir() (string, error) {
	if v := os.Getenv("TIE_HOME"); v != "" {
		return v, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tie"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.tie/config.yaml -> environment variables
func Load() (*TieConfig, error) {
	dir, err := Dir()
	if err != nil {
		config := Default()
		applyEnvOverrides(config)
		return config, nil
	}
	return LoadFrom(filepath.Join(dir, FileName))
}

// LoadFrom is Load with an explicit config file. A missing file is not an
// error; defaults and environment overrides still apply.
func LoadFrom(path string) (*TieConfig, error) {
	config := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		fileConfig, loadErr := LoadFromFile(path)
		if loadErr != nil {
			return nil, fmt.Errorf("loading config file: %w", loadErr)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*TieConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	for i, d := range config.MCP.AllowedDirs {
		config.MCP.AllowedDirs[i] = expandEnvVars(d)
	}

	return config, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(cfg *TieConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *TieConfig) Validate() error {
	// Range checks are written so that NaN fails them.
	a := c.Analysis
	if a.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be positive, got %d", ErrInvalidConfig, a.WindowSize)
	}
	if a.WindowStride <= 0 {
		return fmt.Errorf("%w: window_stride must be positive, got %d", ErrInvalidConfig, a.WindowStride)
	}
	if a.SmoothingWidth <= 0 {
		return fmt.Errorf("%w: smoothing_width must be positive, got %d", ErrInvalidConfig, a.SmoothingWidth)
	}
	if !(a.PeakPercentile >= 0 && a.PeakPercentile <= 100) {
		return fmt.Errorf("%w: peak_percentile must be between 0 and 100, got %g", ErrInvalidConfig, a.PeakPercentile)
	}
	if a.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, a.Workers)
	}

	if !(c.Verdict.MaxCoefficient >= -1 && c.Verdict.MaxCoefficient <= 1) {
		return fmt.Errorf("%w: max_coefficient must be between -1 and 1, got %g", ErrInvalidConfig, c.Verdict.MaxCoefficient)
	}
	if !(c.Verdict.Alpha > 0 && c.Verdict.Alpha < 1) {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %g", ErrInvalidConfig, c.Verdict.Alpha)
	}

	if c.Sequence.MaxBytes <= 0 {
		return fmt.Errorf("%w: max_bytes must be positive, got %d", ErrInvalidConfig, c.Sequence.MaxBytes)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: log level %s (valid: info, debug, trace, or empty for default)", ErrInvalidConfig, c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numeric values are ignored.
func applyEnvOverrides(config *TieConfig) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	setInt("TIE_WINDOW_SIZE", &config.Analysis.WindowSize)
	setInt("TIE_WINDOW_STRIDE", &config.Analysis.WindowStride)
	setInt("TIE_SMOOTHING_WIDTH", &config.Analysis.SmoothingWidth)
	setFloat("TIE_PEAK_PERCENTILE", &config.Analysis.PeakPercentile)
	setInt("TIE_WORKERS", &config.Analysis.Workers)
	setFloat("TIE_VERDICT_MAX_COEFFICIENT", &config.Verdict.MaxCoefficient)
	setFloat("TIE_VERDICT_ALPHA", &config.Verdict.Alpha)

	if v := os.Getenv("TIE_SEQUENCE_STRICT"); v != "" {
		config.Sequence.Strict = v == "true" || v == "1"
	}
	if v := os.Getenv("TIE_SEQUENCE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Sequence.MaxBytes = n
		}
	}

	if v := os.Getenv("TIE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("TIE_MCP_ALLOWED_DIRS"); v != "" {
		config.MCP.AllowedDirs = filepath.SplitList(v)
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
