package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tie-engine/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tie configuration",
		Long: `View and modify tie configuration settings.

Configuration is stored in ~/.tie/config.yaml ($TIE_HOME/config.yaml when set).

Examples:
  tie config list                            # Show all settings
  tie config get analysis.window_size        # Get a specific setting
  tie config set analysis.window_size 200    # Set a setting
  tie config set mcp.allowed_dirs ~/genomes:/srv/fasta`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

// configKeys lists every settable key in display order.
var configKeys = []string{
	"analysis.window_size",
	"analysis.window_stride",
	"analysis.smoothing_width",
	"analysis.peak_percentile",
	"analysis.workers",
	"verdict.max_coefficient",
	"verdict.alpha",
	"sequence.strict",
	"sequence.max_bytes",
	"logging.level",
	"mcp.allowed_dirs",
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			path, _ := configPath(cmd)
			fmt.Fprintf(out, "Configuration (%s):\n\n", path)
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(out, "  %-26s %v\n", key+":", value)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not
			// persisted by accident.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return err
				}
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// configPath returns --config or the default file location.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.Path()
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.TieConfig, key string) (interface{}, bool) {
	switch key {
	case "analysis.window_size":
		return cfg.Analysis.WindowSize, true
	case "analysis.window_stride":
		return cfg.Analysis.WindowStride, true
	case "analysis.smoothing_width":
		return cfg.Analysis.SmoothingWidth, true
	case "analysis.peak_percentile":
		return cfg.Analysis.PeakPercentile, true
	case "analysis.workers":
		return cfg.Analysis.Workers, true
	case "verdict.max_coefficient":
		return cfg.Verdict.MaxCoefficient, true
	case "verdict.alpha":
		return cfg.Verdict.Alpha, true
	case "sequence.strict":
		return cfg.Sequence.Strict, true
	case "sequence.max_bytes":
		return cfg.Sequence.MaxBytes, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "mcp.allowed_dirs":
		return strings.Join(cfg.MCP.AllowedDirs, string(filepath.ListSeparator)), true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key. Range
// checks are left to Validate.
func setConfigValue(cfg *config.TieConfig, key, value string) error {
	parseInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		*dst = n
		return nil
	}
	parseFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		*dst = f
		return nil
	}

	switch key {
	case "analysis.window_size":
		return parseInt(&cfg.Analysis.WindowSize)
	case "analysis.window_stride":
		return parseInt(&cfg.Analysis.WindowStride)
	case "analysis.smoothing_width":
		return parseInt(&cfg.Analysis.SmoothingWidth)
	case "analysis.peak_percentile":
		return parseFloat(&cfg.Analysis.PeakPercentile)
	case "analysis.workers":
		return parseInt(&cfg.Analysis.Workers)
	case "verdict.max_coefficient":
		return parseFloat(&cfg.Verdict.MaxCoefficient)
	case "verdict.alpha":
		return parseFloat(&cfg.Verdict.Alpha)
	case "sequence.strict":
		cfg.Sequence.Strict = value == "true" || value == "1"
	case "sequence.max_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		cfg.Sequence.MaxBytes = n
	case "logging.level":
		cfg.Logging.Level = value
	case "mcp.allowed_dirs":
		cfg.MCP.AllowedDirs = nil
		for _, d := range filepath.SplitList(value) {
			if d != "" {
				cfg.MCP.AllowedDirs = append(cfg.MCP.AllowedDirs, d)
			}
		}
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
