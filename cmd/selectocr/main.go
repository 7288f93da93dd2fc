// main.go: selectocr command line entry point
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	selectocr "github.com/agilira/go-selectocr"
)

var (
	configPath   string
	baseURL      string
	missingParam string
	debug        bool

	activeConfig selectocr.Config
	logger       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "selectocr",
	Short: "Recognize the text of a selected image and insert it at the selection",
	Long: `selectocr reads the image selected in a document, submits its source
reference to a recognition backend and inserts the recognized text at the
selection.

Request paths may carry {{name}} placeholders that are filled from the
request parameters before the request is sent.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		activeConfig = cfg
		logger, err = buildLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (yaml, json, toml, hcl, ini)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Recognition backend base URL")
	rootCmd.PersistentFlags().StringVar(&missingParam, "missing-param", "", "Missing path parameter policy: keep, undefined or empty")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(browseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (selectocr.Config, error) {
	cfg := selectocr.DefaultConfig()
	if configPath != "" {
		loaded, err := selectocr.LoadConfigFromFile(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyFlagOverrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *selectocr.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("missing-param") {
		cfg.PathParams.MissingParam = selectocr.MissingParamPolicy(missingParam)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
}

func buildLogger(cfg selectocr.LoggingConfig) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(level)
	return config.Build()
}
