// config_loader.go: Multi-format configuration loading and hot reload with Argus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// LoadConfigFromFile loads a Config from path.
//
// The format is detected from the file extension by Argus. YAML is decoded
// with gopkg.in/yaml.v3; JSON, TOML, HCL, INI and properties files are parsed
// by Argus and bound through JSON. Durations may be written as "5s" in every
// format; flat formats nest fields with dotted keys or INI sections. The
// result is validated and defaulted.
//
// Example usage:
//
//	cfg, err := selectocr.LoadConfigFromFile("selectocr.yaml")
//	if err != nil {
//	    log.Fatalf("Failed to load config: %v", err)
//	}
func LoadConfigFromFile(path string) (Config, error) {
	var cfg Config

	cleanPath, err := cleanConfigPath(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is cleaned and validated above
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, NewConfigNotFoundError(cleanPath)
		}
		return cfg, NewConfigParseError(cleanPath, err)
	}

	if err := parseConfigBytes(data, argus.DetectFormat(cleanPath), &cfg); err != nil {
		return cfg, NewConfigParseError(cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func cleanConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", NewConfigValidationError("empty configuration path", nil)
	}
	if strings.Contains(path, "\x00") {
		return "", NewConfigValidationError("null byte in configuration path", nil)
	}
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewConfigNotFoundError(cleanPath)
		}
		return "", NewConfigParseError(cleanPath, err)
	}
	if info.IsDir() {
		return "", NewConfigValidationError("configuration path is a directory", nil)
	}
	return cleanPath, nil
}

// parseConfigBytes uses yaml.v3 for YAML and Argus for every other format.
func parseConfigBytes(data []byte, format argus.ConfigFormat, cfg *Config) error {
	if format == argus.FormatYAML {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
		return nil
	}

	configMap, err := argus.ParseConfig(data, format)
	if err != nil {
		return err
	}
	return bindConfig(configMap, cfg)
}

// durationKeys are the Config fields decoded as time.Duration. Only YAML
// understands "5s" natively, so string values are converted before binding.
var durationKeys = map[string]bool{
	"idle_timeout":       true,
	"connection_timeout": true,
	"request_timeout":    true,
	"poll_interval":      true,
	"cache_ttl":          true,
}

// bindConfig converts a parsed map into Config through JSON.
func bindConfig(configMap map[string]interface{}, cfg *Config) error {
	if configMap == nil {
		return fmt.Errorf("configuration map is nil")
	}
	normalized := nestDottedKeys(configMap)
	if err := convertDurations(normalized); err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to marshal config map to JSON: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// nestDottedKeys turns the flat "connection.request_timeout" keys produced by
// the Argus TOML, INI and properties parsers into nested maps.
func nestDottedKeys(flat map[string]interface{}) map[string]interface{} {
	nested := make(map[string]interface{}, len(flat))
	for key, value := range flat {
		if child, ok := value.(map[string]interface{}); ok {
			value = nestDottedKeys(child)
		}
		parts := strings.Split(key, ".")
		target := nested
		for _, part := range parts[:len(parts)-1] {
			child, ok := target[part].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				target[part] = child
			}
			target = child
		}
		mergeConfigValue(target, parts[len(parts)-1], value)
	}
	return nested
}

func mergeConfigValue(target map[string]interface{}, key string, value interface{}) {
	existing, existingIsMap := target[key].(map[string]interface{})
	incoming, incomingIsMap := value.(map[string]interface{})
	if !existingIsMap || !incomingIsMap {
		target[key] = value
		return
	}
	for k, v := range incoming {
		mergeConfigValue(existing, k, v)
	}
}

// convertDurations replaces duration strings with nanosecond counts in place.
func convertDurations(configMap map[string]interface{}) error {
	for key, value := range configMap {
		switch v := value.(type) {
		case map[string]interface{}:
			if err := convertDurations(v); err != nil {
				return err
			}
		case string:
			if !durationKeys[key] {
				continue
			}
			d, err := time.ParseDuration(strings.Trim(strings.TrimSpace(v), `"'`))
			if err != nil {
				return fmt.Errorf("invalid duration for %s: %w", key, err)
			}
			configMap[key] = int64(d)
		}
	}
	return nil
}

// ConfigWatcherOptions tunes the Argus watcher.
type ConfigWatcherOptions struct {
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
	CacheTTL     time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultConfigWatcherOptions returns the default polling settings.
func DefaultConfigWatcherOptions() ConfigWatcherOptions {
	return ConfigWatcherOptions{
		PollInterval: 2 * time.Second,
		CacheTTL:     time.Second,
	}
}

// ConfigWatcher reloads a configuration file when it changes and hands each
// valid configuration to a callback. Invalid files are logged and skipped;
// the last good configuration stays current.
type ConfigWatcher struct {
	path     string
	watcher  *argus.Watcher
	onChange func(Config)
	logger   Logger

	current  atomic.Pointer[Config]
	running  atomic.Bool
	stopOnce sync.Once
	mu       sync.Mutex
}

// NewConfigWatcher creates a watcher for path. Nothing is read until Start.
func NewConfigWatcher(path string, options ConfigWatcherOptions, onChange func(Config), logger any) *ConfigWatcher {
	internalLogger := NewLogger(logger)
	if options.PollInterval <= 0 {
		options = DefaultConfigWatcherOptions()
	}

	argusConfig := argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, file string) {
			internalLogger.Error("Argus file watching error", "error", err, "file", file)
		},
	}

	return &ConfigWatcher{
		path:     path,
		watcher:  argus.New(argusConfig),
		onChange: onChange,
		logger:   internalLogger,
	}
}

// Start loads the initial configuration, delivers it to the callback and
// begins watching the file.
func (cw *ConfigWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running.CompareAndSwap(false, true) {
		return NewConfigWatcherError("already running", fmt.Errorf("watcher for %s already started", cw.path))
	}

	initial, err := LoadConfigFromFile(cw.path)
	if err != nil {
		cw.running.Store(false)
		return err
	}
	cw.current.Store(&initial)
	if cw.onChange != nil {
		cw.onChange(initial)
	}

	if err := cw.watcher.Watch(cw.path, cw.handleChange); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("watch failed", err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("start failed", err)
	}

	cw.logger.Info("Configuration watcher started", "config_path", cw.path)
	return nil
}

// Stop ends watching. Calling it more than once is harmless.
func (cw *ConfigWatcher) Stop() error {
	var stopErr error
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		defer cw.mu.Unlock()
		if !cw.running.Load() {
			return
		}
		if err := cw.watcher.Stop(); err != nil {
			stopErr = NewConfigWatcherError("stop failed", err)
			return
		}
		cw.running.Store(false)
		cw.logger.Info("Configuration watcher stopped", "config_path", cw.path)
	})
	return stopErr
}

// Current returns the last valid configuration, or nil before Start.
func (cw *ConfigWatcher) Current() *Config {
	return cw.current.Load()
}

// IsRunning reports whether the watcher is active.
func (cw *ConfigWatcher) IsRunning() bool {
	return cw.running.Load()
}

func (cw *ConfigWatcher) handleChange(event argus.ChangeEvent) {
	if event.IsDelete {
		cw.logger.Warn("Configuration file was deleted, keeping current configuration", "path", event.Path)
		return
	}
	cw.reload(event.Path)
}

func (cw *ConfigWatcher) reload(path string) {
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		cw.logger.Error("Failed to reload configuration", "error", err, "path", path)
		return
	}
	cw.current.Store(&cfg)
	if cw.onChange != nil {
		cw.onChange(cfg)
	}
	cw.logger.Info("Configuration reloaded",
		"path", path,
		"transport", string(cfg.Transport),
		"missing_param", string(cfg.PathParams.MissingParam))
}
