// config_loader_test.go: Tests for file loading and hot reload
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
base_url: http://ocr.internal:8080
recognition_path: /v2/ocr
transport: http
path_params:
  missing_param: empty
connection:
  max_connections: 4
  request_timeout: 3s
logging:
  level: debug
`

const jsonConfig = `{
  "base_url": "https://ocr.example.com",
  "transport": "https",
  "path_params": {"missing_param": "undefined"},
  "connection": {"max_connections": 8}
}`

func TestLoadConfigFromFile(t *testing.T) {
	env := NewTestEnvironment(t)

	t.Run("YAML", func(t *testing.T) {
		cfg, err := LoadConfigFromFile(env.CreateTempFile("selectocr.yaml", yamlConfig))
		require.NoError(t, err)

		assert.Equal(t, "http://ocr.internal:8080", cfg.BaseURL)
		assert.Equal(t, "/v2/ocr", cfg.RecognitionPath)
		assert.Equal(t, MissingEmpty, cfg.PathParams.MissingParam)
		assert.Equal(t, 4, cfg.Connection.MaxConnections)
		assert.Equal(t, 3*time.Second, cfg.Connection.RequestTimeout)
		assert.Equal(t, 5, cfg.Connection.MaxIdleConnections, "defaults fill unset fields")
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("JSON", func(t *testing.T) {
		cfg, err := LoadConfigFromFile(env.CreateTempFile("selectocr.json", jsonConfig))
		require.NoError(t, err)

		assert.Equal(t, "https://ocr.example.com", cfg.BaseURL)
		assert.Equal(t, TransportHTTPS, cfg.Transport)
		assert.Equal(t, MissingUndefined, cfg.PathParams.MissingParam)
		assert.Equal(t, 8, cfg.Connection.MaxConnections)
		assert.Equal(t, DefaultRecognitionPath, cfg.RecognitionPath)
	})

	t.Run("JSONDurationStrings", func(t *testing.T) {
		cfg, err := LoadConfigFromFile(env.CreateTempFile("durations.json",
			`{"base_url": "http://localhost:1", "connection": {"request_timeout": "5s", "idle_timeout": "2m"}}`))
		require.NoError(t, err)

		assert.Equal(t, 5*time.Second, cfg.Connection.RequestTimeout)
		assert.Equal(t, 2*time.Minute, cfg.Connection.IdleTimeout)
	})

	t.Run("JSONDurationNanoseconds", func(t *testing.T) {
		cfg, err := LoadConfigFromFile(env.CreateTempFile("nanos.json",
			`{"base_url": "http://localhost:1", "connection": {"request_timeout": 1500000000}}`))
		require.NoError(t, err)
		assert.Equal(t, 1500*time.Millisecond, cfg.Connection.RequestTimeout)
	})

	t.Run("TOMLDottedKeys", func(t *testing.T) {
		cfg, err := LoadConfigFromFile(env.CreateTempFile("selectocr.toml", `
base_url = "http://ocr.internal:8080"
connection.request_timeout = "5s"
connection.max_connections = 4
path_params.missing_param = "empty"
`))
		require.NoError(t, err)

		assert.Equal(t, "http://ocr.internal:8080", cfg.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Connection.RequestTimeout)
		assert.Equal(t, 4, cfg.Connection.MaxConnections)
		assert.Equal(t, MissingEmpty, cfg.PathParams.MissingParam)
	})

	t.Run("INISections", func(t *testing.T) {
		cfg, err := LoadConfigFromFile(env.CreateTempFile("selectocr.ini", `
base_url = http://ocr.internal:8080

[connection]
request_timeout = 250ms
connection_timeout = 3s

[path_params]
missing_param = undefined
`))
		require.NoError(t, err)

		assert.Equal(t, 250*time.Millisecond, cfg.Connection.RequestTimeout)
		assert.Equal(t, 3*time.Second, cfg.Connection.ConnectionTimeout)
		assert.Equal(t, MissingUndefined, cfg.PathParams.MissingParam)
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		_, err := LoadConfigFromFile(env.CreateTempFile("bad-duration.json",
			`{"base_url": "http://localhost:1", "connection": {"request_timeout": "soon"}}`))
		assertErrorCode(t, err, ErrCodeConfigParseError)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assertErrorCode(t, err, ErrCodeConfigNotFound)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := LoadConfigFromFile(env.CreateTempFile("broken.yaml", "base_url: [unterminated"))
		assertErrorCode(t, err, ErrCodeConfigParseError)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := LoadConfigFromFile(env.CreateTempFile("invalid.yaml", "base_url: http://x\npath_params:\n  missing_param: fail\n"))
		assertErrorCode(t, err, ErrCodeInvalidMissingPolicy)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := LoadConfigFromFile("")
		require.Error(t, err)
	})
}

func TestConfigWatcher_ReloadsOnChange(t *testing.T) {
	env := NewTestEnvironment(t)
	path := env.CreateTempFile("watched.yaml", "base_url: http://a:1\npath_params:\n  missing_param: keep\n")

	var mu sync.Mutex
	var seen []MissingParamPolicy
	pp := NewPathParams(PathParamsConfig{}, nil)

	watcher := NewConfigWatcher(path, ConfigWatcherOptions{
		PollInterval: 50 * time.Millisecond,
		CacheTTL:     10 * time.Millisecond,
	}, func(cfg Config) {
		mu.Lock()
		seen = append(seen, cfg.PathParams.MissingParam)
		mu.Unlock()
		_ = pp.SetPolicy(cfg.PathParams.MissingParam)
	}, nil)

	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()
	assert.True(t, watcher.IsRunning())
	require.NotNil(t, watcher.Current())
	assert.Equal(t, MissingKeepPlaceholder, pp.Policy())

	// keep the mtime distinguishable on coarse filesystems
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://a:1\npath_params:\n  missing_param: empty\n"), 0o600))

	assert.Eventually(t, func() bool {
		return pp.Policy() == MissingEmpty
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, MissingKeepPlaceholder, seen[0])
	mu.Unlock()
	assert.Equal(t, MissingEmpty, watcher.Current().PathParams.MissingParam)
}

func TestConfigWatcher_KeepsLastGoodConfig(t *testing.T) {
	env := NewTestEnvironment(t)
	path := env.CreateTempFile("watched.yaml", "base_url: http://a:1\n")
	logger := NewTestLogger()

	watcher := NewConfigWatcher(path, DefaultConfigWatcherOptions(), nil, logger)
	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("path_params:\n  missing_param: fail\n"), 0o600))
	watcher.reload(path)

	assert.Equal(t, "http://a:1", watcher.Current().BaseURL)
	assert.True(t, logger.HasMessage("ERROR", "Failed to reload configuration"))
}

func TestConfigWatcher_Lifecycle(t *testing.T) {
	env := NewTestEnvironment(t)
	path := env.CreateTempFile("watched.yaml", "base_url: http://a:1\n")

	watcher := NewConfigWatcher(path, ConfigWatcherOptions{}, nil, nil)
	assert.Nil(t, watcher.Current())
	assert.False(t, watcher.IsRunning())

	require.NoError(t, watcher.Start())
	assertErrorCode(t, watcher.Start(), ErrCodeConfigWatcher)

	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())

	t.Run("StartFailsOnMissingFile", func(t *testing.T) {
		w := NewConfigWatcher(filepath.Join(t.TempDir(), "nope.yaml"), ConfigWatcherOptions{}, nil, nil)
		assertErrorCode(t, w.Start(), ErrCodeConfigNotFound)
		assert.False(t, w.IsRunning())
	})
}

func TestNestDottedKeys(t *testing.T) {
	nested := nestDottedKeys(map[string]interface{}{
		"base_url":                   "http://a:1",
		"connection":                 map[string]interface{}{"max_connections": 2},
		"connection.request_timeout": "5s",
	})

	assert.Equal(t, map[string]interface{}{
		"base_url": "http://a:1",
		"connection": map[string]interface{}{
			"max_connections": 2,
			"request_timeout": "5s",
		},
	}, nested)

	require.NoError(t, convertDurations(nested))
	assert.Equal(t, int64(5*time.Second), nested["connection"].(map[string]interface{})["request_timeout"])
}
