// config.go: Client configuration with validation and defaults
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// TransportType selects how recognition requests reach the backend.
type TransportType string

const (
	TransportHTTP  TransportType = "http"
	TransportHTTPS TransportType = "https"
	TransportGRPC  TransportType = "grpc"
)

// DefaultRecognitionPath is the recognition endpoint path.
const DefaultRecognitionPath = "/ocr"

// ConnectionConfig contains HTTP connection pooling and timeout settings.
//
// RequestTimeout defaults to zero, which means no timeout: a hung backend
// keeps the recognition flow suspended until the caller's context ends.
//
// Example configuration:
//
//	conn := ConnectionConfig{
//	    MaxConnections:     10,
//	    MaxIdleConnections: 5,
//	    IdleTimeout:        90 * time.Second,
//	    ConnectionTimeout:  10 * time.Second,
//	}
type ConnectionConfig struct {
	MaxConnections     int           `json:"max_connections" yaml:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections" yaml:"max_idle_connections"`
	IdleTimeout        time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ConnectionTimeout  time.Duration `json:"connection_timeout" yaml:"connection_timeout"`
	RequestTimeout     time.Duration `json:"request_timeout" yaml:"request_timeout"`
	DisableCompression bool          `json:"disable_compression" yaml:"disable_compression"`
}

// LoggingConfig controls the logger built by the command line tool.
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// Config is the complete selectocr client configuration.
//
// Example YAML:
//
//	base_url: http://localhost:8080
//	recognition_path: /ocr
//	transport: http
//	path_params:
//	  missing_param: keep
//	connection:
//	  max_connections: 10
type Config struct {
	BaseURL         string           `json:"base_url" yaml:"base_url"`
	RecognitionPath string           `json:"recognition_path" yaml:"recognition_path"`
	Transport       TransportType    `json:"transport" yaml:"transport"`
	GRPCEndpoint    string           `json:"grpc_endpoint,omitempty" yaml:"grpc_endpoint,omitempty"`
	Connection      ConnectionConfig `json:"connection" yaml:"connection"`
	PathParams      PathParamsConfig `json:"path_params" yaml:"path_params"`
	Logging         LoggingConfig    `json:"logging" yaml:"logging"`
}

// DefaultConfig returns a configuration pointing at a local backend.
func DefaultConfig() Config {
	cfg := Config{BaseURL: "http://localhost:8080"}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Transport == "" {
		c.Transport = TransportHTTP
	}
	if c.RecognitionPath == "" {
		c.RecognitionPath = DefaultRecognitionPath
	}
	if c.PathParams.MissingParam == "" {
		c.PathParams.MissingParam = MissingKeepPlaceholder
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.applyDefaultConnection()
}

func (c *Config) applyDefaultConnection() {
	if c.Connection.MaxConnections == 0 {
		c.Connection.MaxConnections = 10
	}
	if c.Connection.MaxIdleConnections == 0 {
		c.Connection.MaxIdleConnections = 5
	}
	if c.Connection.IdleTimeout == 0 {
		c.Connection.IdleTimeout = 90 * time.Second
	}
	if c.Connection.ConnectionTimeout == 0 {
		c.Connection.ConnectionTimeout = 10 * time.Second
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	switch c.Transport {
	case "", TransportHTTP, TransportHTTPS:
		if err := c.validateBaseURL(); err != nil {
			return err
		}
	case TransportGRPC:
		if strings.TrimSpace(c.GRPCEndpoint) == "" {
			return NewMissingGRPCEndpointError()
		}
	default:
		return NewInvalidTransportError(c.Transport)
	}

	if c.RecognitionPath != "" && !strings.HasPrefix(c.RecognitionPath, "/") {
		return NewInvalidRecognizePathError(c.RecognitionPath)
	}

	if err := c.PathParams.MissingParam.Validate(); err != nil {
		return err
	}

	if c.Connection.MaxConnections < 0 || c.Connection.MaxIdleConnections < 0 {
		return NewConfigValidationError("connection limits cannot be negative", nil)
	}
	if c.Connection.RequestTimeout < 0 {
		return NewConfigValidationError("request timeout cannot be negative", nil)
	}
	return nil
}

func (c *Config) validateBaseURL() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return NewInvalidBaseURLError(c.BaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return NewInvalidBaseURLError(c.BaseURL, nil)
	}
	return nil
}

// ToJSON serializes the configuration.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON loads the configuration from JSON, validates it and applies defaults.
func (c *Config) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, c); err != nil {
		return NewConfigParseError("<json>", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.ApplyDefaults()
	return nil
}
