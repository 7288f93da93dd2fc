// client.go: HTTP request pipeline with interceptor dispatch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client builds and sends HTTP requests from RequestDescriptors.
//
// For every request the client emits EventConfigRequest to its interceptor
// registry, then serializes the parameters that are left: into the query
// string for GET, HEAD and DELETE requests and for requests that carry a raw
// Body, and into an application/x-www-form-urlencoded body otherwise.
//
// Example usage:
//
//	registry := NewInterceptorRegistry(logger)
//	_ = registry.Register(PathParamsName, NewPathParams(cfg.PathParams, logger))
//
//	client, err := NewClient(cfg, registry, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := client.Do(ctx, &RequestDescriptor{
//	    Path:       "/users/{{id}}",
//	    Parameters: map[string]any{"id": "42", "sort": "asc"},
//	})
type Client struct {
	config    Config
	baseURL   *url.URL
	client    *http.Client
	transport *http.Transport
	registry  *InterceptorRegistry
	logger    Logger
	mu        sync.RWMutex
}

// NewClient creates a client for cfg. A nil registry is replaced by an empty one.
func NewClient(cfg Config, registry *InterceptorRegistry, logger any) (*Client, error) {
	if cfg.Transport == TransportGRPC {
		return nil, NewInvalidTransportError(cfg.Transport)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, NewInvalidBaseURLError(cfg.BaseURL, err)
	}

	internalLogger := NewLogger(logger)
	if registry == nil {
		registry = NewInterceptorRegistry(internalLogger)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Connection.ConnectionTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Connection.MaxConnections,
		MaxIdleConnsPerHost: cfg.Connection.MaxIdleConnections,
		IdleConnTimeout:     cfg.Connection.IdleTimeout,
		DisableCompression:  cfg.Connection.DisableCompression,
	}

	return &Client{
		config:  cfg,
		baseURL: baseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Connection.RequestTimeout,
		},
		transport: transport,
		registry:  registry,
		logger:    internalLogger.With("component", "client"),
	}, nil
}

// Registry returns the interceptor registry used by the client.
func (c *Client) Registry() *InterceptorRegistry {
	return c.registry
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Do configures and sends the request described by desc.
//
// desc is mutated in place by the interceptors and must not be reused for
// another request. Transport failures are returned as coded errors; the
// response status is not inspected.
func (c *Client) Do(ctx context.Context, desc *RequestDescriptor) (*http.Response, error) {
	req, err := c.Build(ctx, desc)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Dispatching request",
		"method", req.Method,
		"url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewRequestFailedError(req.URL.String(), err)
	}
	return resp, nil
}

// Build runs the configuration phase for desc and returns the resulting
// *http.Request without sending it.
func (c *Client) Build(ctx context.Context, desc *RequestDescriptor) (*http.Request, error) {
	c.registry.Dispatch(EventConfigRequest, desc.View())

	ref, err := url.Parse(desc.Path)
	if err != nil {
		return nil, NewRequestBuildError(desc.Path, err)
	}
	target := c.baseURL.ResolveReference(ref)

	method := strings.ToUpper(desc.method())
	remaining := encodeParams(desc.Parameters)

	var body io.Reader
	contentType := ""
	switch {
	case desc.Body != nil:
		body = bytes.NewReader(desc.Body)
		target.RawQuery = mergeQuery(target.RawQuery, remaining)
	case usesQueryString(method):
		target.RawQuery = mergeQuery(target.RawQuery, remaining)
	default:
		body = strings.NewReader(remaining)
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, NewRequestBuildError(desc.Path, err)
	}

	req.Header.Set("User-Agent", "selectocr/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range desc.Headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

func usesQueryString(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

// encodeParams serializes parameters. Lists become repeated keys.
func encodeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for name, value := range params {
		switch v := value.(type) {
		case []string:
			for _, item := range v {
				values.Add(name, item)
			}
		case []any:
			for _, item := range v {
				values.Add(name, formatParam(item))
			}
		default:
			values.Add(name, formatParam(v))
		}
	}
	return values.Encode()
}

func mergeQuery(existing, extra string) string {
	switch {
	case extra == "":
		return existing
	case existing == "":
		return extra
	default:
		return existing + "&" + extra
	}
}
