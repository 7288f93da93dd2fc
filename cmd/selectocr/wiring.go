// wiring.go: Builds the request pipeline and recognizer from configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	selectocr "github.com/agilira/go-selectocr"
)

// pipeline holds everything a command needs to talk to the backend.
type pipeline struct {
	config     selectocr.Config
	registry   *selectocr.InterceptorRegistry
	pathParams *selectocr.PathParams
	client     *selectocr.Client
	recognizer selectocr.Recognizer
	closers    []func() error
}

func newPipeline(cfg selectocr.Config, log selectocr.Logger) (*pipeline, error) {
	p := &pipeline{
		config:     cfg,
		registry:   selectocr.NewInterceptorRegistry(log),
		pathParams: selectocr.NewPathParams(cfg.PathParams, log),
	}
	if err := p.registry.Register(selectocr.PathParamsName, p.pathParams); err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case selectocr.TransportGRPC:
		rec, err := selectocr.NewGRPCRecognizer(cfg.GRPCEndpoint, log)
		if err != nil {
			return nil, err
		}
		p.recognizer = rec
		p.closers = append(p.closers, rec.Close)
	default:
		client, err := selectocr.NewClient(cfg, p.registry, log)
		if err != nil {
			return nil, err
		}
		p.client = client
		p.recognizer = selectocr.NewHTTPRecognizer(client, log)
		p.closers = append(p.closers, client.Close)
	}
	return p, nil
}

// httpClient returns the request client, building one for gRPC setups that
// still need to resolve paths.
func (p *pipeline) httpClient(log selectocr.Logger) (*selectocr.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	cfg := p.config
	cfg.Transport = selectocr.TransportHTTP
	client, err := selectocr.NewClient(cfg, p.registry, log)
	if err != nil {
		return nil, fmt.Errorf("path resolution needs an HTTP base URL: %w", err)
	}
	p.client = client
	p.closers = append(p.closers, client.Close)
	return client, nil
}

func (p *pipeline) Close() error {
	var firstErr error
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func commandLogger() selectocr.Logger {
	if logger == nil {
		return selectocr.DefaultLogger()
	}
	return selectocr.NewZapAdapter(logger)
}
