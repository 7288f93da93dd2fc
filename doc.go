// Package selectocr layers two client-side behaviors on top of an HTTP
// request pipeline: an on-demand recognition action that turns the image
// referenced by the current document selection into text, and a request
// interceptor that fills {{name}} placeholders in a request path from the
// request's own parameters.
//
// Key Features:
//   - Selection-to-recognition flow over a small Document/Range abstraction
//   - In-memory HTML documents (golang.org/x/net/html) and live browser pages (go-rod)
//   - Path-parameter interceptor registered under "path-params"
//   - Named interceptor registry dispatching the "configRequest" event
//   - HTTP and gRPC recognition transports
//   - Multi-format configuration with hot reload (Argus)
//   - Structured, coded errors and pluggable logging
//   - In-flight tracking with graceful drain, in-memory metrics
//
// Basic Usage:
//
//	registry := selectocr.NewInterceptorRegistry(logger)
//	_ = registry.Register(selectocr.PathParamsName, selectocr.NewPathParams(selectocr.PathParamsConfig{}, logger))
//
//	client, err := selectocr.NewClient(cfg, registry, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// GET /users/42?sort=asc
//	resp, err := client.Do(ctx, &selectocr.RequestDescriptor{
//		Method:     http.MethodGet,
//		Path:       "/users/{{id}}",
//		Parameters: map[string]any{"id": "42", "sort": "asc"},
//	})
//
// Recognition:
//
//	doc, _ := selectocr.ParseHTMLDocument(strings.NewReader(page))
//	flow := selectocr.NewRecognitionFlow(doc, selectocr.NewHTTPRecognizer(client, logger), notifier, logger,
//		selectocr.WithMetrics(selectocr.NewDefaultMetricsCollector()))
//	if err := flow.Perform(ctx); err != nil {
//		// transport or backend failure, never retried
//	}
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package selectocr
