// recognizer.go: Recognition transport over HTTP
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"io"
	"net/http"
)

// Recognizer converts an image reference into text. Implementations issue
// exactly one backend call per invocation and never retry.
type Recognizer interface {
	Recognize(ctx context.Context, ref ImageReference) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, ref ImageReference) (string, error)

// Recognize implements Recognizer.
func (f RecognizerFunc) Recognize(ctx context.Context, ref ImageReference) (string, error) {
	return f(ctx, ref)
}

// HTTPRecognizer submits the raw reference to the recognition endpoint with
// POST and reads the whole response body as text.
//
// The request goes through the client's pipeline, so registered interceptors
// see it during the configuration phase like any other request.
type HTTPRecognizer struct {
	client *Client
	path   string
	logger Logger
}

// NewHTTPRecognizer creates a recognizer posting to the client's
// configured recognition path.
func NewHTTPRecognizer(client *Client, logger any) *HTTPRecognizer {
	path := client.Config().RecognitionPath
	if path == "" {
		path = DefaultRecognitionPath
	}
	return &HTTPRecognizer{
		client: client,
		path:   path,
		logger: NewLogger(logger).With("recognizer", "http"),
	}
}

// Recognize implements Recognizer.
func (r *HTTPRecognizer) Recognize(ctx context.Context, ref ImageReference) (string, error) {
	desc := &RequestDescriptor{
		Method:  http.MethodPost,
		Path:    r.path,
		Body:    []byte(ref),
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}

	resp, err := r.client.Do(ctx, desc)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.logger.Debug("Failed to close recognition response body", "error", closeErr)
		}
	}()

	endpoint := resp.Request.URL.String()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", NewRecognitionBackendStatusError(endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewRecognitionResponseReadError(endpoint, err)
	}

	r.logger.Debug("Recognition completed", "endpoint", endpoint, "bytes", len(body))
	return string(body), nil
}
