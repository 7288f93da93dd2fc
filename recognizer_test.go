// recognizer_test.go: Tests for the HTTP recognition transport
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRecognizer_PostsReferenceAsBody(t *testing.T) {
	env := NewTestEnvironment(t)
	backend := env.CreateMockBackend(func(body string) string {
		if body == "http://x/img.png" {
			return "HELLO"
		}
		return ""
	})
	client, _ := newTestClient(t, backend.URL, MissingKeepPlaceholder)
	recognizer := NewHTTPRecognizer(client, nil)

	text, err := recognizer.Recognize(context.Background(), "http://x/img.png")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", text)

	requests := backend.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, DefaultRecognitionPath, requests[0].Path)
	assert.Equal(t, "http://x/img.png", requests[0].Body)
	assert.Equal(t, "text/plain; charset=utf-8", requests[0].ContentType)
	assert.Empty(t, requests[0].RawQuery)
}

func TestHTTPRecognizer_ReadsWholeBody(t *testing.T) {
	env := NewTestEnvironment(t)
	long := make([]byte, 256*1024)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}
	backend := env.CreateMockBackend(func(string) string { return string(long) })
	client, _ := newTestClient(t, backend.URL, MissingKeepPlaceholder)

	text, err := NewHTTPRecognizer(client, nil).Recognize(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, string(long), text)
}

func TestHTTPRecognizer_ErrorStatus(t *testing.T) {
	testCases := []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway}

	for _, status := range testCases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			env := NewTestEnvironment(t)
			backend := env.CreateMockBackend(nil)
			backend.SetStatus(status)
			client, _ := newTestClient(t, backend.URL, MissingKeepPlaceholder)

			_, err := NewHTTPRecognizer(client, nil).Recognize(context.Background(), "http://x/img.png")

			coded := assertErrorCode(t, err, ErrCodeRecognitionBackendStatus)
			assert.Equal(t, status, coded.Context["status"])
			assert.False(t, coded.IsRetryable())
			assert.Len(t, backend.Requests(), 1, "no retry expected")
		})
	}
}

func TestHTTPRecognizer_InterceptorsSeeRecognitionRequest(t *testing.T) {
	env := NewTestEnvironment(t)
	backend := env.CreateMockBackend(func(string) string { return "ok" })

	cfg := DefaultConfig()
	cfg.BaseURL = backend.URL
	cfg.RecognitionPath = "/ocr/{{lang}}"

	registry := NewInterceptorRegistry(nil)
	require.NoError(t, registry.Register("lang", RequestInterceptorFunc(func(view ConfigRequestView) {
		view.Parameters["lang"] = "eng"
	})))
	require.NoError(t, registry.Register(PathParamsName, NewPathParams(cfg.PathParams, nil)))
	var seenPath string
	var seenParams int
	require.NoError(t, registry.Register("observer", RequestInterceptorFunc(func(view ConfigRequestView) {
		seenPath = *view.Path
		seenParams = len(view.Parameters)
	})))

	client, err := NewClient(cfg, registry, nil)
	require.NoError(t, err)

	_, err = NewHTTPRecognizer(client, nil).Recognize(context.Background(), "http://x/img.png")
	require.NoError(t, err)

	assert.Equal(t, "/ocr/eng", seenPath)
	assert.Zero(t, seenParams)
	requests := backend.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/ocr/eng", requests[0].Path)
	assert.Empty(t, requests[0].RawQuery)
	assert.Equal(t, "http://x/img.png", requests[0].Body)
}

func TestRecognizerFunc(t *testing.T) {
	var rec Recognizer = RecognizerFunc(func(_ context.Context, ref ImageReference) (string, error) {
		return "seen " + ref.String(), nil
	})
	text, err := rec.Recognize(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "seen a.png", text)
}
