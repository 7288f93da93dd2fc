// testing_helpers_test.go: Shared test utilities
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnvironment provides temp files and mock backends with automatic cleanup.
type TestEnvironment struct {
	t       *testing.T
	tempDir string
	mu      sync.Mutex
}

// NewTestEnvironment creates a new test environment.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	return &TestEnvironment{t: t, tempDir: t.TempDir()}
}

// CreateTempFile writes content to name inside the environment's temp dir.
func (te *TestEnvironment) CreateTempFile(name, content string) string {
	te.t.Helper()
	te.mu.Lock()
	defer te.mu.Unlock()

	path := filepath.Join(te.tempDir, name)
	require.NoError(te.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// RecordedRequest is a request captured by MockBackend.
type RecordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        string
}

// MockBackend is an httptest recognition backend that records every request.
type MockBackend struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	status   int
	reply    func(body string) string
}

// CreateMockBackend starts a backend answering 200 with reply(body).
// A nil reply echoes "text for <body>".
func (te *TestEnvironment) CreateMockBackend(reply func(body string) string) *MockBackend {
	te.t.Helper()
	if reply == nil {
		reply = func(body string) string { return "text for " + body }
	}
	mb := &MockBackend{status: http.StatusOK, reply: reply}
	mb.Server = httptest.NewServer(http.HandlerFunc(mb.handle))
	te.t.Cleanup(mb.Close)
	return mb
}

// SetStatus makes the backend answer with status.
func (mb *MockBackend) SetStatus(status int) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.status = status
}

// Requests returns the recorded requests.
func (mb *MockBackend) Requests() []RecordedRequest {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]RecordedRequest, len(mb.requests))
	copy(out, mb.requests)
	return out
}

func (mb *MockBackend) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	mb.mu.Lock()
	mb.requests = append(mb.requests, RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		RawQuery:    r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	status := mb.status
	mb.mu.Unlock()

	w.WriteHeader(status)
	_, _ = io.WriteString(w, mb.reply(string(body)))
}

// newTestClient builds a client against baseURL with path-params registered.
func newTestClient(t *testing.T, baseURL string, policy MissingParamPolicy) (*Client, *InterceptorRegistry) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.PathParams.MissingParam = policy

	registry := NewInterceptorRegistry(nil)
	require.NoError(t, registry.Register(PathParamsName, NewPathParams(cfg.PathParams, nil)))

	client, err := NewClient(cfg, registry, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, registry
}

// fakeRecognizer counts calls and optionally runs a hook before answering.
type fakeRecognizer struct {
	mu     sync.Mutex
	calls  []ImageReference
	text   string
	err    error
	before func(ctx context.Context, ref ImageReference)
}

func (f *fakeRecognizer) Recognize(ctx context.Context, ref ImageReference) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	hook := f.before
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, ref)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeRecognizer) Calls() []ImageReference {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ImageReference, len(f.calls))
	copy(out, f.calls)
	return out
}

// recordingNotifier collects alert messages.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Alert(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

// mustParseDocument parses markup that carries selection markers.
func mustParseDocument(t *testing.T, markup string) *HTMLDocument {
	t.Helper()
	doc, err := ParseHTMLDocument(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

// mustRenderBody renders the body contents of doc.
func mustRenderBody(t *testing.T, doc *HTMLDocument) string {
	t.Helper()
	out, err := doc.RenderBody()
	require.NoError(t, err)
	return out
}

// assertErrorCode checks that err is a coded error carrying code.
func assertErrorCode(t *testing.T, err error, code string) *goerrors.Error {
	t.Helper()
	require.Error(t, err)
	var coded *goerrors.Error
	require.True(t, stderrors.As(err, &coded), "expected a coded error, got %T: %v", err, err)
	assert.Equal(t, goerrors.ErrorCode(code), coded.ErrorCode())
	return coded
}
