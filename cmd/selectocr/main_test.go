// main_test.go: Tests for the selectocr commands
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	selectocr "github.com/agilira/go-selectocr"
)

func TestParseParams(t *testing.T) {
	testCases := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{"Empty", nil, map[string]any{}, false},
		{"Single", []string{"id=42"}, map[string]any{"id": "42"}, false},
		{"ValueWithEquals", []string{"q=a=b"}, map[string]any{"q": "a=b"}, false},
		{"RepeatedKey", []string{"tag=a", "tag=b", "tag=c"}, map[string]any{"tag": []string{"a", "b", "c"}}, false},
		{"MissingSeparator", []string{"id"}, nil, true},
		{"EmptyKey", []string{"=42"}, nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseParams(tc.pairs)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildLogger(t *testing.T) {
	_, err := buildLogger(selectocr.LoggingConfig{Level: "verbose"})
	assert.Error(t, err)

	l, err := buildLogger(selectocr.LoggingConfig{Level: "warn", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestRecognizeCommand(t *testing.T) {
	var gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte("HELLO"))
	}))
	defer backend.Close()

	input := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(input,
		[]byte(`<html><body><p>before<!--[--><img src="http://x/img.png"><!--]-->after</p></body></html>`), 0o600))
	output := filepath.Join(t.TempDir(), "out.html")

	rootCmd.SetArgs([]string{"recognize", input, "--base-url", backend.URL, "--body", "-o", output})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "http://x/img.png", gotBody)
	rendered, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "beforeHELLO<img")
}

func TestResolveCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"resolve", "/users/{{id}}/posts",
		"--base-url", "http://api.local", "-p", "id=42", "-p", "sort=asc"})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "GET http://api.local/users/42/posts?sort=asc\n", out.String())
}
