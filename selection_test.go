// selection_test.go: Tests for snapshots and notifiers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot_ImageReference(t *testing.T) {
	testCases := []struct {
		name      string
		fragment  string
		wantTag   string
		wantFound bool
		wantRef   ImageReference
	}{
		{"Image", `<img src="http://x/img.png">`, "img", true, "http://x/img.png"},
		{"LeadingText", `caption <img src="a.png">`, "img", true, "a.png"},
		{"LeadingComment", `<!-- c --><img src="a.png">`, "img", true, "a.png"},
		{"EmptySource", `<img src="">`, "img", true, ""},
		{"MissingSource", `<img alt="x">`, "img", true, ""},
		{"AnyElementWithSource", `<video src="clip.mp4"></video>`, "video", true, "clip.mp4"},
		{"TextOnly", `only words`, "", false, ""},
		{"Empty", ``, "", false, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot, err := ParseSnapshot(tc.fragment)
			require.NoError(t, err)

			el, found := snapshot.FirstElement()
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.wantTag, el.Tag)
			assert.Equal(t, tc.wantRef, snapshot.ImageReference())
			assert.Equal(t, tc.wantRef.IsEmpty(), snapshot.ImageReference().IsEmpty())
		})
	}
}

func TestSnapshot_EmptyAndNil(t *testing.T) {
	assert.True(t, NewSnapshot().Empty())

	var nilSnapshot *Snapshot
	assert.True(t, nilSnapshot.Empty())
	assert.Equal(t, "", nilSnapshot.HTML())
	_, found := nilSnapshot.FirstElement()
	assert.False(t, found)
	assert.True(t, nilSnapshot.ImageReference().IsEmpty())
}

func TestElement_Attr(t *testing.T) {
	snapshot, err := ParseSnapshot(`<img SRC="upper.png" alt="a">`)
	require.NoError(t, err)

	el, ok := snapshot.FirstElement()
	require.True(t, ok)
	src, ok := el.Attr(SourceAttribute)
	assert.True(t, ok)
	assert.Equal(t, "upper.png", src)

	_, ok = el.Attr("title")
	assert.False(t, ok)
}

func TestNotifiers(t *testing.T) {
	ctx := context.Background()

	t.Run("Writer", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewWriterNotifier(&buf)
		n.Alert(ctx, SelectImageMessage)
		n.Alert(ctx, "second")
		assert.Equal(t, "Select an image first\nsecond\n", buf.String())
	})

	t.Run("Logger", func(t *testing.T) {
		logger := NewTestLogger()
		NewLoggerNotifier(logger).Alert(ctx, SelectImageMessage)
		assert.True(t, logger.HasMessage("WARN", SelectImageMessage))
	})

	t.Run("Func", func(t *testing.T) {
		var got string
		var n Notifier = NotifierFunc(func(_ context.Context, message string) { got = message })
		n.Alert(ctx, "hi")
		assert.Equal(t, "hi", got)
	})
}
