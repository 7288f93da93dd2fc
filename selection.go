// selection.go: Document, range and notification capabilities used by the recognition flow
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SourceAttribute is the attribute the image reference is read from.
const SourceAttribute = "src"

// SelectImageMessage is reported when the selection holds no usable image.
const SelectImageMessage = "Select an image first"

// Document exposes the current selection of an editing surface.
type Document interface {
	// Selection returns the active range, or nil when nothing is selected.
	Selection(ctx context.Context) (Range, error)
}

// Range is a handle to a start/end position pair owned by the document.
//
// A handle stays usable after the document changes; callers that hold one
// across a suspension point get whatever the handle resolves to at that time.
type Range interface {
	Collapsed() bool
	CloneContents(ctx context.Context) (*Snapshot, error)
	InsertText(ctx context.Context, text string) error
}

// Notifier is the blocking user-facing report channel.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

// Alert implements Notifier.
func (f NotifierFunc) Alert(ctx context.Context, message string) {
	f(ctx, message)
}

// Element is a detached, read-only view of an element in a Snapshot.
type Element struct {
	Tag   string
	Attrs map[string]string
}

// Attr returns the value of the named attribute.
func (e Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// Snapshot is an immutable, detached copy of the nodes inside a range.
type Snapshot struct {
	root *html.Node
}

// NewSnapshot wraps already detached nodes in a fragment root. The nodes
// must not be referenced elsewhere afterwards.
func NewSnapshot(nodes ...*html.Node) *Snapshot {
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}
	return &Snapshot{root: root}
}

// ParseSnapshot parses serialized fragment markup, as produced by a browser
// when a cloned range is serialized, into a Snapshot.
func ParseSnapshot(fragment string) (*Snapshot, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, NewSnapshotFailedError(err)
	}
	return NewSnapshot(nodes...), nil
}

// Empty reports whether the snapshot holds no nodes.
func (s *Snapshot) Empty() bool {
	return s == nil || s.root.FirstChild == nil
}

// FirstElement returns the first element child of the snapshot root.
func (s *Snapshot) FirstElement() (Element, bool) {
	if s == nil {
		return Element{}, false
	}
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		attrs := make(map[string]string, len(c.Attr))
		for _, a := range c.Attr {
			if a.Namespace != "" {
				continue
			}
			if _, dup := attrs[a.Key]; !dup {
				attrs[a.Key] = a.Val
			}
		}
		return Element{Tag: c.Data, Attrs: attrs}, true
	}
	return Element{}, false
}

// ImageReference reads the source attribute of the first element child.
// It returns the empty reference when there is no element or no source.
func (s *Snapshot) ImageReference() ImageReference {
	el, ok := s.FirstElement()
	if !ok {
		return ""
	}
	src, _ := el.Attr(SourceAttribute)
	return ImageReference(src)
}

// HTML serializes the snapshot contents.
func (s *Snapshot) HTML() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// WriterNotifier writes each alert as a line to an io.Writer.
type WriterNotifier struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriterNotifier creates a notifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Alert implements Notifier.
func (n *WriterNotifier) Alert(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.w, message)
}

// LoggerNotifier reports alerts through a Logger at warn level.
type LoggerNotifier struct {
	logger Logger
}

// NewLoggerNotifier creates a notifier logging through logger.
func NewLoggerNotifier(logger any) *LoggerNotifier {
	return &LoggerNotifier{logger: NewLogger(logger)}
}

// Alert implements Notifier.
func (n *LoggerNotifier) Alert(_ context.Context, message string) {
	n.logger.Warn(message)
}
