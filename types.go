// types.go: Common data types shared by the recognition flow and the request pipeline
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"net/http"
	"time"
)

// ImageReference is the resource locator read from the selected image's
// source attribute. It is sent verbatim as the recognition request body.
type ImageReference string

// String returns the reference as a plain string.
func (r ImageReference) String() string {
	return string(r)
}

// IsEmpty reports whether the reference carries no locator.
func (r ImageReference) IsEmpty() bool {
	return r == ""
}

// RequestDescriptor describes one outgoing call before transport.
//
// The pipeline builds a descriptor per request, hands its Path and Parameters
// to every registered interceptor during the configuration phase, then
// serializes what is left. A descriptor must not be shared between requests.
//
// Fields:
//   - Method: HTTP method, defaults to GET
//   - Path: request path, may embed {{name}} placeholders
//   - Parameters: parameter name to value, serialized after interception
//   - Headers: extra request headers
//   - Body: raw body; when set, remaining parameters go to the query string
type RequestDescriptor struct {
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Parameters map[string]any    `json:"parameters,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"-"`
}

// ConfigRequestView is the mutable view of a RequestDescriptor handed to
// interceptors. It exposes exactly the two fields an interceptor may change.
type ConfigRequestView struct {
	Path       *string
	Parameters map[string]any
}

// View returns a ConfigRequestView over the descriptor. A nil parameter map
// is replaced by an empty one so interceptors can always delete from it.
func (d *RequestDescriptor) View() ConfigRequestView {
	if d.Parameters == nil {
		d.Parameters = make(map[string]any)
	}
	return ConfigRequestView{Path: &d.Path, Parameters: d.Parameters}
}

func (d *RequestDescriptor) method() string {
	if d.Method == "" {
		return http.MethodGet
	}
	return d.Method
}

// Outcome classifies how a recognition attempt ended.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeInserted
	OutcomeNoSelection
	OutcomeNoElement
	OutcomeNoReference
	OutcomeFailed
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeNoSelection:
		return "no-selection"
	case OutcomeNoElement:
		return "no-element"
	case OutcomeNoReference:
		return "no-reference"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reported reports whether the outcome is a user-input condition that was
// surfaced through the notifier.
func (o Outcome) Reported() bool {
	return o == OutcomeNoSelection || o == OutcomeNoElement || o == OutcomeNoReference
}

// RecognitionResult summarizes one run of the recognition flow.
type RecognitionResult struct {
	Outcome   Outcome        `json:"outcome"`
	Reference ImageReference `json:"reference,omitempty"`
	Text      string         `json:"text,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
}
