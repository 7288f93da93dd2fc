// flow.go: Selection-to-recognition-to-insertion flow
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"time"

	"github.com/agilira/go-timecache"
)

// releaser is implemented by range handles that hold external resources.
type releaser interface {
	Release(ctx context.Context) error
}

// RecognitionFlow extracts the image referenced by the current selection,
// sends it to a Recognizer and inserts the returned text at the selection.
//
// The flow holds the original Range handle across the recognition call and
// inserts through it without checking it against the live document.
type RecognitionFlow struct {
	document   Document
	recognizer Recognizer
	notifier   Notifier
	logger     Logger
	metrics    MetricsCollector
	tracker    *RequestTracker
}

// FlowOption customizes a RecognitionFlow.
type FlowOption func(*RecognitionFlow)

// WithMetrics records outcomes, latencies and in-flight counts to collector.
func WithMetrics(collector MetricsCollector) FlowOption {
	return func(f *RecognitionFlow) {
		f.metrics = collector
	}
}

// WithRequestTracker shares tracker between flows, e.g. several pages of one browser.
func WithRequestTracker(tracker *RequestTracker) FlowOption {
	return func(f *RecognitionFlow) {
		f.tracker = tracker
	}
}

// NewRecognitionFlow wires a flow. A nil notifier reports through the logger.
func NewRecognitionFlow(document Document, recognizer Recognizer, notifier Notifier, logger any, opts ...FlowOption) *RecognitionFlow {
	internalLogger := NewLogger(logger)
	if notifier == nil {
		notifier = NewLoggerNotifier(internalLogger)
	}
	f := &RecognitionFlow{
		document:   document,
		recognizer: recognizer,
		notifier:   notifier,
		logger:     internalLogger.With("component", "recognition"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.tracker == nil {
		f.tracker = NewRequestTracker(f.metrics)
	}
	return f
}

// Tracker returns the tracker counting this flow's runs in flight.
func (f *RecognitionFlow) Tracker() *RequestTracker {
	return f.tracker
}

// Perform runs one recognition. Selections without a usable image are
// reported to the user and yield nil; recognition and insertion failures are
// returned unchanged and never retried.
func (f *RecognitionFlow) Perform(ctx context.Context) error {
	_, err := f.Run(ctx)
	return err
}

// Run is Perform with a summary of what happened.
func (f *RecognitionFlow) Run(ctx context.Context) (RecognitionResult, error) {
	ctx, done := f.tracker.Start(ctx)
	defer done()

	started := timecache.CachedTime()
	result := RecognitionResult{}
	finish := func(outcome Outcome) RecognitionResult {
		result.Outcome = outcome
		result.Elapsed = elapsedSince(started)
		recordRecognition(f.metrics, result)
		return result
	}

	rng, err := f.document.Selection(ctx)
	if err != nil {
		f.logger.Debug("Selection could not be read", "error", err)
		return finish(OutcomeFailed), err
	}
	if rng == nil || rng.Collapsed() {
		return f.report(ctx, finish(OutcomeNoSelection)), nil
	}
	if r, ok := rng.(releaser); ok {
		defer func() {
			if releaseErr := r.Release(context.WithoutCancel(ctx)); releaseErr != nil {
				f.logger.Debug("Range release failed", "error", releaseErr)
			}
		}()
	}

	snapshot, err := rng.CloneContents(ctx)
	if err != nil {
		f.logger.Debug("Selection snapshot failed", "error", err)
		return finish(OutcomeFailed), err
	}
	if _, ok := snapshot.FirstElement(); !ok {
		return f.report(ctx, finish(OutcomeNoElement)), nil
	}

	ref := snapshot.ImageReference()
	if ref.IsEmpty() {
		return f.report(ctx, finish(OutcomeNoReference)), nil
	}
	result.Reference = ref

	f.logger.Debug("Submitting image for recognition", "reference", ref.String())
	text, err := f.recognizer.Recognize(ctx, ref)
	if err != nil {
		f.logger.Debug("Recognition failed", "error", err, "reference", ref.String())
		return finish(OutcomeFailed), err
	}
	result.Text = text

	if err := rng.InsertText(ctx, text); err != nil {
		f.logger.Debug("Recognized text could not be inserted", "error", err)
		return finish(OutcomeFailed), err
	}

	inserted := finish(OutcomeInserted)
	f.logger.Info("Recognized text inserted",
		"reference", ref.String(),
		"chars", len([]rune(text)),
		"elapsed", inserted.Elapsed)
	return inserted, nil
}

func (f *RecognitionFlow) report(ctx context.Context, result RecognitionResult) RecognitionResult {
	f.logger.Debug("Selection holds no usable image", "outcome", result.Outcome.String())
	f.notifier.Alert(ctx, SelectImageMessage)
	return result
}

func elapsedSince(started time.Time) time.Duration {
	elapsed := timecache.CachedTime().Sub(started)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
