// rod_document.go: Live browser page document backed by go-rod
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Range handles are kept in the page so the same Range object is used for
// snapshot and insertion, whatever happened to the page in between.
const (
	rodSelectionJS = `() => {
		const sel = window.getSelection();
		if (!sel || sel.rangeCount === 0) return null;
		const range = sel.getRangeAt(0);
		const store = (window.__selectocrRanges = window.__selectocrRanges || {});
		window.__selectocrNextRange = (window.__selectocrNextRange || 0) + 1;
		const id = String(window.__selectocrNextRange);
		store[id] = range;
		return { id: id, collapsed: range.collapsed };
	}`

	rodCloneJS = `(id) => {
		const range = (window.__selectocrRanges || {})[id];
		if (!range) throw new Error('unknown range ' + id);
		const holder = document.createElement('div');
		holder.appendChild(range.cloneContents());
		return holder.innerHTML;
	}`

	rodInsertJS = `(id, text) => {
		const range = (window.__selectocrRanges || {})[id];
		if (!range) throw new Error('unknown range ' + id);
		range.insertNode(document.createTextNode(text));
	}`

	rodReleaseJS = `(id) => {
		if (window.__selectocrRanges) delete window.__selectocrRanges[id];
	}`

	rodAlertJS = `(message) => window.alert(message)`
)

// RodDocument reads the selection of a live page driven by go-rod.
type RodDocument struct {
	page *rod.Page
}

// NewRodDocument creates a document over page.
func NewRodDocument(page *rod.Page) *RodDocument {
	return &RodDocument{page: page}
}

// Selection implements Document.
func (d *RodDocument) Selection(ctx context.Context) (Range, error) {
	res, err := d.page.Context(ctx).Eval(rodSelectionJS)
	if err != nil {
		return nil, NewSelectionUnavailableError(err)
	}
	if res == nil || res.Value.Nil() {
		return nil, nil
	}
	return &RodRange{
		page:      d.page,
		id:        res.Value.Get("id").Str(),
		collapsed: res.Value.Get("collapsed").Bool(),
	}, nil
}

// RodRange is a handle to a Range object held by the page.
type RodRange struct {
	page      *rod.Page
	id        string
	collapsed bool
}

// ID returns the page-side handle id.
func (r *RodRange) ID() string {
	return r.id
}

// Collapsed implements Range. The value is the one observed when the handle was taken.
func (r *RodRange) Collapsed() bool {
	return r.collapsed
}

// CloneContents implements Range.
func (r *RodRange) CloneContents(ctx context.Context) (*Snapshot, error) {
	res, err := r.page.Context(ctx).Eval(rodCloneJS, r.id)
	if err != nil {
		return nil, NewSnapshotFailedError(err)
	}
	return ParseSnapshot(res.Value.Str())
}

// InsertText implements Range.
func (r *RodRange) InsertText(ctx context.Context, text string) error {
	if _, err := r.page.Context(ctx).Eval(rodInsertJS, r.id, text); err != nil {
		return NewInsertFailedError(err)
	}
	return nil
}

// Release drops the page-side handle.
func (r *RodRange) Release(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(rodReleaseJS, r.id)
	return err
}

// RodNotifier reports through window.alert. The call blocks until the
// dialog is dismissed; with AutoDismiss the dialog is accepted right away,
// which suits headless browsers.
type RodNotifier struct {
	page        *rod.Page
	AutoDismiss bool
	logger      Logger
}

// NewRodNotifier creates a notifier for page.
func NewRodNotifier(page *rod.Page, autoDismiss bool, logger any) *RodNotifier {
	return &RodNotifier{page: page, AutoDismiss: autoDismiss, logger: NewLogger(logger)}
}

// Alert implements Notifier.
func (n *RodNotifier) Alert(ctx context.Context, message string) {
	page := n.page.Context(ctx)
	if n.AutoDismiss {
		wait, handle := page.HandleDialog()
		go func() {
			wait()
			if err := handle(&proto.PageHandleJavaScriptDialog{Accept: true}); err != nil {
				n.logger.Debug("Failed to dismiss alert dialog", "error", err)
			}
		}()
	}
	if _, err := page.Eval(rodAlertJS, message); err != nil {
		n.logger.Warn("Alert could not be shown", "error", err, "message", message)
	}
}

// ExposeRecognition binds flow to a page function, so a user gesture in the
// page (a button calling window[name]()) runs one recognition. The binding
// resolves with the outcome name.
func ExposeRecognition(page *rod.Page, name string, flow *RecognitionFlow) (stop func() error, err error) {
	ctx := page.GetContext()
	stop, err = page.Expose(name, func(gson.JSON) (interface{}, error) {
		result, runErr := flow.Run(ctx)
		if runErr != nil {
			return nil, fmt.Errorf("recognition failed: %w", runErr)
		}
		return result.Outcome.String(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expose %s: %w", name, err)
	}
	return stop, nil
}
