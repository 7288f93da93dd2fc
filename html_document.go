// html_document.go: In-memory HTML document with DOM-style selection ranges
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
)

// Selection markers recognized by ParseHTMLDocument: <!--[--> opens the
// selection and <!--]--> closes it. Both are removed from the document.
const (
	SelectionStartMarker = "["
	SelectionEndMarker   = "]"
)

// HTMLDocument is an editable HTML document with at most one selection range.
//
// Boundary points follow DOM semantics: in an element the offset counts
// children, in a text node it counts characters.
type HTMLDocument struct {
	mu        sync.Mutex
	root      *html.Node
	selection *HTMLRange
}

// ParseHTMLDocument parses a document and takes its selection from the
// marker comments. A single marker yields a collapsed selection; no marker
// yields no selection.
func ParseHTMLDocument(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, NewDocumentParseError(err)
	}

	doc := &HTMLDocument{root: root}

	start := findNode(root, isMarker(SelectionStartMarker))
	var startNode *html.Node
	startOffset := 0
	if start != nil {
		startNode, startOffset = start.Parent, childIndex(start)
		start.Parent.RemoveChild(start)
	}

	end := findNode(root, isMarker(SelectionEndMarker))
	var endNode *html.Node
	endOffset := 0
	if end != nil {
		endNode, endOffset = end.Parent, childIndex(end)
		end.Parent.RemoveChild(end)
	}

	switch {
	case startNode != nil && endNode != nil:
		doc.selection = doc.newRange(startNode, startOffset, endNode, endOffset)
	case startNode != nil:
		doc.selection = doc.newRange(startNode, startOffset, startNode, startOffset)
	case endNode != nil:
		doc.selection = doc.newRange(endNode, endOffset, endNode, endOffset)
	}
	return doc, nil
}

// NewHTMLDocument wraps an already parsed tree without a selection.
func NewHTMLDocument(root *html.Node) *HTMLDocument {
	return &HTMLDocument{root: root}
}

func (d *HTMLDocument) newRange(startNode *html.Node, startOffset int, endNode *html.Node, endOffset int) *HTMLRange {
	return &HTMLRange{
		doc:         d,
		startNode:   startNode,
		startOffset: startOffset,
		endNode:     endNode,
		endOffset:   endOffset,
	}
}

// Selection implements Document.
func (d *HTMLDocument) Selection(_ context.Context) (Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selection == nil {
		return nil, nil
	}
	return d.selection, nil
}

// Select replaces the selection. Offsets must lie within their node.
func (d *HTMLDocument) Select(startNode *html.Node, startOffset int, endNode *html.Node, endOffset int) (*HTMLRange, error) {
	if err := validBoundary(startNode, startOffset); err != nil {
		return nil, err
	}
	if err := validBoundary(endNode, endOffset); err != nil {
		return nil, err
	}
	if commonAncestor(startNode, endNode) == nil {
		return nil, NewInvalidBoundaryError("boundaries are in different trees", endOffset)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = d.newRange(startNode, startOffset, endNode, endOffset)
	return d.selection, nil
}

// SelectNode selects n as a whole, like Range.selectNode.
func (d *HTMLDocument) SelectNode(n *html.Node) (*HTMLRange, error) {
	if n == nil || n.Parent == nil {
		return nil, NewInvalidBoundaryError("node has no parent", 0)
	}
	i := childIndex(n)
	return d.Select(n.Parent, i, n.Parent, i+1)
}

// ClearSelection removes the selection. Range handles already handed out stay usable.
func (d *HTMLDocument) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = nil
}

// Root returns the document node.
func (d *HTMLDocument) Root() *html.Node {
	return d.root
}

// Find returns the first node in document order matching match.
func (d *HTMLDocument) Find(match func(*html.Node) bool) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findNode(d.root, match)
}

// FindElement returns the first element with the given tag name.
func (d *HTMLDocument) FindElement(tag string) *html.Node {
	return d.Find(func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

// Mutate runs fn with the document locked, for edits made outside the range API.
func (d *HTMLDocument) Mutate(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// Render serializes the whole document.
func (d *HTMLDocument) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderBody serializes the children of <body>, or the whole document when there is no body.
func (d *HTMLDocument) RenderBody() (string, error) {
	body := d.FindElement("body")
	if body == nil {
		return d.Render()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// HTMLRange is a selection range in an HTMLDocument.
//
// The range is not live: document edits made after it was created do not
// move its boundaries.
type HTMLRange struct {
	doc         *HTMLDocument
	startNode   *html.Node
	startOffset int
	endNode     *html.Node
	endOffset   int
}

// Start returns the start boundary point.
func (r *HTMLRange) Start() (*html.Node, int) {
	return r.startNode, r.startOffset
}

// End returns the end boundary point.
func (r *HTMLRange) End() (*html.Node, int) {
	return r.endNode, r.endOffset
}

// Collapsed implements Range.
func (r *HTMLRange) Collapsed() bool {
	return r.startNode == r.endNode && r.startOffset == r.endOffset
}

// CloneContents implements Range, following DOM Range.cloneContents:
// contained nodes are deep-cloned and partially contained nodes are
// shallow-cloned with their contents truncated at the boundaries.
func (r *HTMLRange) CloneContents(_ context.Context) (*Snapshot, error) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	if r.Collapsed() {
		return NewSnapshot(), nil
	}

	ca := commonAncestor(r.startNode, r.endNode)
	if ca == nil {
		return nil, NewSnapshotFailedError(fmt.Errorf("range boundaries no longer share a tree"))
	}

	if isCharacterData(ca) {
		runes := []rune(ca.Data)
		from, to := clampOffset(r.startOffset, len(runes)), clampOffset(r.endOffset, len(runes))
		if from >= to {
			return NewSnapshot(), nil
		}
		return NewSnapshot(cloneCharacterData(ca, string(runes[from:to]))), nil
	}

	sp := pointPath(ca, r.startNode, r.startOffset)
	ep := pointPath(ca, r.endNode, r.endOffset)
	if comparePath(sp, ep) >= 0 {
		return NewSnapshot(), nil
	}
	return NewSnapshot(cloneBetween(ca, sp, ep)...), nil
}

// InsertText implements Range, following DOM Range.insertNode with a new
// text node at the start boundary. A text start container is split.
func (r *HTMLRange) InsertText(_ context.Context, text string) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	node := &html.Node{Type: html.TextNode, Data: text}
	start, offset := r.startNode, r.startOffset

	switch start.Type {
	case html.TextNode:
		parent := start.Parent
		if parent == nil {
			return NewInsertFailedError(fmt.Errorf("text container has no parent"))
		}
		runes := []rune(start.Data)
		if offset < 0 || offset > len(runes) {
			return NewInsertFailedError(NewInvalidBoundaryError("offset outside text", offset))
		}
		switch offset {
		case 0:
			parent.InsertBefore(node, start)
		case len(runes):
			parent.InsertBefore(node, start.NextSibling)
		default:
			tail := &html.Node{Type: html.TextNode, Data: string(runes[offset:])}
			start.Data = string(runes[:offset])
			parent.InsertBefore(tail, start.NextSibling)
			parent.InsertBefore(node, tail)
		}
	case html.ElementNode, html.DocumentNode:
		ref, err := childAt(start, offset)
		if err != nil {
			return NewInsertFailedError(err)
		}
		start.InsertBefore(node, ref)
	default:
		return NewInsertFailedError(fmt.Errorf("cannot insert into a %s container", nodeTypeName(start.Type)))
	}
	return nil
}

// cloneBetween clones the children of parent that intersect (sp, ep).
// sp and ep are boundary paths relative to parent; nil means unbounded.
func cloneBetween(parent *html.Node, sp, ep []int) []*html.Node {
	var out []*html.Node
	i := 0
	for c := parent.FirstChild; c != nil; c, i = c.NextSibling, i+1 {
		if ep != nil && comparePath([]int{i}, ep) >= 0 {
			break
		}
		if sp != nil && comparePath([]int{i + 1}, sp) <= 0 {
			continue
		}

		csp := innerPath(sp, i)
		cep := innerPath(ep, i)
		switch {
		case csp == nil && cep == nil:
			out = append(out, deepClone(c))
		case isCharacterData(c):
			runes := []rune(c.Data)
			from, to := 0, len(runes)
			if csp != nil {
				from = clampOffset(csp[0], len(runes))
			}
			if cep != nil {
				to = clampOffset(cep[0], len(runes))
			}
			if from < to {
				out = append(out, cloneCharacterData(c, string(runes[from:to])))
			}
		default:
			shallow := shallowClone(c)
			for _, child := range cloneBetween(c, csp, cep) {
				shallow.AppendChild(child)
			}
			out = append(out, shallow)
		}
	}
	return out
}

// innerPath returns the part of p below child i, or nil when p does not
// point inside child i.
func innerPath(p []int, i int) []int {
	if len(p) > 1 && p[0] == i {
		return p[1:]
	}
	return nil
}

// pointPath returns the child-index path from ancestor down to node,
// followed by offset.
func pointPath(ancestor, node *html.Node, offset int) []int {
	var path []int
	for n := node; n != ancestor && n != nil; n = n.Parent {
		path = append(path, childIndex(n))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return append(path, offset)
}

// comparePath orders boundary paths; a prefix sorts before its extensions.
func comparePath(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func commonAncestor(a, b *html.Node) *html.Node {
	if a == nil || b == nil {
		return nil
	}
	seen := make(map[*html.Node]struct{})
	for n := a; n != nil; n = n.Parent {
		seen[n] = struct{}{}
	}
	for n := b; n != nil; n = n.Parent {
		if _, ok := seen[n]; ok {
			return n
		}
	}
	return nil
}

func childIndex(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		i++
	}
	return i
}

func childAt(n *html.Node, offset int) (*html.Node, error) {
	if offset < 0 {
		return nil, NewInvalidBoundaryError("negative offset", offset)
	}
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if i == offset {
			return c, nil
		}
		i++
	}
	if offset == i {
		return nil, nil
	}
	return nil, NewInvalidBoundaryError("offset past last child", offset)
}

func nodeLength(n *html.Node) int {
	if isCharacterData(n) {
		return len([]rune(n.Data))
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func validBoundary(n *html.Node, offset int) error {
	if n == nil {
		return NewInvalidBoundaryError("nil container", offset)
	}
	if n.Type == html.DoctypeNode {
		return NewInvalidBoundaryError("doctype container", offset)
	}
	if offset < 0 || offset > nodeLength(n) {
		return NewInvalidBoundaryError("offset outside container", offset)
	}
	return nil
}

func clampOffset(offset, length int) int {
	if offset < 0 {
		return 0
	}
	if offset > length {
		return length
	}
	return offset
}

func isCharacterData(n *html.Node) bool {
	return n.Type == html.TextNode || n.Type == html.CommentNode
}

func cloneCharacterData(n *html.Node, data string) *html.Node {
	return &html.Node{Type: n.Type, Data: data}
}

func shallowClone(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		clone.Attr = make([]html.Attribute, len(n.Attr))
		copy(clone.Attr, n.Attr)
	}
	return clone
}

func deepClone(n *html.Node) *html.Node {
	clone := shallowClone(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(deepClone(c))
	}
	return clone
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func isMarker(marker string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.CommentNode && n.Data == marker && n.Parent != nil
	}
}

func nodeTypeName(t html.NodeType) string {
	switch t {
	case html.ErrorNode:
		return "error"
	case html.TextNode:
		return "text"
	case html.DocumentNode:
		return "document"
	case html.ElementNode:
		return "element"
	case html.CommentNode:
		return "comment"
	case html.DoctypeNode:
		return "doctype"
	default:
		return "raw"
	}
}
