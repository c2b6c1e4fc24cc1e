// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package pipeline implements the ordered handler/filter tree that turns a
// TransactionBundle's incoming request into a response (spec.md §4.3).
package pipeline

import (
	"context"
	"errors"

	"github.com/dhcpv6d/dhcpv6d/bundle"
)

// Errors a Handler's Pre or Handle method may return to affect pipeline
// control flow (spec.md §4.3). Run stops at the first error from Pre or
// Handle, whether one of these or any other, and returns it to the caller.
// Errors from Post never abort: each is passed to Run's onPostError
// callback and otherwise ignored.
var (
	// ErrCannotRespond aborts the whole pipeline; no response is sent.
	ErrCannotRespond = errors.New("pipeline: cannot respond")

	// ErrIgnoreMessage aborts the whole pipeline silently; identical
	// wire behavior to ErrCannotRespond. The worker does not count the two
	// apart: both increment ignored_messages, or rate_limited when the
	// bundle carries the "rate-limited" mark.
	ErrIgnoreMessage = errors.New("pipeline: ignore message")

	// ErrUseMulticast forces a UseMulticast status reply instead of the
	// response built so far.
	ErrUseMulticast = errors.New("pipeline: use multicast")
)

// Handler is a pipeline leaf (or the embedded capability set of a Filter):
// three phases plus worker lifecycle hooks. Any method may be a no-op;
// embed Base to get no-op defaults for the ones a handler doesn't need.
type Handler interface {
	Pre(ctx context.Context, b *bundle.Bundle) error
	Handle(ctx context.Context, b *bundle.Bundle) error
	Post(ctx context.Context, b *bundle.Bundle) error
	WorkerInit() error
	WorkerShutdown() error
}

// Filter is an interior node owning a nested subtree. If Matches returns
// false during the pre phase, the filter's entire subtree is skipped for
// every phase (spec.md §4.3).
type Filter interface {
	Handler
	Matches(b *bundle.Bundle) bool
}

// Base supplies no-op defaults for every Handler method. Embed it in a
// handler or filter that only needs to implement a subset, the way the
// teacher leaves Setup6/Setup4 nil when a plugin doesn't implement a
// protocol side.
type Base struct{}

func (Base) Pre(ctx context.Context, b *bundle.Bundle) error     { return nil }
func (Base) Handle(ctx context.Context, b *bundle.Bundle) error  { return nil }
func (Base) Post(ctx context.Context, b *bundle.Bundle) error    { return nil }
func (Base) WorkerInit() error                                  { return nil }
func (Base) WorkerShutdown() error                               { return nil }

// Node is one entry in a Pipeline: either a leaf Handler or an interior
// Filter (in which case Children holds its nested pipeline).
type Node struct {
	Handler  Handler
	Filter   Filter
	Children Pipeline
}

func (n *Node) isFilter() bool { return n.Filter != nil }

func (n *Node) handler() Handler {
	if n.isFilter() {
		return n.Filter
	}
	return n.Handler
}

// Leaf wraps h as a handler Node.
func Leaf(h Handler) *Node { return &Node{Handler: h} }

// Branch wraps f as a filter Node owning children.
func Branch(f Filter, children ...*Node) *Node {
	return &Node{Filter: f, Children: Pipeline(children)}
}

// Pipeline is an ordered list of nodes, run by Run for one Bundle
// (spec.md §4.3).
type Pipeline []*Node

// visit is one node in the flattened pre-order visit list built while
// evaluating the pre phase, recorded so the post phase can run over it in
// reverse (spec.md §4.3: "post phase runs in reverse order across the full
// flattened visit list").
type visit struct {
	node *Node
}

// Run executes the three-phase traversal against b: pre (filters gate
// subtrees), handle (builds the response), post (reverse order, errors
// logged and swallowed). It returns the first error from the pre or handle
// phase as-is, sentinel or not, and then skips the post phase.
func Run(ctx context.Context, pl Pipeline, b *bundle.Bundle, onPostError func(err error)) error {
	visited, err := runPre(ctx, pl, b)
	if err != nil {
		return err
	}
	if err := runHandle(ctx, visited, b); err != nil {
		return err
	}
	runPost(ctx, visited, b, onPostError)
	return nil
}

// runPre performs the pre phase and returns the flattened pre-order list of
// nodes that were not skipped by a non-matching filter.
func runPre(ctx context.Context, pl Pipeline, b *bundle.Bundle) ([]visit, error) {
	var visited []visit
	for _, n := range pl {
		if n.isFilter() && !n.Filter.Matches(b) {
			continue
		}
		if err := n.handler().Pre(ctx, b); err != nil {
			return nil, err
		}
		visited = append(visited, visit{node: n})
		if n.isFilter() {
			childVisited, err := runPre(ctx, n.Children, b)
			if err != nil {
				return nil, err
			}
			visited = append(visited, childVisited...)
		}
	}
	return visited, nil
}

// runHandle runs the handle phase over the already-filtered visit list, in
// order, stopping at the first control-flow or unexpected error.
func runHandle(ctx context.Context, visited []visit, b *bundle.Bundle) error {
	for _, v := range visited {
		if err := v.node.handler().Handle(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// runPost runs the post phase over the visit list in reverse order. Errors
// are reported via onPostError and otherwise ignored; post is never
// permitted to abort the response.
func runPost(ctx context.Context, visited []visit, b *bundle.Bundle, onPostError func(err error)) {
	for i := len(visited) - 1; i >= 0; i-- {
		if err := visited[i].node.handler().Post(ctx, b); err != nil && onPostError != nil {
			onPostError(err)
		}
	}
}

// WorkerInit calls WorkerInit on every handler and filter in the pipeline,
// depth-first, stopping at the first error.
func WorkerInit(pl Pipeline) error {
	for _, n := range pl {
		if err := n.handler().WorkerInit(); err != nil {
			return err
		}
		if n.isFilter() {
			if err := WorkerInit(n.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// WorkerShutdown calls WorkerShutdown on every handler and filter, logging
// (via the supplied callback) rather than aborting on error, since shutdown
// must make a best effort across every node.
func WorkerShutdown(pl Pipeline, onError func(err error)) {
	for _, n := range pl {
		if err := n.handler().WorkerShutdown(); err != nil && onError != nil {
			onError(err)
		}
		if n.isFilter() {
			WorkerShutdown(n.Children, onError)
		}
	}
}
