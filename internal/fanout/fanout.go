// SPDX-License-Identifier: MPL-2.0

package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the worker limit used when none is configured.
const DefaultConcurrency = 8

type (
	// Parent is the unit of fan-out: a project, a group or a local path.
	Parent struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// Aggregate maps a parent name to the value its worker produced.
	// When two parents share a name, the value drained last wins.
	Aggregate[T any] map[string]T

	// FetchFunc produces the dependent value of one parent.
	FetchFunc[T any] func(ctx context.Context, p Parent) (T, error)

	// Options tunes a Run.
	Options struct {
		// Concurrency caps simultaneous workers. Zero or negative means one
		// worker per parent with no cap.
		Concurrency int
	}

	// Result is the outcome of a Run: the successful values plus one error per
	// failed parent, in parent order.
	Result[T any] struct {
		Aggregate Aggregate[T]
		Errors    []*WorkerError
	}

	// WorkerError records the failure of the worker for one parent.
	WorkerError struct {
		Parent Parent
		Err    error
	}

	partial[T any] struct {
		index int
		name  string
		value T
		err   error
	}
)

// Error implements error.
func (e *WorkerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Parent.Name, e.Err)
}

// Unwrap returns the underlying fetch error.
func (e *WorkerError) Unwrap() error {
	return e.Err
}

// ParentsFromIDs builds parents whose name is their id, as used when the
// caller names projects or paths directly instead of listing them.
func ParentsFromIDs(ids []string) []Parent {
	parents := make([]Parent, 0, len(ids))
	for _, id := range ids {
		parents = append(parents, Parent{ID: id, Name: id})
	}
	return parents
}

// Run invokes fetch exactly once per parent and returns after every worker
// has finished. Worker failures do not stop sibling workers; they are
// collected in Result.Errors. A canceled ctx keeps workers that have not
// started yet from calling fetch and records ctx.Err() for their parents.
func Run[T any](ctx context.Context, parents []Parent, fetch FetchFunc[T], opts Options) Result[T] {
	results := make(chan partial[T], len(parents))

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, p := range parents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results <- partial[T]{index: i, name: p.Name, err: err}
				return nil
			}
			slog.Debug("fanout worker started", "parent", p.Name, "id", p.ID)
			v, err := fetch(ctx, p)
			results <- partial[T]{index: i, name: p.Name, value: v, err: err}
			return nil
		})
	}

	// Workers never return errors; Wait is only the join barrier.
	_ = g.Wait()
	close(results)

	res := Result[T]{Aggregate: make(Aggregate[T], len(parents))}
	failed := make([]*WorkerError, len(parents))
	for r := range results {
		if r.err != nil {
			failed[r.index] = &WorkerError{Parent: parents[r.index], Err: r.err}
			continue
		}
		res.Aggregate[r.name] = r.value
	}
	for _, werr := range failed {
		if werr != nil {
			res.Errors = append(res.Errors, werr)
		}
	}

	return res
}

// Err joins every worker error, or returns nil when all workers succeeded.
func (r Result[T]) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Names returns the aggregate keys in sorted order.
func (a Aggregate[T]) Names() []string {
	names := maps.Keys(a)
	slices.Sort(names)
	return names
}
