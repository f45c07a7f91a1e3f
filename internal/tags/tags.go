// SPDX-License-Identifier: MPL-2.0

package tags

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/glops/glops/internal/fanout"
	"github.com/glops/glops/internal/gitlab"
)

const (
	// Unbounded keeps every tag of the single response received.
	Unbounded = -1
	// DefaultAmount is the number of tags kept when no amount is given.
	DefaultAmount = 5
)

// ErrInvalidAmount is returned for an amount that is neither positive nor Unbounded.
var ErrInvalidAmount = errors.New("amount must be a positive number or -1 for all tags")

type (
	// Truncation decides how many tags of each project are kept.
	Truncation struct {
		// LatestOnly keeps only the first tag and ignores Amount.
		LatestOnly bool
		// Amount keeps the first Amount tags, or all of them when Unbounded.
		Amount int
	}

	// Client is the part of the GitLab API needed to collect tags.
	Client interface {
		ListGroupProjects(ctx context.Context, groupID string) ([]gitlab.Project, error)
		ListProjectTags(ctx context.Context, projectID string) ([]gitlab.Tag, error)
	}

	// Request selects the projects to inspect and how to truncate their tags.
	Request struct {
		Scope       gitlab.Scope
		Truncation  Truncation
		Concurrency int
	}
)

// Validate rejects amounts of zero and below -1.
func (t Truncation) Validate() error {
	if t.LatestOnly {
		return nil
	}
	if t.Amount == 0 || t.Amount < Unbounded {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, t.Amount)
	}
	return nil
}

// Apply returns the front of names allowed by the policy. The result is never nil.
func (t Truncation) Apply(names []string) []string {
	n := len(names)
	switch {
	case t.LatestOnly:
		n = min(n, 1)
	case t.Amount > 0:
		n = min(n, t.Amount)
	}
	out := make([]string, n)
	copy(out, names[:n])
	return out
}

// Collect lists the parents of the request scope and fetches their tags
// concurrently. A failure listing the parents is returned as an error and no
// tag request is made. Per-project failures are reported in the result.
func Collect(ctx context.Context, c Client, req Request) (fanout.Result[[]string], error) {
	if err := req.Scope.Validate(); err != nil {
		return fanout.Result[[]string]{}, err
	}
	if err := req.Truncation.Validate(); err != nil {
		return fanout.Result[[]string]{}, err
	}

	parents, err := listParents(ctx, c, req.Scope)
	if err != nil {
		return fanout.Result[[]string]{}, err
	}

	fetch := func(ctx context.Context, p fanout.Parent) ([]string, error) {
		tags, err := c.ListProjectTags(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return req.Truncation.Apply(gitlab.TagNames(tags)), nil
	}

	return fanout.Run(ctx, parents, fetch, fanout.Options{Concurrency: req.Concurrency}), nil
}

// listParents returns the projects of a group, or the single requested project
// named by its id without a lookup.
func listParents(ctx context.Context, c Client, scope gitlab.Scope) ([]fanout.Parent, error) {
	if scope.ProjectID != "" {
		return fanout.ParentsFromIDs([]string{scope.ProjectID}), nil
	}

	projects, err := c.ListGroupProjects(ctx, scope.GroupID)
	if err != nil {
		return nil, err
	}
	parents := make([]fanout.Parent, 0, len(projects))
	for _, p := range projects {
		parents = append(parents, fanout.Parent{ID: strconv.Itoa(p.ID), Name: p.Name})
	}
	return parents, nil
}
