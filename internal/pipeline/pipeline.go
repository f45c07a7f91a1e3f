// SPDX-License-Identifier: MPL-2.0

// Package pipeline triggers pipelines for the same reference in several projects.
package pipeline

import (
	"context"
	"errors"

	"github.com/glops/glops/internal/fanout"
	"github.com/glops/glops/internal/gitlab"
)

var (
	// ErrNoProjects is returned when no project id is given.
	ErrNoProjects = errors.New("at least one project is required")
	// ErrMissingReference is returned when no branch, tag or other reference is given.
	ErrMissingReference = errors.New("reference is required")
)

type (
	// Client is the part of the GitLab API needed to trigger pipelines.
	Client interface {
		CreatePipeline(ctx context.Context, projectID, ref string) (*gitlab.Pipeline, error)
	}

	// Request names the projects and the reference to build.
	Request struct {
		ProjectIDs  []string
		Reference   string
		Concurrency int
	}

	// Created summarizes a triggered pipeline.
	Created struct {
		ID         int    `json:"id"`
		ProjectID  string `json:"project_id"`
		Ref        string `json:"ref"`
		Status     string `json:"status"`
		WebURL     string `json:"web_url"`
		YamlErrors string `json:"yaml_errors,omitempty"`
	}
)

// Create triggers one pipeline per project. Per-project failures are
// collected in the result and do not stop the other projects.
func Create(ctx context.Context, c Client, req Request) (fanout.Result[Created], error) {
	if len(req.ProjectIDs) == 0 {
		return fanout.Result[Created]{}, ErrNoProjects
	}
	if req.Reference == "" {
		return fanout.Result[Created]{}, ErrMissingReference
	}

	fetch := func(ctx context.Context, p fanout.Parent) (Created, error) {
		pl, err := c.CreatePipeline(ctx, p.ID, req.Reference)
		if err != nil {
			return Created{}, err
		}
		return Created{
			ID:         pl.ID,
			ProjectID:  p.ID,
			Ref:        pl.Ref,
			Status:     pl.Status,
			WebURL:     pl.WebURL,
			YamlErrors: pl.YamlErrors,
		}, nil
	}

	return fanout.Run(ctx, fanout.ParentsFromIDs(req.ProjectIDs), fetch, fanout.Options{Concurrency: req.Concurrency}), nil
}
