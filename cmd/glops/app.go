// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/glops/glops/internal/ciref"
	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/estimate"
	"github.com/glops/glops/internal/gitlab"
	"github.com/glops/glops/internal/mergerequest"
	"github.com/glops/glops/internal/pipeline"
	"github.com/glops/glops/internal/tags"
	"github.com/glops/glops/internal/users"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and reaches GitLab, the config file and git through it.
	App struct {
		Config   ConfigProvider
		Clients  ClientFactory
		Branches ciref.BranchResolver
		Lookup   config.LookupFunc
		stdout   io.Writer
		stderr   io.Writer
		// verbose is the resolved verbose setting of the last session.
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Clients  ClientFactory
		Branches ciref.BranchResolver
		// Lookup reads environment variables; os.LookupEnv when nil.
		Lookup config.LookupFunc
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// GitLabClient is every API call made by a glops command.
	GitLabClient interface {
		tags.Client
		mergerequest.Client
		pipeline.Client
		users.Client
		estimate.Client
	}

	// ClientFactory builds the API client for one invocation.
	ClientFactory func(cfg *config.Config) (GitLabClient, error)
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Clients == nil {
		deps.Clients = newGitLabClient
	}
	if deps.Branches == nil {
		deps.Branches = ciref.GitBranch{}
	}
	if deps.Lookup == nil {
		deps.Lookup = os.LookupEnv
	}

	return &App{
		Config:   deps.Config,
		Clients:  deps.Clients,
		Branches: deps.Branches,
		Lookup:   deps.Lookup,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}, nil
}

// newGitLabClient is the production ClientFactory.
func newGitLabClient(cfg *config.Config) (GitLabClient, error) {
	c, err := gitlab.NewClient(cfg.GitLab.URL,
		gitlab.WithHTTPClient(&http.Client{Timeout: cfg.GitLab.Timeout}),
		gitlab.WithToken(cfg.GitLab.Token),
		gitlab.WithUserAgent(config.AppName+"/"+Version),
		gitlab.WithPerPage(cfg.GitLab.PerPage),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
