// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"net/http"

	"github.com/glops/glops/internal/ciref"
	"github.com/glops/glops/internal/gitlab"
	"github.com/glops/glops/internal/issue"
	"github.com/glops/glops/internal/tfsource"
)

// describe wraps a command failure into an ActionableError carrying the
// catalog entry and suggestions that match its cause. Errors that already
// are actionable are returned unchanged.
func describe(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)

	var remote *gitlab.RemoteError
	switch {
	case errors.As(err, &remote):
		ctx.WithIssue(issue.RemoteRequestFailedId)
		switch remote.StatusCode {
		case http.StatusUnauthorized:
			ctx.WithSuggestion("Set a token with --token or GITLAB_PRIVATE_TOKEN")
		case http.StatusForbidden:
			ctx.WithSuggestion("Ask for access to the group or project")
		case http.StatusNotFound:
			ctx.WithSuggestion("Check the group or project id")
		}
	case errors.Is(err, gitlab.ErrTransport):
		ctx.WithIssue(issue.TransportFailedId).
			WithSuggestion("Check --url and your network, or raise --timeout")
	case errors.Is(err, gitlab.ErrDecode):
		ctx.WithIssue(issue.UnexpectedResponseId).
			WithSuggestion("Point --url at the GitLab root, not at a proxy or login page")
	case errors.Is(err, gitlab.ErrUserNotFound):
		ctx.WithIssue(issue.UserNotFoundId).
			WithSuggestion("Look the username up with 'glops users --username <name>'")
	case errors.Is(err, gitlab.ErrInvalidScope):
		ctx.WithIssue(issue.InvalidScopeId).
			WithSuggestion("Pass exactly one of --group or --project")
	case errors.Is(err, tfsource.ErrNotFoundLocal):
		ctx.WithIssue(issue.PathNotFoundId)
	case errors.Is(err, ciref.ErrNotAFile), errors.Is(err, ciref.ErrEmptyFile):
		ctx.WithIssue(issue.CIFileInvalidId).
			WithSuggestion("Pass the CI file with --file")
	case errors.Is(err, ciref.ErrDetachedHead):
		ctx.WithIssue(issue.BranchUnknownId).
			WithSuggestion("Pass the branch with --branch")
	}
	return ctx.BuildError()
}
