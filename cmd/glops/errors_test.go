// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"testing"

	"github.com/glops/glops/internal/ciref"
	"github.com/glops/glops/internal/gitlab"
	"github.com/glops/glops/internal/issue"
	"github.com/glops/glops/internal/tfsource"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantIssue  issue.Id
		suggestion string
	}{
		{
			name:       "unauthorized",
			err:        fmt.Errorf("listing tags: %w", &gitlab.RemoteError{StatusCode: http.StatusUnauthorized}),
			wantIssue:  issue.RemoteRequestFailedId,
			suggestion: "Set a token with --token or GITLAB_PRIVATE_TOKEN",
		},
		{
			name:       "not found",
			err:        &gitlab.RemoteError{StatusCode: http.StatusNotFound},
			wantIssue:  issue.RemoteRequestFailedId,
			suggestion: "Check the group or project id",
		},
		{
			name:       "transport",
			err:        &gitlab.TransportError{URL: "http://127.0.0.1:1", Err: errors.New("connection refused")},
			wantIssue:  issue.TransportFailedId,
			suggestion: "Check --url and your network, or raise --timeout",
		},
		{
			name:      "decode",
			err:       &gitlab.DecodeError{Err: errors.New("invalid character '<'")},
			wantIssue: issue.UnexpectedResponseId,
		},
		{
			name:      "unknown user",
			err:       fmt.Errorf("%w: ghost", gitlab.ErrUserNotFound),
			wantIssue: issue.UserNotFoundId,
		},
		{
			name:       "invalid scope",
			err:        gitlab.ErrInvalidScope,
			wantIssue:  issue.InvalidScopeId,
			suggestion: "Pass exactly one of --group or --project",
		},
		{
			name:      "missing local path",
			err:       &tfsource.NotFoundLocalError{Path: "nope"},
			wantIssue: issue.PathNotFoundId,
		},
		{
			name:       "empty CI file",
			err:        fmt.Errorf("%s: %w", ".gitlab-ci.yml", ciref.ErrEmptyFile),
			wantIssue:  issue.CIFileInvalidId,
			suggestion: "Pass the CI file with --file",
		},
		{
			name:       "detached head",
			err:        ciref.ErrDetachedHead,
			wantIssue:  issue.BranchUnknownId,
			suggestion: "Pass the branch with --branch",
		},
		{
			name: "unclassified",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := describe(tt.err, "list tags", "group 42")
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("describe() = %T, want *issue.ActionableError", err)
			}
			if ae.Issue != tt.wantIssue {
				t.Errorf("Issue = %v, want %v", ae.Issue, tt.wantIssue)
			}
			if tt.suggestion != "" && !slices.Contains(ae.Suggestions, tt.suggestion) {
				t.Errorf("Suggestions = %v, want %q", ae.Suggestions, tt.suggestion)
			}
			if !errors.Is(err, tt.err) {
				t.Error("describe() lost the cause")
			}
		})
	}
}

func TestDescribe_KeepsActionableErrors(t *testing.T) {
	t.Parallel()

	if describe(nil, "op", "") != nil {
		t.Error("describe(nil) != nil")
	}

	orig := issue.NewErrorContext().WithOperation("read env file").Wrap(errors.New("denied")).BuildError()
	if got := describe(orig, "list tags", ""); got != orig {
		t.Errorf("describe() rewrapped an actionable error: %v", got)
	}
}
