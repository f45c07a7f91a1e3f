// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{name: "operation only", err: &ActionableError{Operation: "list users"}, want: "failed to list users"},
		{name: "with resource", err: &ActionableError{Operation: "list tags", Resource: "project 7"}, want: "failed to list tags: project 7"},
		{
			name: "with cause",
			err:  &ActionableError{Operation: "list group projects", Resource: "group 42", Cause: errors.New("404 Group Not Found")},
			want: "failed to list group projects: group 42: 404 Group Not Found",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("create pipeline").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is did not reach the cause")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "create pipeline" {
		t.Errorf("errors.As = %+v", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "rewrite CI file",
		Resource:    ".gitlab-ci.yml",
		Suggestions: []string{"Pass --file", "Check the YAML"},
		Cause: &ActionableError{
			Operation: "read file",
			Cause:     errors.New("permission denied"),
		},
	}

	short := err.Format(false)
	for _, want := range []string{"failed to rewrite CI file: .gitlab-ci.yml", "• Pass --file", "• Check the YAML"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) includes the chain:\n%s", short)
	}

	long := err.Format(true)
	for _, want := range []string{"Error chain:", "1. failed to read file: permission denied", "2. permission denied"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, long)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError without operation = %v, want nil interface", err)
	}

	ae := NewErrorContext().
		WithOperation("find user").
		WithResource("jdoe").
		WithSuggestion("Check the username").
		WithIssue(UserNotFoundId).
		Build()
	if ae.Issue != UserNotFoundId || !ae.HasSuggestions() || ae.Resource != "jdoe" {
		t.Errorf("Build = %+v", ae)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	cause := errors.New("boom")
	ae := WrapWithContext(cause, "scan path", "./infra")
	if ae.Cause != cause || ae.Error() != "failed to scan path: ./infra: boom" {
		t.Errorf("WrapWithContext = %+v", ae)
	}
}
