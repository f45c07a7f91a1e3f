// SPDX-License-Identifier: MPL-2.0

package estimate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glops/glops/internal/gitlab"
)

type fakeClient struct {
	users  map[string]int
	issues map[int][]gitlab.Issue
	state  string
}

func (f *fakeClient) UserByUsername(_ context.Context, username string) (*gitlab.User, error) {
	id, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gitlab.ErrUserNotFound, username)
	}
	return &gitlab.User{ID: id, Username: username}, nil
}

func (f *fakeClient) ListAssignedIssues(_ context.Context, assigneeID int, state string) ([]gitlab.Issue, error) {
	f.state = state
	return f.issues[assigneeID], nil
}

func TestUnestimated(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{
		users: map[string]int{"alice": 3},
		issues: map[int][]gitlab.Issue{3: {
			{ID: 11, ProjectID: 5, Title: "No estimate", WebURL: "https://gl/i/11", Labels: []string{"bug", "backend"}, TimeStats: &gitlab.TimeStats{TotalTimeSpent: 600}},
			{ID: 12, ProjectID: 5, Title: "Estimated", TimeStats: &gitlab.TimeStats{TimeEstimate: 3600}},
			{ID: 13, ProjectID: 6, Title: "No tracking data"},
			{ID: 14, ProjectID: 6, Title: "Unlabeled", TimeStats: &gitlab.TimeStats{}},
		}},
	}

	got, err := Unestimated(context.Background(), fc, "alice")
	if err != nil {
		t.Fatalf("Unestimated: %v", err)
	}
	if fc.state != OpenedState {
		t.Errorf("state = %q, want %q", fc.state, OpenedState)
	}

	want := []Issue{
		{ID: 11, ProjectID: 5, Title: "No estimate", WebURL: "https://gl/i/11", Labels: []string{"bug", "backend"}, TotalTimeSpent: 600},
		{ID: 14, ProjectID: 6, Title: "Unlabeled", Labels: []string{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestUnestimated_UnknownUser(t *testing.T) {
	t.Parallel()

	_, err := Unestimated(context.Background(), &fakeClient{}, "ghost")
	if !errors.Is(err, gitlab.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteText(&buf, []Issue{{
		ID: 11, ProjectID: 5, Title: "No estimate", WebURL: "https://gl/i/11",
		Labels: []string{"bug", "backend"}, TotalTimeSpent: 600,
	}})
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	want := `11
  project_id: 5
  title: No estimate
  web_url: https://gl/i/11
  labels: bug, backend
  time estimated [seconds]: 0
  total_time_spent [seconds]: 600
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}
