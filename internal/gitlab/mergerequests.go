// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidScope is returned when a list scope names neither or both of project and group.
var ErrInvalidScope = errors.New("exactly one of project or group must be set")

type (
	// Scope selects a project or a group for list endpoints that support both.
	Scope struct {
		ProjectID string
		GroupID   string
	}

	// MergeRequest is the subset of a merge request glops reads.
	MergeRequest struct {
		ID           int               `json:"id"`
		IID          int               `json:"iid"`
		ProjectID    int               `json:"project_id"`
		Title        string            `json:"title"`
		State        string            `json:"state"`
		MergeStatus  string            `json:"merge_status"`
		HasConflicts bool              `json:"has_conflicts"`
		WebURL       string            `json:"web_url"`
		SourceBranch string            `json:"source_branch"`
		TargetBranch string            `json:"target_branch"`
		User         *MergeRequestUser `json:"user,omitempty"`
	}

	// MergeRequestUser carries the permissions of the requesting user on a merge request.
	MergeRequestUser struct {
		CanMerge bool `json:"can_merge"`
	}

	// MergeRequestVersion is one diff version of a merge request.
	MergeRequestVersion struct {
		ID        int    `json:"id"`
		CreatedAt string `json:"created_at"`
		RealSize  string `json:"real_size"`
		State     string `json:"state"`
	}

	// CreateMergeRequestOptions are the fields sent when opening a merge request.
	// Zero ids are omitted from the request.
	CreateMergeRequestOptions struct {
		SourceBranch       string `json:"source_branch"`
		TargetBranch       string `json:"target_branch"`
		Title              string `json:"title"`
		Description        string `json:"description,omitempty"`
		AssigneeID         int    `json:"assignee_id,omitempty"`
		MilestoneID        int    `json:"milestone_id,omitempty"`
		RemoveSourceBranch bool   `json:"remove_source_branch"`
	}
)

// Validate checks that exactly one of ProjectID and GroupID is set.
func (s Scope) Validate() error {
	if (s.ProjectID == "") == (s.GroupID == "") {
		return ErrInvalidScope
	}
	return nil
}

// String returns a short description of the scope for messages.
func (s Scope) String() string {
	if s.ProjectID != "" {
		return "project " + s.ProjectID
	}
	return "group " + s.GroupID
}

// CreateMergeRequest opens a merge request in a project.
func (c *Client) CreateMergeRequest(ctx context.Context, projectID string, opts CreateMergeRequestOptions) (*MergeRequest, error) {
	var mr MergeRequest
	endpoint := fmt.Sprintf("/projects/%s/merge_requests", PathID(projectID))
	if err := c.do(ctx, http.MethodPost, endpoint, nil, opts, &mr); err != nil {
		return nil, fmt.Errorf("creating merge request in project %s: %w", projectID, err)
	}
	return &mr, nil
}

// ListMergeRequests lists merge requests of a project or group in the given state
// ("opened", "closed", "merged", "all"). An empty state lets the API decide.
func (c *Client) ListMergeRequests(ctx context.Context, scope Scope, state string) ([]MergeRequest, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/groups/%s/merge_requests", PathID(scope.GroupID))
	if scope.ProjectID != "" {
		endpoint = fmt.Sprintf("/projects/%s/merge_requests", PathID(scope.ProjectID))
	}
	q := c.listQuery()
	if state != "" {
		q.Set("state", state)
	}

	var mrs []MergeRequest
	if err := c.do(ctx, http.MethodGet, endpoint, q, nil, &mrs); err != nil {
		return nil, fmt.Errorf("listing merge requests of %s: %w", scope, err)
	}
	if mrs == nil {
		mrs = []MergeRequest{}
	}
	return mrs, nil
}

// ListMergeRequestVersions lists the diff versions of a merge request, newest first.
func (c *Client) ListMergeRequestVersions(ctx context.Context, projectID string, iid int) ([]MergeRequestVersion, error) {
	var versions []MergeRequestVersion
	endpoint := fmt.Sprintf("/projects/%s/merge_requests/%d/versions", PathID(projectID), iid)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &versions); err != nil {
		return nil, fmt.Errorf("listing versions of merge request !%d in project %s: %w", iid, projectID, err)
	}
	return versions, nil
}
