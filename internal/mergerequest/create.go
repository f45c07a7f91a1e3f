// SPDX-License-Identifier: MPL-2.0

package mergerequest

import (
	"context"
	"errors"
	"strings"

	"github.com/glops/glops/internal/fanout"
	"github.com/glops/glops/internal/gitlab"
)

// DraftPrefix marks a merge request as not ready to be merged.
const DraftPrefix = "Draft: "

var (
	// ErrNoProjects is returned when no project id is given.
	ErrNoProjects = errors.New("at least one project is required")
	// ErrMissingBranch is returned when the source or target branch is empty.
	ErrMissingBranch = errors.New("source and target branch are required")
	// ErrMissingTitle is returned when a merge request would be opened without a title.
	ErrMissingTitle = errors.New("title is required")
)

type (
	// Client is the part of the GitLab API needed for merge requests.
	Client interface {
		CreateMergeRequest(ctx context.Context, projectID string, opts gitlab.CreateMergeRequestOptions) (*gitlab.MergeRequest, error)
		Compare(ctx context.Context, projectID, from, to string) (*gitlab.Comparison, error)
		ListMergeRequests(ctx context.Context, scope gitlab.Scope, state string) ([]gitlab.MergeRequest, error)
		ListMergeRequestVersions(ctx context.Context, projectID string, iid int) ([]gitlab.MergeRequestVersion, error)
	}

	// CreateRequest describes the merge requests to open, one per project.
	CreateRequest struct {
		ProjectIDs         []string
		SourceBranch       string
		TargetBranch       string
		Title              string
		Description        string
		AssigneeID         int
		MilestoneID        int
		RemoveSourceBranch bool
		Draft              bool
		Concurrency        int
	}

	// Created summarizes an opened merge request.
	Created struct {
		IID              int    `json:"iid"`
		ProjectID        string `json:"project_id"`
		AssigneeID       int    `json:"assignee_id,omitempty"`
		AssigneeCanMerge *bool  `json:"assignee_can_merge"`
		MergeStatus      string `json:"merge_status"`
		HasConflicts     bool   `json:"has_conflicts"`
		WebURL           string `json:"web_url"`
		SourceBranch     string `json:"source_branch"`
		TargetBranch     string `json:"target_branch"`
	}

	// BranchDiff tells whether the source branch of a project has changes
	// the target branch does not.
	BranchDiff struct {
		ProjectID    string `json:"project_id"`
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
		HasChanges   bool   `json:"has_changes"`
		Commits      int    `json:"commits"`
		Files        int    `json:"files"`
	}
)

func (r CreateRequest) validate(needTitle bool) error {
	if len(r.ProjectIDs) == 0 {
		return ErrNoProjects
	}
	if r.SourceBranch == "" || r.TargetBranch == "" {
		return ErrMissingBranch
	}
	if needTitle && strings.TrimSpace(r.Title) == "" {
		return ErrMissingTitle
	}
	return nil
}

// DraftTitle prefixes title with DraftPrefix unless it already carries it.
func DraftTitle(title string) string {
	if strings.HasPrefix(title, DraftPrefix) {
		return title
	}
	return DraftPrefix + title
}

func (r CreateRequest) options() gitlab.CreateMergeRequestOptions {
	title := r.Title
	if r.Draft {
		title = DraftTitle(title)
	}
	return gitlab.CreateMergeRequestOptions{
		SourceBranch:       r.SourceBranch,
		TargetBranch:       r.TargetBranch,
		Title:              title,
		Description:        r.Description,
		AssigneeID:         r.AssigneeID,
		MilestoneID:        r.MilestoneID,
		RemoveSourceBranch: r.RemoveSourceBranch,
	}
}

// Create opens one merge request per project. Failures in one project do not
// prevent the others; they are reported in the result keyed by project id.
func Create(ctx context.Context, c Client, req CreateRequest) (fanout.Result[Created], error) {
	if err := req.validate(true); err != nil {
		return fanout.Result[Created]{}, err
	}

	opts := req.options()
	fetch := func(ctx context.Context, p fanout.Parent) (Created, error) {
		mr, err := c.CreateMergeRequest(ctx, p.ID, opts)
		if err != nil {
			return Created{}, err
		}
		out := Created{
			IID:          mr.IID,
			ProjectID:    p.ID,
			AssigneeID:   req.AssigneeID,
			MergeStatus:  mr.MergeStatus,
			HasConflicts: mr.HasConflicts,
			WebURL:       mr.WebURL,
			SourceBranch: req.SourceBranch,
			TargetBranch: req.TargetBranch,
		}
		if mr.User != nil {
			canMerge := mr.User.CanMerge
			out.AssigneeCanMerge = &canMerge
		}
		return out, nil
	}

	return fanout.Run(ctx, fanout.ParentsFromIDs(req.ProjectIDs), fetch, fanout.Options{Concurrency: req.Concurrency}), nil
}

// CheckDiffs compares the target branch with the source branch in every
// project without opening anything.
func CheckDiffs(ctx context.Context, c Client, req CreateRequest) (fanout.Result[BranchDiff], error) {
	if err := req.validate(false); err != nil {
		return fanout.Result[BranchDiff]{}, err
	}

	fetch := func(ctx context.Context, p fanout.Parent) (BranchDiff, error) {
		cmp, err := c.Compare(ctx, p.ID, req.TargetBranch, req.SourceBranch)
		if err != nil {
			return BranchDiff{}, err
		}
		return BranchDiff{
			ProjectID:    p.ID,
			SourceBranch: req.SourceBranch,
			TargetBranch: req.TargetBranch,
			HasChanges:   cmp.HasChanges(),
			Commits:      len(cmp.Commits),
			Files:        len(cmp.Diffs),
		}, nil
	}

	return fanout.Run(ctx, fanout.ParentsFromIDs(req.ProjectIDs), fetch, fanout.Options{Concurrency: req.Concurrency}), nil
}
