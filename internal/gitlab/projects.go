// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type (
	// Project is the subset of a GitLab project glops reads.
	Project struct {
		ID                int    `json:"id"`
		Name              string `json:"name"`
		PathWithNamespace string `json:"path_with_namespace"`
		WebURL            string `json:"web_url"`
	}

	// Comparison is the result of comparing two refs of a project.
	Comparison struct {
		Commits        []Commit `json:"commits"`
		Diffs          []Diff   `json:"diffs"`
		CompareSameRef bool     `json:"compare_same_ref"`
	}

	// Commit is a commit entry of a comparison.
	Commit struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	// Diff is a file entry of a comparison.
	Diff struct {
		OldPath string `json:"old_path"`
		NewPath string `json:"new_path"`
	}
)

// HasChanges reports whether the compared refs differ.
func (c *Comparison) HasChanges() bool {
	return !c.CompareSameRef && (len(c.Commits) > 0 || len(c.Diffs) > 0)
}

// ListGroupProjects lists the projects of a group. An empty group yields an
// empty slice and no error.
func (c *Client) ListGroupProjects(ctx context.Context, groupID string) ([]Project, error) {
	var projects []Project
	endpoint := fmt.Sprintf("/groups/%s/projects", PathID(groupID))
	if err := c.do(ctx, http.MethodGet, endpoint, c.listQuery(), nil, &projects); err != nil {
		return nil, fmt.Errorf("listing projects of group %s: %w", groupID, err)
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

// Compare compares two refs of a project. to is compared against from, so
// commits on to that are missing from from are reported.
func (c *Client) Compare(ctx context.Context, projectID, from, to string) (*Comparison, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	var cmp Comparison
	endpoint := fmt.Sprintf("/projects/%s/repository/compare", PathID(projectID))
	if err := c.do(ctx, http.MethodGet, endpoint, q, nil, &cmp); err != nil {
		return nil, fmt.Errorf("comparing %s...%s in project %s: %w", from, to, projectID, err)
	}
	return &cmp, nil
}
