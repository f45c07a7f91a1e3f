// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"fmt"
	"net/http"
)

// Tag is a repository tag.
type Tag struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Target  string `json:"target"`
}

// ListProjectTags lists the tags of a project in the order the API returns them.
// GitLab orders tags by last update, newest first; that order is kept as-is.
func (c *Client) ListProjectTags(ctx context.Context, projectID string) ([]Tag, error) {
	var tags []Tag
	endpoint := fmt.Sprintf("/projects/%s/repository/tags", PathID(projectID))
	if err := c.do(ctx, http.MethodGet, endpoint, c.listQuery(), nil, &tags); err != nil {
		return nil, fmt.Errorf("listing tags of project %s: %w", projectID, err)
	}
	return tags, nil
}

// TagNames extracts the tag names, preserving order.
func TagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
