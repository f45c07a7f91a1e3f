// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

type (
	// Issue is the subset of a GitLab issue glops reads.
	Issue struct {
		ID        int        `json:"id"`
		IID       int        `json:"iid"`
		ProjectID int        `json:"project_id"`
		Title     string     `json:"title"`
		WebURL    string     `json:"web_url"`
		Labels    []string   `json:"labels"`
		TimeStats *TimeStats `json:"time_stats"`
	}

	// TimeStats holds the time tracking figures of an issue, in seconds.
	TimeStats struct {
		TimeEstimate   int `json:"time_estimate"`
		TotalTimeSpent int `json:"total_time_spent"`
	}
)

// ListAssignedIssues lists issues assigned to the user with assigneeID in the
// given state ("opened", "closed", "all").
func (c *Client) ListAssignedIssues(ctx context.Context, assigneeID int, state string) ([]Issue, error) {
	q := c.listQuery()
	q.Set("scope", "assigned_to_me")
	q.Set("assignee_id", strconv.Itoa(assigneeID))
	if state != "" {
		q.Set("state", state)
	}

	var issues []Issue
	if err := c.do(ctx, http.MethodGet, "/issues", q, nil, &issues); err != nil {
		return nil, fmt.Errorf("listing issues assigned to user %d: %w", assigneeID, err)
	}
	return issues, nil
}
