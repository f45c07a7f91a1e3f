// SPDX-License-Identifier: MPL-2.0

// Package estimate finds open issues assigned to a user that carry no time
// estimate.
package estimate

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/glops/glops/internal/gitlab"
)

// OpenedState restricts the issue listing to open issues.
const OpenedState = "opened"

type (
	// Client is the part of the GitLab API needed to find unestimated issues.
	Client interface {
		UserByUsername(ctx context.Context, username string) (*gitlab.User, error)
		ListAssignedIssues(ctx context.Context, assigneeID int, state string) ([]gitlab.Issue, error)
	}

	// Issue is an unestimated issue.
	Issue struct {
		ID             int      `json:"id"`
		ProjectID      int      `json:"project_id"`
		Title          string   `json:"title"`
		WebURL         string   `json:"web_url"`
		Labels         []string `json:"labels"`
		TimeEstimate   int      `json:"time_estimate"`
		TotalTimeSpent int      `json:"total_time_spent"`
	}
)

// Unestimated resolves username and returns its open assigned issues whose
// time estimate is zero, in API order. Issues without time tracking data are
// skipped. An unknown username yields an error wrapping gitlab.ErrUserNotFound.
func Unestimated(ctx context.Context, c Client, username string) ([]Issue, error) {
	user, err := c.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	issues, err := c.ListAssignedIssues(ctx, user.ID, OpenedState)
	if err != nil {
		return nil, err
	}

	out := []Issue{}
	for _, is := range issues {
		if is.TimeStats == nil || is.TimeStats.TimeEstimate != 0 {
			continue
		}
		labels := is.Labels
		if labels == nil {
			labels = []string{}
		}
		out = append(out, Issue{
			ID:             is.ID,
			ProjectID:      is.ProjectID,
			Title:          is.Title,
			WebURL:         is.WebURL,
			Labels:         labels,
			TimeEstimate:   is.TimeStats.TimeEstimate,
			TotalTimeSpent: is.TimeStats.TotalTimeSpent,
		})
	}
	return out, nil
}

// WriteText prints issues as an id line followed by indented key: value lines.
func WriteText(w io.Writer, issues []Issue) error {
	for _, is := range issues {
		fields := [][2]string{
			{"project_id", strconv.Itoa(is.ProjectID)},
			{"title", is.Title},
			{"web_url", is.WebURL},
			{"labels", strings.Join(is.Labels, ", ")},
			{"time estimated [seconds]", strconv.Itoa(is.TimeEstimate)},
			{"total_time_spent [seconds]", strconv.Itoa(is.TotalTimeSpent)},
		}
		if _, err := fmt.Fprintln(w, is.ID); err != nil {
			return err
		}
		for _, f := range fields {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", f[0], f[1]); err != nil {
				return err
			}
		}
	}
	return nil
}
