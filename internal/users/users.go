// SPDX-License-Identifier: MPL-2.0

// Package users resolves GitLab usernames to user ids.
package users

import (
	"context"

	"github.com/glops/glops/internal/gitlab"
)

// Client is the part of the GitLab API needed to look users up.
type Client interface {
	ListUsers(ctx context.Context) ([]gitlab.User, error)
	FindUsers(ctx context.Context, username string) ([]gitlab.User, error)
}

// IDs maps usernames to user ids. With an empty username every user of the
// first page is returned; otherwise only the matching user, or an empty map
// when nobody has that username.
func IDs(ctx context.Context, c Client, username string) (map[string]int, error) {
	var (
		found []gitlab.User
		err   error
	)
	if username == "" {
		found, err = c.ListUsers(ctx)
	} else {
		found, err = c.FindUsers(ctx, username)
	}
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int, len(found))
	for _, u := range found {
		if username != "" && u.Username != username {
			continue
		}
		ids[u.Username] = u.ID
	}
	return ids, nil
}
