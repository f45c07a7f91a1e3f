// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"fmt"
	"net/http"
)

// User is the subset of a GitLab user glops reads.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	State    string `json:"state"`
}

// ListUsers lists users visible to the token (first page only).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", c.listQuery(), nil, &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// FindUsers looks users up by exact username. The API answers with an empty
// list when no user matches.
func (c *Client) FindUsers(ctx context.Context, username string) ([]User, error) {
	q := c.listQuery()
	q.Set("username", username)

	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", q, nil, &users); err != nil {
		return nil, fmt.Errorf("looking up user %q: %w", username, err)
	}
	return users, nil
}

// UserByUsername returns the user with the given username or ErrUserNotFound.
func (c *Client) UserByUsername(ctx context.Context, username string) (*User, error) {
	users, err := c.FindUsers(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return &users[0], nil
}
