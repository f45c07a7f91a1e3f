// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/glops/glops/internal/users"
)

func newUsersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Map usernames to user ids",
		Long: `Map usernames to user ids. Without --username the first page of users
is listed. An unknown username yields an empty map.`,
		Example: `  glops users --username jdoe
  glops users --per-page 100 -o text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsers(cmd, app)
		},
	}
	cmd.Flags().String("username", "", "exact username to look up")
	return cmd
}

func runUsers(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	username, err := cmd.Flags().GetString("username")
	if err != nil {
		return err
	}

	client, err := app.client(s)
	if err != nil {
		return err
	}

	ids, err := users.IDs(cmd.Context(), client, username)
	if err != nil {
		return describe(err, "list users", username)
	}

	return writeResult(app.stdout, s.cfg.Output, ids, func(w io.Writer) error {
		names := maps.Keys(ids)
		slices.Sort(names)
		for _, name := range names {
			if _, err := fmt.Fprintf(w, "%s: %d\n", KeyStyle.Render(name), ids[name]); err != nil {
				return err
			}
		}
		return nil
	})
}
