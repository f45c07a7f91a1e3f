// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/estimate"
)

func newIssuesCommand(app *App) *cobra.Command {
	issuesCmd := &cobra.Command{
		Use:   "issues",
		Short: "Inspect issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	unestimatedCmd := &cobra.Command{
		Use:   "unestimated",
		Short: "List open issues assigned to a user that have no time estimate",
		Example: `  glops issues unestimated --user jdoe
  glops issues unestimated --user jdoe -o text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUnestimated(cmd, app)
		},
	}
	unestimatedCmd.Flags().String("user", "", "username of the assignee")
	_ = unestimatedCmd.MarkFlagRequired("user")

	issuesCmd.AddCommand(unestimatedCmd)
	return issuesCmd
}

func runUnestimated(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	username, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}

	client, err := app.client(s)
	if err != nil {
		return err
	}

	found, err := estimate.Unestimated(cmd.Context(), client, username)
	if err != nil {
		return describe(err, "list unestimated issues", username)
	}

	return writeResult(app.stdout, s.cfg.Output, found, func(w io.Writer) error {
		return estimate.WriteText(w, found)
	})
}
