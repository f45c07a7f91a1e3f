// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/gitlab"
	"github.com/glops/glops/internal/tags"
)

func newTagsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the most recent tags of a group's projects or of one project",
		Long: `List the most recent tags of every project in a group, or of one project.

Tags are returned newest first, as GitLab orders them. Projects without tags
map to an empty list. A project that fails is reported on stderr and the
command exits 1 after printing the other projects.`,
		Example: `  glops tags --group 42 --latest
  glops tags --project infra/network --amount -1
  GITLAB_GROUP_ID=42 glops tags -o text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTags(cmd, app)
		},
	}

	cmd.Flags().StringP("group", "g", "", "group id or path (env "+config.EnvGroupID+")")
	cmd.Flags().StringP("project", "p", "", "project id or path (env "+config.EnvProjectID+")")
	cmd.Flags().BoolP("latest", "l", false, "keep only the most recent tag of each project")
	cmd.Flags().IntP("amount", "a", config.DefaultTagAmount, "tags kept per project, -1 for all")
	cmd.MarkFlagsMutuallyExclusive("group", "project")

	return cmd
}

func runTags(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	group, err := s.stringOption(flags, "group", config.EnvGroupID, "")
	if err != nil {
		return err
	}
	project, err := s.stringOption(flags, "project", config.EnvProjectID, "")
	if err != nil {
		return err
	}
	amount, err := s.intOption(flags, "amount", "", s.cfg.Tags.Amount)
	if err != nil {
		return err
	}
	latest, err := flags.GetBool("latest")
	if err != nil {
		return err
	}

	client, err := app.client(s)
	if err != nil {
		return err
	}

	scope := gitlab.Scope{ProjectID: project, GroupID: group}
	res, err := tags.Collect(cmd.Context(), client, tags.Request{
		Scope:       scope,
		Truncation:  tags.Truncation{LatestOnly: latest, Amount: amount},
		Concurrency: s.cfg.Concurrency,
	})
	if err != nil {
		return describe(err, "list tags", scope.String())
	}

	if err := writeResult(app.stdout, s.cfg.Output, res.Aggregate, func(w io.Writer) error {
		return writeListText(w, res.Aggregate)
	}); err != nil {
		return err
	}
	return reportFailures(app.stderr, res.Errors)
}
