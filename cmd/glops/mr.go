// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/gitlab"
	"github.com/glops/glops/internal/mergerequest"
)

func newMRCommand(app *App) *cobra.Command {
	mrCmd := &cobra.Command{
		Use:     "mr",
		Aliases: []string{"merge-request"},
		Short:   "Open, check and list merge requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	mrCmd.AddCommand(newMRCreateCommand(app), newMRListCommand(app))
	return mrCmd
}

func newMRCreateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open the same merge request in one or more projects",
		Long: `Open a merge request from the source branch to the target branch in every
given project.

With --only-check-diffs nothing is opened: each project reports whether the
source branch has commits the target branch lacks. Environment variables
(GITLAB_PROJECT_ID, GITLAB_SOURCE_BRANCH, GITLAB_TARGET_BRANCH, GITLAB_MR_TITLE,
GITLAB_MR_DESCRIPTION, GITLAB_ASSIGNEE_ID, GITLAB_MILESTONE_ID) override the flags.`,
		Example: `  glops mr create -p 12,13 --source-branch staging --target-branch master --title "Release 1.4"
  glops mr create -p 12 --source-branch staging --target-branch master --only-check-diffs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMRCreate(cmd, app)
		},
	}

	f := cmd.Flags()
	f.StringSliceP("projects", "p", nil, "project ids or paths (env "+config.EnvProjectID+")")
	f.String("source-branch", "", "branch with the changes (env "+config.EnvSourceBranch+")")
	f.String("target-branch", "", "branch to merge into (env "+config.EnvTargetBranch+")")
	f.String("title", "", "merge request title (env "+config.EnvMRTitle+")")
	f.String("description", "", "merge request description (env "+config.EnvMRDescription+")")
	f.Int("assignee-id", 0, "user id of the assignee (env "+config.EnvAssigneeID+")")
	f.Int("milestone-id", 0, "milestone id (env "+config.EnvMilestoneID+")")
	f.Bool("remove-source-branch", false, "delete the source branch once merged")
	f.Bool("draft", false, "open the merge request as a draft")
	f.Bool("only-check-diffs", false, "only report whether the branches differ")

	return cmd
}

func runMRCreate(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	req, err := mrCreateRequest(cmd, s)
	if err != nil {
		return err
	}
	onlyDiffs, err := cmd.Flags().GetBool("only-check-diffs")
	if err != nil {
		return err
	}

	client, err := app.client(s)
	if err != nil {
		return err
	}

	if onlyDiffs {
		res, err := mergerequest.CheckDiffs(cmd.Context(), client, req)
		if err != nil {
			return describe(err, "compare branches", req.SourceBranch+".."+req.TargetBranch)
		}
		if err := writeResult(app.stdout, s.cfg.Output, res.Aggregate, func(w io.Writer) error {
			return writeRecordsText(w, res.Aggregate, branchDiffFields)
		}); err != nil {
			return err
		}
		return reportFailures(app.stderr, res.Errors)
	}

	res, err := mergerequest.Create(cmd.Context(), client, req)
	if err != nil {
		return describe(err, "create merge requests", req.SourceBranch+" -> "+req.TargetBranch)
	}
	if err := writeResult(app.stdout, s.cfg.Output, res.Aggregate, func(w io.Writer) error {
		return writeRecordsText(w, res.Aggregate, createdMRFields)
	}); err != nil {
		return err
	}
	return reportFailures(app.stderr, res.Errors)
}

func mrCreateRequest(cmd *cobra.Command, s *session) (mergerequest.CreateRequest, error) {
	flags := cmd.Flags()
	req := mergerequest.CreateRequest{Concurrency: s.cfg.Concurrency}

	var err error
	if req.ProjectIDs, err = s.listOption(flags, "projects", config.EnvProjectID, nil); err != nil {
		return req, err
	}
	if req.SourceBranch, err = s.stringOption(flags, "source-branch", config.EnvSourceBranch, ""); err != nil {
		return req, err
	}
	if req.TargetBranch, err = s.stringOption(flags, "target-branch", config.EnvTargetBranch, ""); err != nil {
		return req, err
	}
	if req.Title, err = s.stringOption(flags, "title", config.EnvMRTitle, ""); err != nil {
		return req, err
	}
	if req.Description, err = s.stringOption(flags, "description", config.EnvMRDescription, ""); err != nil {
		return req, err
	}
	if req.AssigneeID, err = s.intOption(flags, "assignee-id", config.EnvAssigneeID, 0); err != nil {
		return req, err
	}
	if req.MilestoneID, err = s.intOption(flags, "milestone-id", config.EnvMilestoneID, 0); err != nil {
		return req, err
	}
	if req.RemoveSourceBranch, err = flags.GetBool("remove-source-branch"); err != nil {
		return req, err
	}
	if req.Draft, err = flags.GetBool("draft"); err != nil {
		return req, err
	}
	return req, nil
}

func createdMRFields(mr mergerequest.Created) []field {
	canMerge := "unknown"
	if mr.AssigneeCanMerge != nil {
		canMerge = fmt.Sprint(*mr.AssigneeCanMerge)
	}
	return []field{
		{"iid", mr.IID},
		{"web_url", mr.WebURL},
		{"merge_status", mr.MergeStatus},
		{"has_conflicts", mr.HasConflicts},
		{"assignee_can_merge", canMerge},
		{"branches", mr.SourceBranch + " -> " + mr.TargetBranch},
	}
}

func branchDiffFields(d mergerequest.BranchDiff) []field {
	return []field{
		{"has_changes", d.HasChanges},
		{"commits", d.Commits},
		{"files", d.Files},
		{"branches", d.SourceBranch + " -> " + d.TargetBranch},
	}
}

func newMRListCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the merge requests of a project or group with their versions",
		Long: `List the merge requests of a project or of a group, each with its diff
versions. A merge request is empty when its newest version has no changes;
--empty-only keeps just those.`,
		Example: `  glops mr list --project 12 --state opened
  glops mr list --group 42 --empty-only -o text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMRList(cmd, app)
		},
	}

	f := cmd.Flags()
	f.StringP("project", "p", "", "project id or path (env "+config.EnvProjectID+")")
	f.StringP("group", "g", "", "group id or path (env "+config.EnvGroupID+")")
	f.String("state", mergerequest.DefaultState, "opened, closed, locked, merged or all")
	f.Bool("empty-only", false, "keep only merge requests without changes")
	cmd.MarkFlagsMutuallyExclusive("project", "group")

	return cmd
}

func runMRList(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	project, err := s.stringOption(flags, "project", config.EnvProjectID, "")
	if err != nil {
		return err
	}
	group, err := s.stringOption(flags, "group", config.EnvGroupID, "")
	if err != nil {
		return err
	}
	state, err := flags.GetString("state")
	if err != nil {
		return err
	}
	emptyOnly, err := flags.GetBool("empty-only")
	if err != nil {
		return err
	}

	client, err := app.client(s)
	if err != nil {
		return err
	}

	scope := gitlab.Scope{ProjectID: project, GroupID: group}
	res, err := mergerequest.List(cmd.Context(), client, mergerequest.ListRequest{
		Scope:       scope,
		State:       state,
		EmptyOnly:   emptyOnly,
		Concurrency: s.cfg.Concurrency,
	})
	if err != nil {
		return describe(err, "list merge requests", scope.String())
	}

	if err := writeResult(app.stdout, s.cfg.Output, res.MergeRequests, func(w io.Writer) error {
		for _, mr := range res.MergeRequests {
			header := fmt.Sprintf("%d!%d %s", mr.ProjectID, mr.IID, mr.Title)
			if err := writeRecordText(w, header, listedMRFields(mr)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return reportFailures(app.stderr, res.Errors)
}

func listedMRFields(mr mergerequest.Listed) []field {
	return []field{
		{"state", mr.State},
		{"web_url", mr.WebURL},
		{"merge_status", mr.MergeStatus},
		{"has_conflicts", mr.HasConflicts},
		{"branches", mr.SourceBranch + " -> " + mr.TargetBranch},
		{"versions", len(mr.Versions)},
		{"empty", mr.Empty},
	}
}
