// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/pipeline"
)

func newPipelineCommand(app *App) *cobra.Command {
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Trigger pipelines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Run a pipeline for a reference in one or more projects",
		Example: `  glops pipeline create -p 12,13 --reference master
  GITLAB_PROJECT_ID=12 glops pipeline create -r v1.4.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipelineCreate(cmd, app)
		},
	}
	createCmd.Flags().StringSliceP("projects", "p", nil, "project ids or paths (env "+config.EnvProjectID+")")
	createCmd.Flags().StringP("reference", "r", "", "branch, tag or commit to build")

	pipelineCmd.AddCommand(createCmd)
	return pipelineCmd
}

func runPipelineCreate(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	projects, err := s.listOption(flags, "projects", config.EnvProjectID, nil)
	if err != nil {
		return err
	}
	ref, err := flags.GetString("reference")
	if err != nil {
		return err
	}

	client, err := app.client(s)
	if err != nil {
		return err
	}

	res, err := pipeline.Create(cmd.Context(), client, pipeline.Request{
		ProjectIDs:  projects,
		Reference:   ref,
		Concurrency: s.cfg.Concurrency,
	})
	if err != nil {
		return describe(err, "create pipelines", ref)
	}

	if err := writeResult(app.stdout, s.cfg.Output, res.Aggregate, func(w io.Writer) error {
		return writeRecordsText(w, res.Aggregate, pipelineFields)
	}); err != nil {
		return err
	}
	return reportFailures(app.stderr, res.Errors)
}

func pipelineFields(p pipeline.Created) []field {
	fields := []field{
		{"id", p.ID},
		{"ref", p.Ref},
		{"status", p.Status},
		{"web_url", p.WebURL},
	}
	if p.YamlErrors != "" {
		fields = append(fields, field{"yaml_errors", p.YamlErrors})
	}
	return fields
}
