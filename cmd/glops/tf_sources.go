// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/tfsource"
)

var errNoPaths = errors.New("at least one path is required")

func newTFSourcesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tf-sources [path...]",
		Short: "Find archive module sources in Terraform files",
		Long: `Find the module sources that point at archives in Terraform files.

Every given directory is walked recursively and every file is read line by
line; lines holding both the source marker and the artifact marker are
reported. Paths come from --paths, the arguments, ` + config.EnvTerraformPaths + ` (which
takes precedence) or tf_source.paths in config.cue. Missing paths are reported
on stderr and the others are still scanned.`,
		Example: `  glops tf-sources --paths infra,modules
  TERRAFORM_PATHS="infra modules" glops tf-sources --versions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTFSources(cmd, app, args)
		},
	}

	cmd.Flags().StringSliceP("paths", "p", nil, "directories or files to scan (env "+config.EnvTerraformPaths+")")
	cmd.Flags().Bool("versions", false, "report the version parsed from each source and its position")

	return cmd
}

func runTFSources(cmd *cobra.Command, app *App, args []string) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	paths := s.cfg.TFSource.Paths
	if flags.Changed("paths") || len(args) > 0 {
		if paths, err = flags.GetStringSlice("paths"); err != nil {
			return err
		}
		paths = append(paths, args...)
	}
	s.env.OverrideList(&paths, config.EnvTerraformPaths)
	if len(paths) == 0 {
		return describe(errNoPaths, "scan Terraform sources", "")
	}
	versions, err := flags.GetBool("versions")
	if err != nil {
		return err
	}

	report := tfsource.Scan(cmd.Context(), paths, tfsource.Options{
		Extensions:     s.cfg.TFSource.Extensions,
		SkipPatterns:   s.cfg.TFSource.SkipPatterns,
		SourceMarker:   s.cfg.TFSource.SourceMarker,
		ArtifactMarker: s.cfg.TFSource.ArtifactMarker,
		Concurrency:    s.cfg.Concurrency,
	})

	if versions {
		err = writeResult(app.stdout, s.cfg.Output, report.Modules, func(w io.Writer) error {
			return writeModulesText(w, report)
		})
	} else {
		sources := report.Sources()
		err = writeResult(app.stdout, s.cfg.Output, sources, func(w io.Writer) error {
			return writeListText(w, sources)
		})
	}
	if err != nil {
		return err
	}
	return reportFailures(app.stderr, report.Errors)
}

func writeModulesText(w io.Writer, report tfsource.Report) error {
	for _, file := range report.Files() {
		if _, err := fmt.Fprintln(w, KeyStyle.Render(file)); err != nil {
			return err
		}
		for _, m := range report.Modules[file] {
			version := m.Version
			if version == "" {
				version = SubtitleStyle.Render("(unversioned)")
			}
			if _, err := fmt.Fprintf(w, "  %d: %s %s\n", m.Pos.Line, m.Source, version); err != nil {
				return err
			}
		}
	}
	return nil
}
