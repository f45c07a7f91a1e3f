// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/issue"
)

// Global flag names.
const (
	flagURL         = "url"
	flagToken       = "token"
	flagConfig      = "config"
	flagEnvFile     = "env-file"
	flagOutput      = "output"
	flagConcurrency = "concurrency"
	flagTimeout     = "timeout"
	flagPerPage     = "per-page"
	flagVerbose     = "verbose"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the glops command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "glops",
		Short: "Query and automate a GitLab instance",
		Long: TitleStyle.Render("glops") + SubtitleStyle.Render(" - Query and automate a GitLab instance") + `

glops bundles the day-to-day GitLab chores of an infrastructure team: recent
tags across a group, Terraform module sources, merge requests and pipelines
over many projects, user ids, unestimated issues and CI include refs.

Every API command fans out one request per project with bounded concurrency
and prints a single JSON, TOML or text document on stdout.

` + SubtitleStyle.Render("Configuration:") + `
  defaults < config.cue < flags < environment (GITLAB_URL, GITLAB_PRIVATE_TOKEN, ...)
  A .env file fills variables that are not set in the environment.

` + SubtitleStyle.Render("Examples:") + `
  glops tags --group 42 --latest          Latest tag of every project in group 42
  glops tf-sources --paths infra          Archive module sources under ./infra
  glops mr create -p 1,2 --source-branch dev --target-branch main --title Release
  glops ci-ref --dry-run                  Show include ref fixes for this branch`,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagURL, "u", config.DefaultURL, "GitLab server URL (env "+config.EnvURL+")")
	pf.StringP(flagToken, "t", "", "personal access token (env "+config.EnvToken+")")
	pf.String(flagConfig, "", "config file (default is $XDG_CONFIG_HOME/glops/config.cue)")
	pf.String(flagEnvFile, config.DefaultEnvFile, "dotenv file consulted for unset variables")
	pf.StringP(flagOutput, "o", string(config.OutputJSON), "output format: json, text or toml")
	pf.Int(flagConcurrency, config.DefaultConcurrency, "maximum concurrent requests, 0 for no limit")
	pf.Duration(flagTimeout, config.DefaultTimeout, "timeout of each HTTP request")
	pf.Int(flagPerPage, config.DefaultPerPage, "page size of list requests (only the first page is read)")
	pf.BoolP(flagVerbose, "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newTagsCommand(app),
		newTFSourcesCommand(app),
		newMRCommand(app),
		newPipelineCommand(app),
		newUsersCommand(app),
		newIssuesCommand(app),
		newCIRefCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App and runs the command tree. It is called
// by main.main.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(newErrorHandler(app, rootCmd)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// newErrorHandler prints command errors with their suggestions. Unlike fang's
// default handler it does not wrap lines, so messages and paths stay greppable.
// Errors that were already reported (ExitError without cause) are not printed again.
// With --verbose, or verbose: true in config.cue, the error chain and the
// matching catalog entry are shown.
func newErrorHandler(app *App, root *cobra.Command) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}

		verbose, _ := root.PersistentFlags().GetBool(flagVerbose)
		verbose = verbose || app.verbose
		fmt.Fprintln(w, styles.ErrorHeader.String())
		fmt.Fprintln(w, errorTextStyle.Render(formatErrorForDisplay(err, verbose)))
		fmt.Fprintln(w)

		if !verbose {
			return
		}
		if rendered, ok := renderIssue(err); ok {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue renders the catalog entry attached to err, if any.
func renderIssue(err error) (string, bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return "", false
	}
	entry := issue.Get(ae.Issue)
	if entry == nil {
		return "", false
	}
	rendered, renderErr := entry.Render("")
	if renderErr != nil {
		return "", false
	}
	return rendered, true
}
