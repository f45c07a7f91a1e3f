// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/ciref"
)

func newCIRefCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ci-ref",
		Short: "Align the include refs of a CI file with the current branch",
		Long: `Check the ref of every entry under the top-level include: key of a
GitLab CI file against the rules of the current branch, and replace refs the
branch does not allow with the branch name.

By default staging accepts staging and master, and master accepts master.
Branches without a rule are left alone. The branch is read from git unless
--branch is given. Only the ref values change; the rest of the file is kept
as is.`,
		Example: `  glops ci-ref
  glops ci-ref --branch "$CI_COMMIT_REF_NAME" --dry-run
  glops ci-ref --rule release=release,master`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCIRef(cmd, app)
		},
	}

	cmd.Flags().StringP("file", "f", "", "CI file to rewrite (default from config, .gitlab-ci.yml)")
	cmd.Flags().StringP("branch", "b", "", "branch to check against (default is the active git branch)")
	cmd.Flags().Bool("dry-run", false, "report the changes without writing the file")
	cmd.Flags().StringArray("rule", nil, "extra rule as branch=ref1,ref2 (repeatable)")

	return cmd
}

func runCIRef(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	file, err := s.stringOption(flags, "file", "", s.cfg.CIRef.File)
	if err != nil {
		return err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return err
	}
	extra, err := flags.GetStringArray("rule")
	if err != nil {
		return err
	}

	branch, err := flags.GetString("branch")
	if err != nil {
		return err
	}
	if branch == "" {
		if branch, err = app.Branches.CurrentBranch(cmd.Context(), filepath.Dir(file)); err != nil {
			return describe(err, "resolve current branch", filepath.Dir(file))
		}
	}

	rules := ciRules(s.cfg.CIRef.Rules, extra, branch)
	// Read before rewriting so the text output can show the replaced lines.
	original, _ := os.ReadFile(file)

	res, err := ciref.RewriteFile(file, branch, rules, dryRun)
	if err != nil {
		return describe(err, "rewrite CI include refs", file)
	}

	return writeResult(app.stdout, s.cfg.Output, res, func(w io.Writer) error {
		return writeCIRefText(w, file, res, original, dryRun)
	})
}

// ciRules merges the configured rules with --rule entries. Rule keys read from
// config.cue are lowercase, so a branch with uppercase letters falls back to
// the rule of its lowercase name.
func ciRules(configured map[string][]string, extra []string, branch string) ciref.Rules {
	rules := make(ciref.Rules, len(configured)+len(extra))
	maps.Copy(rules, configured)
	maps.Copy(rules, ciref.ParseRules(extra))
	if _, ok := rules[branch]; !ok {
		if refs, ok := rules[strings.ToLower(branch)]; ok {
			rules[branch] = refs
		}
	}
	return rules
}

func writeCIRefText(w io.Writer, file string, res *ciref.Result, original []byte, dryRun bool) error {
	var err error
	switch {
	case res.NoPreference:
		_, err = fmt.Fprintf(w, "%s no ref preference for branch %s\n", WarningStyle.Render("!"), res.Branch)
	case !res.Changed():
		_, err = fmt.Fprintf(w, "%s %d include refs of %s already match branch %s\n",
			SuccessStyle.Render("✓"), res.Refs, file, res.Branch)
	default:
		verb := "Updated"
		if dryRun {
			verb = "Would update"
		}
		if _, err = fmt.Fprintf(w, "%s %s %d of %d include refs in %s for branch %s\n",
			SuccessStyle.Render("✓"), verb, len(res.Changes), res.Refs, file, res.Branch); err != nil {
			return err
		}
		_, err = fmt.Fprint(w, res.Diff(original))
	}
	return err
}
