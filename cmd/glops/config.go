// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/issue"
)

// newConfigCommand creates the `glops config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage glops configuration",
		Long: `Manage glops configuration.

Configuration is stored in:
  - Linux: ~/.config/glops/config.cue
  - macOS: ~/Library/Application Support/glops/config.cue
  - Windows: %APPDATA%\glops\config.cue

A config.cue in the current directory is used when the user file is absent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(app.stderr, rendered)
		return err
	}

	return writeResult(app.stdout, s.cfg.Output, s.cfg, func(w io.Writer) error {
		return writeConfigText(w, s.cfg)
	})
}

func writeConfigText(w io.Writer, cfg *config.Config) error {
	keyStyle := KeyStyle
	valueStyle := SuccessStyle
	value := func(v any) string { return valueStyle.Render(fmt.Sprint(v)) }
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return valueStyle.Render(strings.Join(items, ", "))
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Current Configuration") + "\n\n")

	source := SubtitleStyle.Render("(using defaults)")
	if cfg.Source != "" {
		source = cfg.Source
	}
	fmt.Fprintf(&b, "%s: %s\n\n", keyStyle.Render("Config file"), source)

	token := SubtitleStyle.Render("(not set)")
	if cfg.GitLab.Token != "" {
		token = value("(set)")
	}
	fmt.Fprintf(&b, "%s:\n", keyStyle.Render("gitlab"))
	fmt.Fprintf(&b, "  url: %s\n", value(cfg.GitLab.URL))
	fmt.Fprintf(&b, "  token: %s\n", token)
	fmt.Fprintf(&b, "  timeout: %s\n", value(cfg.GitLab.Timeout))
	fmt.Fprintf(&b, "  per_page: %s\n\n", value(cfg.GitLab.PerPage))

	fmt.Fprintf(&b, "%s: %s\n", keyStyle.Render("output"), value(cfg.Output))
	fmt.Fprintf(&b, "%s: %s\n", keyStyle.Render("concurrency"), value(cfg.Concurrency))
	fmt.Fprintf(&b, "%s: %s\n", keyStyle.Render("verbose"), value(cfg.Verbose))
	fmt.Fprintf(&b, "%s: %s\n\n", keyStyle.Render("env_file"), value(cfg.EnvFile))

	fmt.Fprintf(&b, "%s:\n", keyStyle.Render("tags"))
	fmt.Fprintf(&b, "  amount: %s\n\n", value(cfg.Tags.Amount))

	fmt.Fprintf(&b, "%s:\n", keyStyle.Render("tf_source"))
	fmt.Fprintf(&b, "  paths: %s\n", list(cfg.TFSource.Paths))
	fmt.Fprintf(&b, "  extensions: %s\n", list(cfg.TFSource.Extensions))
	fmt.Fprintf(&b, "  skip_patterns: %s\n", list(cfg.TFSource.SkipPatterns))
	fmt.Fprintf(&b, "  source_marker: %s\n", value(cfg.TFSource.SourceMarker))
	fmt.Fprintf(&b, "  artifact_marker: %s\n\n", value(cfg.TFSource.ArtifactMarker))

	fmt.Fprintf(&b, "%s:\n", keyStyle.Render("ci_ref"))
	fmt.Fprintf(&b, "  file: %s\n", value(cfg.CIRef.File))
	fmt.Fprintf(&b, "  rules:\n")
	for _, branch := range slices.Sorted(maps.Keys(cfg.CIRef.Rules)) {
		fmt.Fprintf(&b, "    %s: %s\n", branch, list(cfg.CIRef.Rules[branch]))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func initConfig(app *App) error {
	path, err := config.CreateDefaultConfig("")
	if errors.Is(err, config.ErrConfigExists) {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(cmd *cobra.Command, app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	explicit, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return err
	}
	active, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: explicit})
	if err != nil {
		return err
	}
	if active == "" {
		active = SubtitleStyle.Render("(none, using defaults)")
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", active)
	return nil
}
