// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/issue"
)

// session is the resolved state of one invocation.
type session struct {
	cfg *config.Config
	env *config.Env
}

// newSession loads the configuration for cmd. Sources are applied from low to
// high precedence: defaults and config.cue (by the provider), changed global
// flags, then environment variables with the dotenv file filling unset ones.
// It also installs the charm logger as the slog default.
func (a *App) newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()

	cfgPath, err := flags.GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgPath})
	if err != nil {
		return nil, err
	}

	if err := applyGlobalFlags(flags, cfg); err != nil {
		return nil, err
	}

	env := config.NewEnv(a.Lookup)
	if err := env.LoadDotenv(cfg.EnvFile, flags.Changed(flagEnvFile)); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read env file").
			WithResource(cfg.EnvFile).
			WithSuggestion("Check the path passed to --env-file").
			Wrap(err).
			BuildError()
	}
	env.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Run 'glops config show' to inspect the effective values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	a.verbose = cfg.Verbose
	slog.SetDefault(slog.New(newLogger(a, cfg.Verbose)))
	slog.Debug("configuration loaded", "source", cfg.Source, "url", cfg.GitLab.URL, "output", cfg.Output)

	return &session{cfg: cfg, env: env}, nil
}

// newLogger returns the stderr logger. Debug records appear only with verbose.
func newLogger(a *App, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// applyGlobalFlags copies the global flags given on the command line into cfg.
// Flags left at their default do not override config.cue.
func applyGlobalFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if flags.Changed(flagURL) {
		if cfg.GitLab.URL, err = flags.GetString(flagURL); err != nil {
			return err
		}
	}
	if flags.Changed(flagToken) {
		if cfg.GitLab.Token, err = flags.GetString(flagToken); err != nil {
			return err
		}
	}
	if flags.Changed(flagTimeout) {
		if cfg.GitLab.Timeout, err = flags.GetDuration(flagTimeout); err != nil {
			return err
		}
	}
	if flags.Changed(flagPerPage) {
		if cfg.GitLab.PerPage, err = flags.GetInt(flagPerPage); err != nil {
			return err
		}
	}
	if flags.Changed(flagOutput) {
		out, err := flags.GetString(flagOutput)
		if err != nil {
			return err
		}
		cfg.Output = config.OutputFormat(out)
	}
	if flags.Changed(flagConcurrency) {
		if cfg.Concurrency, err = flags.GetInt(flagConcurrency); err != nil {
			return err
		}
	}
	if flags.Changed(flagEnvFile) {
		if cfg.EnvFile, err = flags.GetString(flagEnvFile); err != nil {
			return err
		}
	}
	if flags.Changed(flagVerbose) {
		if cfg.Verbose, err = flags.GetBool(flagVerbose); err != nil {
			return err
		}
	}
	return nil
}

// stringOption resolves a command option: the environment variable wins over
// the flag, which wins over fallback.
func (s *session) stringOption(flags *pflag.FlagSet, name, envKey, fallback string) (string, error) {
	value := fallback
	if flags.Changed(name) {
		v, err := flags.GetString(name)
		if err != nil {
			return "", err
		}
		value = v
	}
	if envKey != "" {
		s.env.Override(&value, envKey)
	}
	return value, nil
}

// listOption resolves a repeatable or comma separated option the same way as
// stringOption. The environment value is split on commas and whitespace.
func (s *session) listOption(flags *pflag.FlagSet, name, envKey string, fallback []string) ([]string, error) {
	value := fallback
	if flags.Changed(name) {
		v, err := flags.GetStringSlice(name)
		if err != nil {
			return nil, err
		}
		value = v
	}
	if envKey != "" {
		s.env.OverrideList(&value, envKey)
	}
	return value, nil
}

// intOption resolves an integer option the same way as stringOption.
func (s *session) intOption(flags *pflag.FlagSet, name, envKey string, fallback int) (int, error) {
	value := fallback
	if flags.Changed(name) {
		v, err := flags.GetInt(name)
		if err != nil {
			return 0, err
		}
		value = v
	}
	if envKey == "" {
		return value, nil
	}
	if raw, ok := s.env.Lookup(envKey); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", envKey, raw)
		}
		value = n
	}
	return value, nil
}

// client builds the GitLab client for the session.
func (a *App) client(s *session) (GitLabClient, error) {
	c, err := a.Clients(s.cfg)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("create GitLab client").
			WithResource(s.cfg.GitLab.URL).
			WithSuggestion("Pass the server root with --url or " + config.EnvURL).
			Wrap(err).
			BuildError()
	}
	return c, nil
}
