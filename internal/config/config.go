// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/glops/glops/internal/cueutil"
	"github.com/glops/glops/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "glops"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

// ErrConfigExists is returned by CreateDefaultConfig when the file is already present.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the glops configuration directory: %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (or ~/.config)
// elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// ResolvePath returns the config file that Load would read, or "" when none
// exists and defaults apply.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path passed to --config").
				WithSuggestion("Run 'glops config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(dir, name), name} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadWithOptions reads defaults and the resolved config.cue into a Config.
// Flags and environment are applied by the caller afterwards.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	path, err := ResolvePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with the output of 'glops config show'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = path

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("gitlab.url", d.GitLab.URL)
	v.SetDefault("gitlab.token", d.GitLab.Token)
	v.SetDefault("gitlab.timeout", d.GitLab.Timeout)
	v.SetDefault("gitlab.per_page", d.GitLab.PerPage)
	v.SetDefault("output", string(d.Output))
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("env_file", d.EnvFile)
	v.SetDefault("tags.amount", d.Tags.Amount)
	v.SetDefault("tf_source.paths", d.TFSource.Paths)
	v.SetDefault("tf_source.extensions", d.TFSource.Extensions)
	v.SetDefault("tf_source.skip_patterns", d.TFSource.SkipPatterns)
	v.SetDefault("tf_source.source_marker", d.TFSource.SourceMarker)
	v.SetDefault("tf_source.artifact_marker", d.TFSource.ArtifactMarker)
	v.SetDefault("ci_ref.file", d.CIRef.File)

	// Nested as map[string]any so a file that names one branch keeps the
	// default rules of the others.
	rules := make(map[string]any, len(d.CIRef.Rules))
	for branch, refs := range d.CIRef.Rules {
		rules[branch] = refs
	}
	v.SetDefault("ci_ref.rules", rules)
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates a config.cue against #Config and merges it over
// the defaults already set on v. Fields stay optional, so the document is
// decoded into a map rather than a Config.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	doc, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(doc); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to config.cue in dir
// (the user config directory when dir is empty) and returns its path.
func CreateDefaultConfig(dir string) (string, error) {
	dir, err := configDirWithOverride(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config.cue document. The token is never
// written; it belongs in GITLAB_PRIVATE_TOKEN or a dotenv file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// glops configuration file.\n")
	sb.WriteString("// Environment variables (GITLAB_URL, GITLAB_PRIVATE_TOKEN, ...) override these values.\n\n")

	sb.WriteString("gitlab: {\n")
	fmt.Fprintf(&sb, "\turl:      %q\n", cfg.GitLab.URL)
	fmt.Fprintf(&sb, "\ttimeout:  %q\n", cfg.GitLab.Timeout.String())
	fmt.Fprintf(&sb, "\tper_page: %d\n", cfg.GitLab.PerPage)
	sb.WriteString("}\n\n")

	fmt.Fprintf(&sb, "output:      %q\n", cfg.Output)
	fmt.Fprintf(&sb, "concurrency: %d\n", cfg.Concurrency)
	fmt.Fprintf(&sb, "verbose:     %v\n", cfg.Verbose)
	fmt.Fprintf(&sb, "env_file:    %q\n", cfg.EnvFile)

	sb.WriteString("\ntags: {\n")
	fmt.Fprintf(&sb, "\tamount: %d\n", cfg.Tags.Amount)
	sb.WriteString("}\n")

	sb.WriteString("\ntf_source: {\n")
	fmt.Fprintf(&sb, "\tpaths:           %s\n", cueList(cfg.TFSource.Paths))
	fmt.Fprintf(&sb, "\textensions:      %s\n", cueList(cfg.TFSource.Extensions))
	fmt.Fprintf(&sb, "\tskip_patterns:   %s\n", cueList(cfg.TFSource.SkipPatterns))
	fmt.Fprintf(&sb, "\tsource_marker:   %q\n", cfg.TFSource.SourceMarker)
	fmt.Fprintf(&sb, "\tartifact_marker: %q\n", cfg.TFSource.ArtifactMarker)
	sb.WriteString("}\n")

	sb.WriteString("\nci_ref: {\n")
	fmt.Fprintf(&sb, "\tfile: %q\n", cfg.CIRef.File)
	sb.WriteString("\trules: {\n")
	for _, branch := range slices.Sorted(maps.Keys(cfg.CIRef.Rules)) {
		fmt.Fprintf(&sb, "\t\t%q: %s\n", branch, cueList(cfg.CIRef.Rules[branch]))
	}
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
