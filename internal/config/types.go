// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// OutputJSON prints results as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputText prints results as human-readable lines.
	OutputText OutputFormat = "text"
	// OutputTOML prints results as TOML documents.
	OutputTOML OutputFormat = "toml"

	// DefaultURL is used when neither config, flag nor GITLAB_URL name a server.
	DefaultURL = "https://gitlab.com"
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second
	// DefaultPerPage is the page size requested from list endpoints.
	DefaultPerPage = 20
	// DefaultConcurrency is the worker limit for fan-out commands.
	DefaultConcurrency = 8
	// DefaultTagAmount is the number of tags kept per project.
	DefaultTagAmount = 5
	// DefaultEnvFile is read when present; it is optional.
	DefaultEnvFile = ".env"
	// DefaultCIFile is the CI definition rewritten by ci-ref.
	DefaultCIFile = ".gitlab-ci.yml"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidGitLabConfig is the sentinel error wrapped by InvalidGitLabConfigError.
	ErrInvalidGitLabConfig = errors.New("invalid gitlab config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how command results are written to stdout.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidGitLabConfigError collects field errors of a GitLabConfig.
	InvalidGitLabConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects field errors of a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the settings of one glops invocation.
	Config struct {
		GitLab GitLabConfig `json:"gitlab" mapstructure:"gitlab"`
		// Output selects json, text or toml.
		Output OutputFormat `json:"output" mapstructure:"output"`
		// Concurrency caps fan-out workers; 0 means unbounded.
		Concurrency int  `json:"concurrency" mapstructure:"concurrency"`
		Verbose     bool `json:"verbose" mapstructure:"verbose"`
		// EnvFile is the dotenv file consulted for unset variables.
		EnvFile  string         `json:"env_file" mapstructure:"env_file"`
		Tags     TagsConfig     `json:"tags" mapstructure:"tags"`
		TFSource TFSourceConfig `json:"tf_source" mapstructure:"tf_source"`
		CIRef    CIRefConfig    `json:"ci_ref" mapstructure:"ci_ref"`

		// Source is the config.cue the values were read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// GitLabConfig describes how to reach the GitLab API.
	GitLabConfig struct {
		URL     string        `json:"url" mapstructure:"url"`
		Token   string        `json:"-" mapstructure:"token"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		PerPage int           `json:"per_page" mapstructure:"per_page"`
	}

	// TagsConfig holds defaults for the tags command.
	TagsConfig struct {
		Amount int `json:"amount" mapstructure:"amount"`
	}

	// TFSourceConfig holds defaults for the tf-sources command.
	TFSourceConfig struct {
		Paths          []string `json:"paths" mapstructure:"paths"`
		Extensions     []string `json:"extensions" mapstructure:"extensions"`
		SkipPatterns   []string `json:"skip_patterns" mapstructure:"skip_patterns"`
		SourceMarker   string   `json:"source_marker" mapstructure:"source_marker"`
		ArtifactMarker string   `json:"artifact_marker" mapstructure:"artifact_marker"`
	}

	// CIRefConfig holds defaults for the ci-ref command.
	CIRefConfig struct {
		File string `json:"file" mapstructure:"file"`
		// Rules maps a branch to the include refs it accepts. Viper lowercases
		// map keys, so branch names are matched lowercased.
		Rules map[string][]string `json:"rules" mapstructure:"rules"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		GitLab: GitLabConfig{
			URL:     DefaultURL,
			Timeout: DefaultTimeout,
			PerPage: DefaultPerPage,
		},
		Output:      OutputJSON,
		Concurrency: DefaultConcurrency,
		EnvFile:     DefaultEnvFile,
		Tags:        TagsConfig{Amount: DefaultTagAmount},
		TFSource: TFSourceConfig{
			Paths:          []string{},
			Extensions:     []string{".tf"},
			SkipPatterns:   []string{"**/.git", "**/.terraform"},
			SourceMarker:   "source",
			ArtifactMarker: ".zip",
		},
		CIRef: CIRefConfig{
			File: DefaultCIFile,
			Rules: map[string][]string{
				"staging": {"staging", "master"},
				"master":  {"master"},
			},
		},
	}
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputJSON, OutputText, OutputTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: json, text, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid reports whether the URL is absolute http(s), and timeout and page
// size are positive.
func (c GitLabConfig) IsValid() (bool, []error) {
	var errs []error
	u, err := url.Parse(c.URL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("gitlab.url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("gitlab.url: %q is not an http(s) URL", c.URL))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("gitlab.timeout: must be positive, got %s", c.Timeout))
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		errs = append(errs, fmt.Errorf("gitlab.per_page: must be between 1 and 100, got %d", c.PerPage))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidGitLabConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidGitLabConfigError) Error() string {
	return fmt.Sprintf("invalid gitlab config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidGitLabConfig for errors.Is() compatibility.
func (e *InvalidGitLabConfigError) Unwrap() error { return ErrInvalidGitLabConfig }

// IsValid validates the fields CUE cannot check once flags and environment
// have been applied.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.GitLab.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Output.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must not be negative, got %d", c.Concurrency))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns the IsValid errors as a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
