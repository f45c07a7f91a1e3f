// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/fang"

	"github.com/glops/glops/internal/config"
	"github.com/glops/glops/internal/issue"
	"github.com/glops/glops/internal/testutil"
)

var errStopBeforeRequest = errors.New("stop before request")

// captureConfig returns a ClientFactory that records the resolved config and
// aborts the command before any request is made.
func captureConfig(dst **config.Config) ClientFactory {
	return func(cfg *config.Config) (GitLabClient, error) {
		*dst = cfg
		return nil, errStopBeforeRequest
	}
}

func TestSession_Precedence(t *testing.T) {
	base := testConfig()
	base.GitLab.URL = "https://config.example.com"
	base.GitLab.Token = "config-token"
	base.Concurrency = 3

	tests := []struct {
		name      string
		env       map[string]string
		args      []string
		wantURL   string
		wantToken string
		wantConc  int
	}{
		{
			name:      "config file only",
			wantURL:   "https://config.example.com",
			wantToken: "config-token",
			wantConc:  3,
		},
		{
			name:      "flags beat config",
			args:      []string{"--url", "https://flag.example.com", "--token", "flag-token", "--concurrency", "2"},
			wantURL:   "https://flag.example.com",
			wantToken: "flag-token",
			wantConc:  2,
		},
		{
			name: "environment beats flags",
			env: map[string]string{
				config.EnvURL:   "https://env.example.com",
				config.EnvToken: "env-token",
			},
			args:      []string{"--url", "https://flag.example.com", "--token", "flag-token"},
			wantURL:   "https://env.example.com",
			wantToken: "env-token",
			wantConc:  3,
		},
		{
			name:      "empty environment values are unset",
			env:       map[string]string{config.EnvURL: ""},
			args:      []string{"--url", "https://flag.example.com"},
			wantURL:   "https://flag.example.com",
			wantToken: "config-token",
			wantConc:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *config.Config
			deps := Dependencies{
				Config:  staticConfig{cfg: base},
				Clients: captureConfig(&got),
				Lookup:  envMap(tt.env),
			}
			res := runCLI(t, deps, append([]string{"users"}, tt.args...)...)
			if !errors.Is(res.err, errStopBeforeRequest) {
				t.Fatalf("err = %v, want the capture sentinel", res.err)
			}
			if got.GitLab.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.GitLab.URL, tt.wantURL)
			}
			if got.GitLab.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", got.GitLab.Token, tt.wantToken)
			}
			if got.Concurrency != tt.wantConc {
				t.Errorf("Concurrency = %d, want %d", got.Concurrency, tt.wantConc)
			}
		})
	}

	if base.GitLab.URL != "https://config.example.com" {
		t.Error("session mutated the provider's config")
	}
}

func TestSession_Dotenv(t *testing.T) {
	envFile := testutil.WriteFile(t, filepath.Join(t.TempDir(), "glops.env"),
		"GITLAB_URL=https://dotenv.example.com\nGITLAB_PRIVATE_TOKEN=dotenv-token\n")

	var got *config.Config
	deps := Dependencies{
		Clients: captureConfig(&got),
		Lookup:  envMap(map[string]string{config.EnvToken: "real-token"}),
	}
	res := runCLI(t, deps, "users", "--env-file", envFile, "--timeout", "5s")
	if !errors.Is(res.err, errStopBeforeRequest) {
		t.Fatalf("err = %v, want the capture sentinel", res.err)
	}

	if got.GitLab.URL != "https://dotenv.example.com" {
		t.Errorf("URL = %q, want the dotenv value", got.GitLab.URL)
	}
	if got.GitLab.Token != "real-token" {
		t.Errorf("Token = %q, the process environment must win over dotenv", got.GitLab.Token)
	}
	if got.GitLab.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got.GitLab.Timeout)
	}
}

func TestSession_MissingExplicitDotenv(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.env")
	res := runCLI(t, Dependencies{}, "users", "--env-file", missing)

	var ae *issue.ActionableError
	if !errors.As(res.err, &ae) || ae.Operation != "read env file" {
		t.Fatalf("err = %v, want a read env file error", res.err)
	}
}

func TestSession_InvalidOutput(t *testing.T) {
	res := runCLI(t, Dependencies{}, "users", "--output", "yaml")

	var ae *issue.ActionableError
	if !errors.As(res.err, &ae) || ae.Issue != issue.ConfigLoadFailedId {
		t.Fatalf("err = %v, want a configuration error", res.err)
	}
	if !strings.Contains(res.err.Error(), "yaml") {
		t.Errorf("error %q does not name the bad format", res.err)
	}
}

func TestSession_ProviderFailure(t *testing.T) {
	loadErr := errors.New("config.cue: conflicting values")
	res := runCLI(t, Dependencies{Config: staticConfig{err: loadErr}}, "users")
	if !errors.Is(res.err, loadErr) {
		t.Fatalf("err = %v, want the provider error", res.err)
	}
}

func TestIntOption_RejectsNonNumbers(t *testing.T) {
	var got *config.Config
	deps := Dependencies{
		Clients: captureConfig(&got),
		Lookup:  envMap(map[string]string{config.EnvAssigneeID: "alice"}),
	}
	res := runCLI(t, deps, "mr", "create", "-p", "1", "--source-branch", "a", "--target-branch", "b", "--title", "t")
	if res.err == nil || !strings.Contains(res.err.Error(), `"alice" is not a number`) {
		t.Fatalf("err = %v, want a not a number error", res.err)
	}
	if got != nil {
		t.Error("client created despite the invalid option")
	}
}

func TestErrorHandler_VerboseFromConfig(t *testing.T) {
	base := testConfig()
	base.Verbose = true

	var got *config.Config
	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{
		Config:  staticConfig{cfg: base},
		Clients: captureConfig(&got),
		Lookup:  envMap(nil),
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	root := NewRootCommand(app)
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetArgs([]string{"users"})
	if err := root.ExecuteContext(t.Context()); !errors.Is(err, errStopBeforeRequest) {
		t.Fatalf("err = %v, want the capture sentinel", err)
	}

	cmdErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(errors.New("conflicting values")).
		BuildError()
	rendered, ok := renderIssue(cmdErr)
	if !ok {
		t.Fatal("catalog entry did not render")
	}

	var buf bytes.Buffer
	newErrorHandler(app, root)(&buf, fang.Styles{}, cmdErr)
	if !strings.Contains(buf.String(), rendered) {
		t.Errorf("verbose: true in the config did not show the catalog entry:\n%s", buf.String())
	}
}
