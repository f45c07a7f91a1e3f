// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by glops. Each one overrides the matching flag.
const (
	EnvURL            = "GITLAB_URL"
	EnvToken          = "GITLAB_PRIVATE_TOKEN"
	EnvProjectID      = "GITLAB_PROJECT_ID"
	EnvGroupID        = "GITLAB_GROUP_ID"
	EnvSourceBranch   = "GITLAB_SOURCE_BRANCH"
	EnvTargetBranch   = "GITLAB_TARGET_BRANCH"
	EnvMRTitle        = "GITLAB_MR_TITLE"
	EnvMRDescription  = "GITLAB_MR_DESCRIPTION"
	EnvAssigneeID     = "GITLAB_ASSIGNEE_ID"
	EnvMilestoneID    = "GITLAB_MILESTONE_ID"
	EnvTerraformPaths = "TERRAFORM_PATHS"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Env resolves variables from the process environment first and from a
// dotenv file second. Empty values count as unset.
type Env struct {
	lookup LookupFunc
	dotenv map[string]string
}

// NewEnv returns an Env over lookup, or over os.LookupEnv when lookup is nil.
func NewEnv(lookup LookupFunc) *Env {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Env{lookup: lookup, dotenv: map[string]string{}}
}

// LoadDotenv reads path with godotenv. A missing file is an error only when
// required is set. The process environment is left untouched.
func (e *Env) LoadDotenv(path string, required bool) error {
	if path == "" {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for k, v := range values {
		e.dotenv[k] = v
	}
	return nil
}

// Lookup returns the value of key and whether it is set and non-empty.
func (e *Env) Lookup(key string) (string, bool) {
	if v, ok := e.lookup(key); ok && v != "" {
		return v, true
	}
	if v, ok := e.dotenv[key]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Override replaces *dst with the value of key when it is set.
func (e *Env) Override(dst *string, key string) {
	if v, ok := e.Lookup(key); ok {
		*dst = v
	}
}

// OverrideList replaces *dst with the list value of key when it is set.
func (e *Env) OverrideList(dst *[]string, key string) {
	if v, ok := e.Lookup(key); ok {
		*dst = SplitList(v)
	}
}

// Apply overrides the connection settings and scan paths of cfg.
func (e *Env) Apply(cfg *Config) {
	e.Override(&cfg.GitLab.URL, EnvURL)
	e.Override(&cfg.GitLab.Token, EnvToken)
	e.OverrideList(&cfg.TFSource.Paths, EnvTerraformPaths)
}

// SplitList splits a comma or whitespace separated list, dropping empty items.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}
