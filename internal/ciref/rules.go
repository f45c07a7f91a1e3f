// SPDX-License-Identifier: MPL-2.0

package ciref

import (
	"slices"
	"strings"
)

const (
	// StagingBranch is the integration branch.
	StagingBranch = "staging"
	// MasterBranch is the release branch.
	MasterBranch = "master"
)

// Rules maps a branch to the include refs allowed on it. A ref outside the set
// is replaced by the branch name.
type Rules map[string][]string

// DefaultRules lets staging include templates from staging or master and
// pins master to master.
func DefaultRules() Rules {
	return Rules{
		StagingBranch: {StagingBranch, MasterBranch},
		MasterBranch:  {MasterBranch},
	}
}

// ParseRules reads rules written as "branch=ref1,ref2" entries.
// Entries without "=" allow only the branch itself.
func ParseRules(entries []string) Rules {
	rules := make(Rules, len(entries))
	for _, e := range entries {
		branch, refs, found := strings.Cut(strings.TrimSpace(e), "=")
		branch = strings.TrimSpace(branch)
		if branch == "" {
			continue
		}
		if !found {
			rules[branch] = []string{branch}
			continue
		}
		var allowed []string
		for _, r := range strings.Split(refs, ",") {
			if r = strings.TrimSpace(r); r != "" {
				allowed = append(allowed, r)
			}
		}
		rules[branch] = allowed
	}
	return rules
}

// Resolve returns the ref to use on branch for an include that currently
// points at ref. ok is false when the branch has no rule.
func (r Rules) Resolve(branch, ref string) (resolved string, ok bool) {
	allowed, ok := r[branch]
	if !ok {
		return ref, false
	}
	if slices.Contains(allowed, ref) {
		return ref, true
	}
	return branch, true
}
