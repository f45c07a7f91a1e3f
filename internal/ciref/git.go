// SPDX-License-Identifier: MPL-2.0

package ciref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrDetachedHead is returned when the repository has no active branch.
var ErrDetachedHead = errors.New("HEAD is detached, no active branch")

type (
	// BranchResolver reports the active branch of the repository containing dir.
	BranchResolver interface {
		CurrentBranch(ctx context.Context, dir string) (string, error)
	}

	// GitBranch resolves the branch with the git binary.
	GitBranch struct {
		// Binary defaults to "git" on PATH.
		Binary string
	}

	// StaticBranch always reports the same branch.
	StaticBranch string
)

// CurrentBranch runs `git rev-parse --abbrev-ref HEAD` in dir.
func (g GitBranch) CurrentBranch(ctx context.Context, dir string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("resolving branch of %s: %w", dir, err)
		}
		return "", fmt.Errorf("resolving branch of %s: %w: %s", dir, err, msg)
	}

	branch := strings.TrimSpace(string(out))
	if branch == "HEAD" {
		return "", fmt.Errorf("%s: %w", dir, ErrDetachedHead)
	}
	return branch, nil
}

// CurrentBranch returns the static branch name.
func (s StaticBranch) CurrentBranch(context.Context, string) (string, error) {
	return string(s), nil
}
