// SPDX-License-Identifier: MPL-2.0

package mergerequest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/glops/glops/internal/fanout"
	"github.com/glops/glops/internal/gitlab"
)

// DefaultState lists merge requests regardless of their state.
const DefaultState = "all"

type (
	// ListRequest selects the merge requests to list.
	ListRequest struct {
		Scope gitlab.Scope
		State string
		// EmptyOnly keeps only merge requests whose newest version has no diff.
		EmptyOnly   bool
		Concurrency int
	}

	// Version is one diff version of a listed merge request.
	Version struct {
		CreatedAt string `json:"created_at"`
		RealSize  string `json:"real_size"`
		State     string `json:"state"`
	}

	// Listed is a merge request with its versions.
	Listed struct {
		IID          int       `json:"iid"`
		ProjectID    int       `json:"project_id"`
		Title        string    `json:"title"`
		State        string    `json:"state"`
		MergeStatus  string    `json:"merge_status"`
		HasConflicts bool      `json:"has_conflicts"`
		WebURL       string    `json:"web_url"`
		SourceBranch string    `json:"source_branch"`
		TargetBranch string    `json:"target_branch"`
		Empty        bool      `json:"empty"`
		Versions     []Version `json:"versions"`
	}

	// ListResult holds the listed merge requests in API order and one error
	// per merge request whose versions could not be read.
	ListResult struct {
		MergeRequests []Listed
		Errors        []*fanout.WorkerError
	}
)

// IsEmpty reports whether the newest version (the first one returned) carries
// no changes. A merge request without versions is empty as well.
func IsEmpty(versions []gitlab.MergeRequestVersion) bool {
	if len(versions) == 0 {
		return true
	}
	size := versions[0].RealSize
	return size == "" || size == "0"
}

// key identifies a merge request across projects.
func key(mr gitlab.MergeRequest) string {
	return fmt.Sprintf("%d!%d", mr.ProjectID, mr.IID)
}

// List lists the merge requests of the scope and fetches the versions of each
// one concurrently. A listing failure is returned as an error.
func List(ctx context.Context, c Client, req ListRequest) (ListResult, error) {
	state := req.State
	if state == "" {
		state = DefaultState
	}

	mrs, err := c.ListMergeRequests(ctx, req.Scope, state)
	if err != nil {
		return ListResult{}, err
	}

	byKey := make(map[string]gitlab.MergeRequest, len(mrs))
	parents := make([]fanout.Parent, 0, len(mrs))
	for _, mr := range mrs {
		k := key(mr)
		byKey[k] = mr
		parents = append(parents, fanout.Parent{ID: k, Name: k})
	}

	res := fanout.Run(ctx, parents, func(ctx context.Context, p fanout.Parent) ([]gitlab.MergeRequestVersion, error) {
		mr := byKey[p.ID]
		return c.ListMergeRequestVersions(ctx, strconv.Itoa(mr.ProjectID), mr.IID)
	}, fanout.Options{Concurrency: req.Concurrency})

	out := ListResult{MergeRequests: []Listed{}, Errors: res.Errors}
	for _, mr := range mrs {
		versions, ok := res.Aggregate[key(mr)]
		if !ok {
			continue
		}
		empty := IsEmpty(versions)
		if req.EmptyOnly && !empty {
			continue
		}
		out.MergeRequests = append(out.MergeRequests, listed(mr, versions, empty))
	}
	return out, nil
}

func listed(mr gitlab.MergeRequest, versions []gitlab.MergeRequestVersion, empty bool) Listed {
	l := Listed{
		IID:          mr.IID,
		ProjectID:    mr.ProjectID,
		Title:        mr.Title,
		State:        mr.State,
		MergeStatus:  mr.MergeStatus,
		HasConflicts: mr.HasConflicts,
		WebURL:       mr.WebURL,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Empty:        empty,
		Versions:     make([]Version, 0, len(versions)),
	}
	for _, v := range versions {
		l.Versions = append(l.Versions, Version{CreatedAt: v.CreatedAt, RealSize: v.RealSize, State: v.State})
	}
	return l
}
