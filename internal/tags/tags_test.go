// SPDX-License-Identifier: MPL-2.0

package tags

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glops/glops/internal/fanout"
	"github.com/glops/glops/internal/gitlab"
)

// fakeGitLab serves a group with three projects and their tags.
func fakeGitLab(t *testing.T, tagRequests *atomic.Int64) *gitlab.Client {
	t.Helper()

	projectTags := map[string][]gitlab.Tag{
		"1": {{Name: "v2"}, {Name: "v1"}},
		"2": {},
		"3": {{Name: "v1"}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/groups/42/projects", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]gitlab.Project{
			{ID: 1, Name: "p1"}, {ID: 2, Name: "p2"}, {ID: 3, Name: "p3"},
		})
	})
	mux.HandleFunc("GET /api/v4/groups/404/projects", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"404 Group Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("GET /api/v4/projects/{id}/repository/tags", func(w http.ResponseWriter, r *http.Request) {
		tagRequests.Add(1)
		tags, ok := projectTags[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"message":"404 Project Not Found"}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(tags)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := gitlab.NewClient(srv.URL, gitlab.WithToken("token"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestTruncation_Apply(t *testing.T) {
	t.Parallel()

	names := []string{"v5", "v4", "v3", "v2", "v1"}
	tests := []struct {
		name  string
		trunc Truncation
		in    []string
		want  []string
	}{
		{name: "latest only", trunc: Truncation{LatestOnly: true, Amount: 3}, in: names, want: []string{"v5"}},
		{name: "latest only empty", trunc: Truncation{LatestOnly: true}, in: nil, want: []string{}},
		{name: "amount from front", trunc: Truncation{Amount: 2}, in: names, want: []string{"v5", "v4"}},
		{name: "amount larger than list", trunc: Truncation{Amount: 10}, in: names, want: names},
		{name: "unbounded", trunc: Truncation{Amount: Unbounded}, in: names, want: names},
		{name: "unbounded empty", trunc: Truncation{Amount: Unbounded}, in: []string{}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.trunc.Apply(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTruncation_ApplyDoesNotAlias(t *testing.T) {
	t.Parallel()

	in := []string{"v2", "v1"}
	out := Truncation{Amount: Unbounded}.Apply(in)
	out[0] = "changed"
	if in[0] != "v2" {
		t.Error("Apply returned a slice sharing the input array")
	}
}

func TestTruncation_Validate(t *testing.T) {
	t.Parallel()

	valid := []Truncation{{Amount: 1}, {Amount: DefaultAmount}, {Amount: Unbounded}, {LatestOnly: true}}
	for _, tr := range valid {
		if err := tr.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", tr, err)
		}
	}

	invalid := []Truncation{{Amount: 0}, {Amount: -2}, {Amount: -100}}
	for _, tr := range invalid {
		if err := tr.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidAmount", tr, err)
		}
	}
}

func TestCollect_GroupLatestOnly(t *testing.T) {
	t.Parallel()

	var tagRequests atomic.Int64
	c := fakeGitLab(t, &tagRequests)

	res, err := Collect(context.Background(), c, Request{
		Scope:       gitlab.Scope{GroupID: "42"},
		Truncation:  Truncation{LatestOnly: true},
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if res.Err() != nil {
		t.Fatalf("worker errors: %v", res.Err())
	}

	want := fanout.Aggregate[[]string]{
		"p1": {"v2"},
		"p2": {},
		"p3": {"v1"},
	}
	if diff := cmp.Diff(want, res.Aggregate); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if tagRequests.Load() != 3 {
		t.Errorf("tag requests = %d, want 3", tagRequests.Load())
	}

	out, err := json.Marshal(res.Aggregate)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(out); got != `{"p1":["v2"],"p2":[],"p3":["v1"]}` {
		t.Errorf("json = %s", got)
	}
}

func TestCollect_SingleProject(t *testing.T) {
	t.Parallel()

	var tagRequests atomic.Int64
	c := fakeGitLab(t, &tagRequests)

	res, err := Collect(context.Background(), c, Request{
		Scope:      gitlab.Scope{ProjectID: "1"},
		Truncation: Truncation{Amount: DefaultAmount},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// Project mode keys the result by the id given on the command line.
	want := fanout.Aggregate[[]string]{"1": {"v2", "v1"}}
	if diff := cmp.Diff(want, res.Aggregate); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_GroupNotFoundSpawnsNoWorkers(t *testing.T) {
	t.Parallel()

	var tagRequests atomic.Int64
	c := fakeGitLab(t, &tagRequests)

	_, err := Collect(context.Background(), c, Request{
		Scope:      gitlab.Scope{GroupID: "404"},
		Truncation: Truncation{LatestOnly: true},
	})

	var remoteErr *gitlab.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *gitlab.RemoteError, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", remoteErr.StatusCode)
	}
	if !strings.Contains(remoteErr.Body, "404 Group Not Found") {
		t.Errorf("Body = %q, want remote message", remoteErr.Body)
	}
	if tagRequests.Load() != 0 {
		t.Errorf("tag requests = %d, want 0", tagRequests.Load())
	}
}

func TestCollect_ProjectFailureIsCollected(t *testing.T) {
	t.Parallel()

	var tagRequests atomic.Int64
	c := fakeGitLab(t, &tagRequests)

	res, err := Collect(context.Background(), c, Request{
		Scope:      gitlab.Scope{ProjectID: "missing"},
		Truncation: Truncation{Amount: Unbounded},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
	if !errors.Is(res.Errors[0], gitlab.ErrRemote) {
		t.Errorf("error = %v, want ErrRemote", res.Errors[0])
	}
	if len(res.Aggregate) != 0 {
		t.Errorf("aggregate = %v, want empty", res.Aggregate)
	}
}

func TestCollect_RejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	var tagRequests atomic.Int64
	c := fakeGitLab(t, &tagRequests)

	if _, err := Collect(context.Background(), c, Request{Truncation: Truncation{Amount: 1}}); !errors.Is(err, gitlab.ErrInvalidScope) {
		t.Errorf("empty scope error = %v, want ErrInvalidScope", err)
	}
	if _, err := Collect(context.Background(), c, Request{Scope: gitlab.Scope{GroupID: "42"}}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
}
