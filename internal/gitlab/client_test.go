// SPDX-License-Identifier: MPL-2.0

package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newTestClient starts a server with handler and returns a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rawURL  string
		wantErr bool
		wantAPI string
	}{
		{name: "host only", rawURL: "https://gitlab.example.com", wantAPI: "https://gitlab.example.com/api/v4"},
		{name: "trailing slash", rawURL: "https://gitlab.example.com/", wantAPI: "https://gitlab.example.com/api/v4"},
		{name: "already api path", rawURL: "https://gitlab.example.com/api/v4", wantAPI: "https://gitlab.example.com/api/v4"},
		{name: "empty", rawURL: "  ", wantErr: true},
		{name: "no scheme", rawURL: "gitlab.example.com", wantErr: true},
		{name: "ftp scheme", rawURL: "ftp://gitlab.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewClient(tt.rawURL)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBaseURL) {
					t.Fatalf("NewClient(%q) error = %v, want ErrInvalidBaseURL", tt.rawURL, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient(%q): %v", tt.rawURL, err)
			}
			if c.BaseURL() != tt.wantAPI {
				t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), tt.wantAPI)
			}
		})
	}
}

func TestClient_SendsTokenHeader(t *testing.T) {
	t.Parallel()

	var gotToken, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(TokenHeader)
		gotUA = r.Header.Get("User-Agent")
		writeJSON(t, w, []User{})
	}, WithToken("s3cret"), WithUserAgent("glops/test"))

	if _, err := c.ListUsers(context.Background()); err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if gotToken != "s3cret" {
		t.Errorf("PRIVATE-TOKEN = %q, want %q", gotToken, "s3cret")
	}
	if gotUA != "glops/test" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "glops/test")
	}
}

func TestClient_AnonymousOmitsTokenHeader(t *testing.T) {
	t.Parallel()

	present := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header[http.CanonicalHeaderKey(TokenHeader)]
		writeJSON(t, w, []User{})
	})

	if _, err := c.ListUsers(context.Background()); err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if present {
		t.Error("PRIVATE-TOKEN header sent without a token")
	}
}

func TestClient_RemoteError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"404 Group Not Found"}`)
	})

	_, err := c.ListGroupProjects(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T: %v", err, err)
	}
	if remoteErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", remoteErr.StatusCode)
	}
	if !remoteErr.NotFound() {
		t.Error("NotFound() = false, want true")
	}
	if remoteErr.Body != `{"message":"404 Group Not Found"}` {
		t.Errorf("Body = %q, want the verbatim response", remoteErr.Body)
	}
	if !errors.Is(err, ErrRemote) {
		t.Error("errors.Is(err, ErrRemote) = false")
	}
}

func TestClient_CreatedIsSuccess(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"ref":"main","status":"created"}`)
	})

	p, err := c.CreatePipeline(context.Background(), "42", "main")
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	if p.ID != 7 || p.Status != "created" {
		t.Errorf("pipeline = %+v", p)
	}
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srvURL := srv.URL
	srv.Close()

	c, err := NewClient(srvURL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.ListProjectTags(context.Background(), "1")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
}

func TestClient_DecodeError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>maintenance</html>")
	})

	_, err := c.ListProjectTags(context.Background(), "1")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestClient_EscapesNamespacedIDs(t *testing.T) {
	t.Parallel()

	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		writeJSON(t, w, []Tag{})
	})

	if _, err := c.ListProjectTags(context.Background(), "infra/terraform modules"); err != nil {
		t.Fatalf("ListProjectTags: %v", err)
	}
	want := "/api/v4/projects/infra%2Fterraform%20modules/repository/tags"
	if gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestClient_PerPage(t *testing.T) {
	t.Parallel()

	var gotPerPage string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPerPage = r.URL.Query().Get("per_page")
		writeJSON(t, w, []Project{})
	}, WithPerPage(100))

	projects, err := c.ListGroupProjects(context.Background(), "7")
	if err != nil {
		t.Fatalf("ListGroupProjects: %v", err)
	}
	if projects == nil {
		t.Error("ListGroupProjects returned nil slice for an empty group")
	}
	if gotPerPage != "100" {
		t.Errorf("per_page = %q, want 100", gotPerPage)
	}
}

func TestListProjectTags_KeepsRemoteOrder(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []Tag{{Name: "v1.10.0"}, {Name: "v1.9.0"}, {Name: "v1.2.0"}})
	})

	tags, err := c.ListProjectTags(context.Background(), "3")
	if err != nil {
		t.Fatalf("ListProjectTags: %v", err)
	}
	if diff := cmp.Diff([]string{"v1.10.0", "v1.9.0", "v1.2.0"}, TagNames(tags)); diff != "" {
		t.Errorf("tag names mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateMergeRequest_Body(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var gotContentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, MergeRequest{IID: 12, MergeStatus: "checking", WebURL: "https://gl/mr/12", User: &MergeRequestUser{CanMerge: true}})
	})

	mr, err := c.CreateMergeRequest(context.Background(), "5", CreateMergeRequestOptions{
		SourceBranch:       "staging",
		TargetBranch:       "master",
		Title:              "Release",
		AssigneeID:         9,
		RemoveSourceBranch: true,
	})
	if err != nil {
		t.Fatalf("CreateMergeRequest: %v", err)
	}
	if mr.IID != 12 || mr.User == nil || !mr.User.CanMerge {
		t.Errorf("merge request = %+v", mr)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}

	want := map[string]any{
		"source_branch":        "staging",
		"target_branch":        "master",
		"title":                "Release",
		"assignee_id":          float64(9),
		"remove_source_branch": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestListMergeRequests_Scope(t *testing.T) {
	t.Parallel()

	var gotPath, gotState string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotState = r.URL.Query().Get("state")
		writeJSON(t, w, []MergeRequest{{IID: 1}})
	})

	if _, err := c.ListMergeRequests(context.Background(), Scope{GroupID: "17"}, "opened"); err != nil {
		t.Fatalf("ListMergeRequests: %v", err)
	}
	if gotPath != "/api/v4/groups/17/merge_requests" || gotState != "opened" {
		t.Errorf("path = %q, state = %q", gotPath, gotState)
	}

	if _, err := c.ListMergeRequests(context.Background(), Scope{}, "all"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("empty scope error = %v, want ErrInvalidScope", err)
	}
	if _, err := c.ListMergeRequests(context.Background(), Scope{ProjectID: "1", GroupID: "2"}, "all"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("double scope error = %v, want ErrInvalidScope", err)
	}
}

func TestUserByUsername(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") == "alice" {
			writeJSON(t, w, []User{{ID: 3, Username: "alice"}})
			return
		}
		writeJSON(t, w, []User{})
	})

	u, err := c.UserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UserByUsername: %v", err)
	}
	if u.ID != 3 {
		t.Errorf("ID = %d, want 3", u.ID)
	}

	if _, err := c.UserByUsername(context.Background(), "bob"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestListAssignedIssues_Query(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"scope":       q.Get("scope"),
			"assignee_id": q.Get("assignee_id"),
			"state":       q.Get("state"),
		}
		writeJSON(t, w, []Issue{})
	})

	if _, err := c.ListAssignedIssues(context.Background(), 3, "opened"); err != nil {
		t.Fatalf("ListAssignedIssues: %v", err)
	}
	want := map[string]string{"scope": "assigned_to_me", "assignee_id": "3", "state": "opened"}
	if diff := cmp.Diff(want, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare_HasChanges(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "master" || r.URL.Query().Get("to") != "staging" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(t, w, Comparison{Commits: []Commit{{ID: "abc"}}})
	})

	cmpResult, err := c.Compare(context.Background(), "5", "master", "staging")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !cmpResult.HasChanges() {
		t.Error("HasChanges() = false, want true")
	}
	if (&Comparison{CompareSameRef: true}).HasChanges() {
		t.Error("same ref comparison reported changes")
	}
}
