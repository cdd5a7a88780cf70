package gitlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devdigest/internal/activity"
)

var cutoff = time.Date(2026, 10, 13, 12, 0, 0, 0, time.UTC)

const contributionEvents = `[
  {"id": 1, "project_id": 9, "action_name": "pushed to", "target_type": null, "created_at": "2026-10-14T08:00:00Z",
   "push_data": {"commit_count": 3, "ref_type": "branch", "ref": "main", "commit_title": "Refactor loader"}},
  {"id": 2, "project_id": 9, "action_name": "pushed new", "created_at": "2026-10-14T07:00:00Z",
   "push_data": {"commit_count": 0, "ref_type": "tag", "ref": "v0.3.0"}},
  {"id": 3, "project_id": 9, "action_name": "opened", "target_type": "MergeRequest", "target_title": "Add retries",
   "created_at": "2026-10-14T06:00:00Z"},
  {"id": 4, "project_id": 9, "action_name": "closed", "target_type": "Issue", "target_title": "Flaky test",
   "created_at": "2026-10-10T06:00:00Z"},
  {"id": 5, "project_id": 9, "action_name": "commented on", "target_type": "Note", "target_title": "Flaky test",
   "created_at": "2026-10-14T05:00:00Z"}
]`

func newServer(t *testing.T, projectHits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v4/user":
			w.Write([]byte(`{"id": 42, "username": "me"}`))
		case "/api/v4/users/42/events":
			w.Write([]byte(contributionEvents))
		case "/api/v4/projects/9":
			*projectHits++
			w.Write([]byte(`{"id": 9, "path_with_namespace": "group/app"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchEvents(t *testing.T) {
	hits := 0
	server := newServer(t, &hits)
	defer server.Close()

	src, err := NewSource("glpat-test", server.URL, 5*time.Second)
	require.NoError(t, err)

	events, err := src.FetchEvents(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, activity.KindPush, events[0].Kind)
	assert.Equal(t, 3, events[0].CommitCount)
	assert.Equal(t, []string{"Refactor loader"}, events[0].Commits)
	assert.Equal(t, "group/app", events[0].Repo)
	assert.Equal(t, "gitlab", events[0].Source)

	assert.Equal(t, activity.KindCreate, events[1].Kind)
	assert.Equal(t, "tag", events[1].RefType)
	assert.Equal(t, "v0.3.0", events[1].Ref)

	assert.Equal(t, activity.KindPullRequest, events[2].Kind)
	assert.Equal(t, "opened", events[2].Action)
	assert.Equal(t, "Add retries", events[2].Title)

	assert.Equal(t, activity.KindOther, events[3].Kind)
	assert.Equal(t, "commented on Note", events[3].Label)

	assert.Equal(t, 1, hits, "project lookups should be cached")
}

func TestFetchEventsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "401 Unauthorized"}`))
	}))
	defer server.Close()

	src, err := NewSource("glpat-test", server.URL, 5*time.Second)
	require.NoError(t, err)

	_, err = src.FetchEvents(context.Background(), cutoff)
	assert.Error(t, err)
}
