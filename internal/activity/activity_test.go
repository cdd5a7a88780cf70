package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func since() time.Time { return now.Add(-24 * time.Hour) }

func TestRenderFormats(t *testing.T) {
	events := []Event{
		{Kind: KindPush, Repo: "me/app", Commits: []string{"a", "b", "c", "d"}, CommitCount: 4, CreatedAt: now},
		{Kind: KindPullRequest, Action: "opened", Title: "Add cache", Repo: "me/app", CreatedAt: now},
		{Kind: KindIssue, Action: "closed", Title: "Crash on start", Repo: "me/app", CreatedAt: now},
		{Kind: KindCreate, RefType: "branch", Ref: "feature-x", Repo: "me/app", CreatedAt: now},
		{Kind: KindWatch, Repo: "golang/go", CreatedAt: now},
		{Kind: KindFork, Repo: "spf13/cobra", CreatedAt: now},
		{Kind: KindOther, Label: "ReleaseEvent", Repo: "me/app", CreatedAt: now},
	}

	want := "- Push to me/app: 4 commit(s) — a, b, c\n" +
		"- PR opened: Add cache (me/app)\n" +
		"- Issue closed: Crash on start (me/app)\n" +
		"- Created branch feature-x in me/app\n" +
		"- Watch: golang/go\n" +
		"- Fork: spf13/cobra\n" +
		"- ReleaseEvent: me/app"

	assert.Equal(t, want, Render(events, since()))
}

func TestRenderPushCountFallsBackToCommits(t *testing.T) {
	events := []Event{{Kind: KindPush, Repo: "me/app", Commits: []string{"fix"}, CreatedAt: now}}
	assert.Equal(t, "- Push to me/app: 1 commit(s) — fix", Render(events, since()))
}

func TestRenderDropsOldEventsUnsorted(t *testing.T) {
	events := []Event{
		{Kind: KindWatch, Repo: "old/one", CreatedAt: now.Add(-30 * time.Hour)},
		{Kind: KindWatch, Repo: "new/one", CreatedAt: now.Add(-1 * time.Hour)},
		{Kind: KindWatch, Repo: "old/two", CreatedAt: now.Add(-48 * time.Hour)},
		{Kind: KindFork, Repo: "new/two", CreatedAt: now.Add(-23 * time.Hour)},
		{Kind: KindWatch, Repo: "edge", CreatedAt: since()},
	}

	got := Render(events, since())
	assert.Equal(t, "- Watch: new/one\n- Fork: new/two\n- Watch: edge", got)
	assert.NotContains(t, got, "old/")
}

func TestRenderNoActivity(t *testing.T) {
	assert.Equal(t, "", Render(nil, since()))

	old := []Event{{Kind: KindWatch, Repo: "old", CreatedAt: now.Add(-25 * time.Hour)}}
	assert.Equal(t, "", Render(old, since()))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "subject", FirstLine("subject\n\nbody"))
	assert.Equal(t, "single", FirstLine("single"))
	assert.Equal(t, "", FirstLine(""))
}

type fakeSource struct {
	name   string
	events []Event
	err    error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) FetchEvents(context.Context, time.Time) ([]Event, error) {
	return f.events, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCollector(sources ...Source) *Collector {
	c := NewCollector(discardLogger(), sources...)
	c.now = func() time.Time { return now }
	return c
}

func TestCollectorSummary(t *testing.T) {
	gh := fakeSource{name: "github", events: []Event{{Kind: KindWatch, Repo: "a/b", CreatedAt: now}}}
	gl := fakeSource{name: "gitlab", events: []Event{{Kind: KindFork, Repo: "c/d", CreatedAt: now}}}

	c := newCollector(gh, gl)
	text, err := c.Summary(context.Background(), since())
	assert.NoError(t, err)
	assert.Equal(t, "- Watch: a/b\n- Fork: c/d", text)
}

func TestCollectorPartialFailure(t *testing.T) {
	gh := fakeSource{name: "github", err: errors.New("boom")}
	gl := fakeSource{name: "gitlab", events: []Event{{Kind: KindFork, Repo: "c/d", CreatedAt: now}}}

	c := newCollector(gh, gl)
	text, err := c.Summary(context.Background(), since())
	assert.NoError(t, err)
	assert.Equal(t, "- Fork: c/d", text)
}

func TestCollectorAllSourcesFail(t *testing.T) {
	gh := fakeSource{name: "github", err: errors.New("boom")}

	c := newCollector(gh)
	text, err := c.Summary(context.Background(), since())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "github: boom")
	assert.Equal(t, UnavailableText, text)
}

func TestCollectorNoQualifyingEvents(t *testing.T) {
	gh := fakeSource{name: "github"}

	c := newCollector(gh)
	text, err := c.Summary(context.Background(), since())
	assert.NoError(t, err)
	assert.Equal(t, NoActivityText, text)
}

func TestCollectorWithoutSources(t *testing.T) {
	text, err := newCollector().Summary(context.Background(), since())
	assert.Error(t, err)
	assert.Equal(t, UnavailableText, text)
}

func TestCollectorNoActivityCustomWindow(t *testing.T) {
	c := newCollector(fakeSource{name: "github"})

	text, err := c.Summary(context.Background(), time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, "No GitHub activity since 2026-10-11 00:00 UTC.", text)
}

func TestCollectorLabel(t *testing.T) {
	gh := fakeSource{name: "github"}
	gl := fakeSource{name: "gitlab"}

	assert.Equal(t, "GitHub", newCollector().Label())
	assert.Equal(t, "GitHub", newCollector(gh).Label())
	assert.Equal(t, "GitLab", newCollector(gl).Label())
	assert.Equal(t, "GitHub and GitLab", newCollector(gh, gl).Label())
}

func TestCollectorPlaceholdersNameSources(t *testing.T) {
	gl := fakeSource{name: "gitlab"}
	text, err := newCollector(gl).Summary(context.Background(), since())
	assert.NoError(t, err)
	assert.Equal(t, "No GitLab activity in the last 24 hours.", text)

	gh := fakeSource{name: "github", err: errors.New("boom")}
	gl.err = errors.New("boom")
	text, err = newCollector(gh, gl).Summary(context.Background(), since())
	assert.Error(t, err)
	assert.Equal(t, "GitHub and GitLab activity could not be retrieved.", text)
}
