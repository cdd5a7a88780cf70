package gitlab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	gl "gitlab.com/gitlab-org/api/client-go"

	"devdigest/internal/activity"
)

const (
	defaultBaseURL = "https://gitlab.com"
	maxPages       = 5
)

// Source reads the authenticated user's contribution events from GitLab.
type Source struct {
	client   *gl.Client
	projects map[string]string
}

// NewSource creates a GitLab events source. An empty baseURL means gitlab.com.
func NewSource(token, baseURL string, timeout time.Duration) (*Source, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	client, err := gl.NewClient(token,
		gl.WithBaseURL(baseURL),
		gl.WithHTTPClient(httpClient),
		gl.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	return &Source{client: client, projects: make(map[string]string)}, nil
}

func (s *Source) Name() string { return "gitlab" }

// FetchEvents returns contribution events created at or after since.
func (s *Source) FetchEvents(ctx context.Context, since time.Time) ([]activity.Event, error) {
	u, _, err := s.client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	// The after filter is a date and exclusive, so step back one day and
	// compare exact timestamps below.
	opt := &gl.ListContributionEventsOptions{
		ListOptions: gl.ListOptions{PerPage: 100},
		After:       gl.Ptr(gl.ISOTime(since.AddDate(0, 0, -1))),
	}

	var events []activity.Event
	for page := 0; page < maxPages; page++ {
		glEvents, resp, err := s.client.Users.ListUserContributionEvents(u.ID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list contribution events: %w", err)
		}

		for _, e := range glEvents {
			if e.CreatedAt == nil || e.CreatedAt.Before(since) {
				continue
			}
			events = append(events, parseEvent(e, s.projectPath(ctx, e.ProjectID)))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return events, nil
}

// projectPath resolves a project ID to its namespaced path, caching results.
func (s *Source) projectPath(ctx context.Context, id any) string {
	key := fmt.Sprint(id)
	if path, ok := s.projects[key]; ok {
		return path
	}

	path := "project " + key
	if p, _, err := s.client.Projects.GetProject(id, nil, gl.WithContext(ctx)); err == nil && p.PathWithNamespace != "" {
		path = p.PathWithNamespace
	}
	s.projects[key] = path
	return path
}

func parseEvent(e *gl.ContributionEvent, repo string) activity.Event {
	ev := activity.Event{
		Kind:      activity.KindOther,
		Label:     strings.TrimSpace(e.ActionName + " " + e.TargetType),
		Action:    e.ActionName,
		Title:     e.TargetTitle,
		Repo:      repo,
		Source:    "gitlab",
		CreatedAt: *e.CreatedAt,
	}

	switch {
	case e.ActionName == "pushed new" && e.PushData.RefType != "":
		ev.Kind = activity.KindCreate
		ev.RefType = e.PushData.RefType
		ev.Ref = e.PushData.Ref
	case strings.HasPrefix(e.ActionName, "pushed"):
		ev.Kind = activity.KindPush
		ev.CommitCount = int(e.PushData.CommitCount)
		if e.PushData.CommitTitle != "" {
			ev.Commits = []string{activity.FirstLine(e.PushData.CommitTitle)}
		}
	case e.TargetType == "MergeRequest":
		ev.Kind = activity.KindPullRequest
	case e.TargetType == "Issue":
		ev.Kind = activity.KindIssue
	}
	return ev
}
