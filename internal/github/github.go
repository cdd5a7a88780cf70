package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v69/github"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"

	"devdigest/internal/activity"
)

const eventsPerPage = 100

var kindByType = map[string]activity.Kind{
	"PushEvent":        activity.KindPush,
	"PullRequestEvent": activity.KindPullRequest,
	"IssuesEvent":      activity.KindIssue,
	"CreateEvent":      activity.KindCreate,
	"WatchEvent":       activity.KindWatch,
	"ForkEvent":        activity.KindFork,
}

// Source reads a user's public events from the GitHub REST API.
type Source struct {
	client   *gh.Client
	username string
}

type options struct {
	baseURL string
	timeout time.Duration
}

// Option configures a Source.
type Option func(*options)

// WithBaseURL sets a custom API base URL (for testing or GitHub Enterprise).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// NewSource creates a GitHub events source. The token is optional; without it
// requests are unauthenticated and subject to the anonymous rate limit.
func NewSource(username, token string, opts ...Option) (*Source, error) {
	o := options{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	httpClient.Timeout = o.timeout

	client := gh.NewClient(httpClient)
	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Source{client: client, username: username}, nil
}

func (s *Source) Name() string { return "github" }

// FetchEvents returns the user's public events created at or after since.
// One page of up to 100 events is read, and every event is checked against
// since because the feed is not guaranteed to be ordered.
func (s *Source) FetchEvents(ctx context.Context, since time.Time) ([]activity.Event, error) {
	ghEvents, _, err := s.client.Activity.ListEventsPerformedByUser(ctx, s.username, true,
		&gh.ListOptions{PerPage: eventsPerPage})
	if err != nil {
		return nil, fmt.Errorf("list public events for %s: %w", s.username, err)
	}

	var events []activity.Event
	for _, e := range ghEvents {
		if e.GetCreatedAt().Time.Before(since) {
			continue
		}
		events = append(events, parseEvent(e))
	}
	return events, nil
}

func parseEvent(e *gh.Event) activity.Event {
	ev := activity.Event{
		Kind:      activity.KindOther,
		Label:     e.GetType(),
		Repo:      e.GetRepo().GetName(),
		Source:    "github",
		CreatedAt: e.GetCreatedAt().Time,
	}
	if ev.Repo == "" {
		ev.Repo = "unknown"
	}
	if kind, ok := kindByType[e.GetType()]; ok {
		ev.Kind = kind
	}

	payload, err := e.ParsePayload()
	if err != nil {
		return ev
	}

	switch p := payload.(type) {
	case *gh.PushEvent:
		for _, c := range p.Commits {
			ev.Commits = append(ev.Commits, activity.FirstLine(c.GetMessage()))
		}
		ev.CommitCount = len(p.Commits)
		if ev.CommitCount == 0 {
			ev.CommitCount = p.GetSize()
		}
	case *gh.PullRequestEvent:
		ev.Action = p.GetAction()
		ev.Title = p.GetPullRequest().GetTitle()
	case *gh.IssuesEvent:
		ev.Action = p.GetAction()
		ev.Title = p.GetIssue().GetTitle()
	case *gh.CreateEvent:
		ev.RefType = p.GetRefType()
		ev.Ref = p.GetRef()
	}
	return ev
}
