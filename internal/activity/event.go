package activity

import "time"

type Kind string

const (
	KindPush        Kind = "push"
	KindPullRequest Kind = "pull_request"
	KindIssue       Kind = "issue"
	KindCreate      Kind = "create"
	KindWatch       Kind = "watch"
	KindFork        Kind = "fork"
	KindOther       Kind = "other"
)

type Event struct {
	Kind        Kind
	Label       string // raw event type, rendered for KindOther
	Action      string
	Title       string
	Ref         string
	RefType     string
	Commits     []string // commit subject lines
	CommitCount int
	Repo        string
	Source      string // "github" or "gitlab"
	CreatedAt   time.Time
}
