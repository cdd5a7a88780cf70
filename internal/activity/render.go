package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	noActivityFormat  = "No %s activity in the last 24 hours."
	unavailableFormat = "%s activity could not be retrieved."

	defaultWindow     = 24 * time.Hour
	windowSlack       = time.Minute
	maxCommitSubjects = 3
)

// Placeholders for a GitHub-only collector over the default window.
var (
	NoActivityText  = fmt.Sprintf(noActivityFormat, "GitHub")
	UnavailableText = fmt.Sprintf(unavailableFormat, "GitHub")
)

// Render returns one summary line per event created at or after since,
// keeping input order, or "" when none qualify. Events are checked
// individually; input need not be sorted.
func Render(events []Event, since time.Time) string {
	var lines []string
	for _, e := range events {
		if e.CreatedAt.Before(since) {
			continue
		}
		lines = append(lines, renderLine(e))
	}

	return strings.Join(lines, "\n")
}

func renderLine(e Event) string {
	switch e.Kind {
	case KindPush:
		subjects := e.Commits
		if len(subjects) > maxCommitSubjects {
			subjects = subjects[:maxCommitSubjects]
		}
		count := e.CommitCount
		if count == 0 {
			count = len(e.Commits)
		}
		return fmt.Sprintf("- Push to %s: %d commit(s) — %s", e.Repo, count, strings.Join(subjects, ", "))
	case KindPullRequest:
		return fmt.Sprintf("- PR %s: %s (%s)", e.Action, e.Title, e.Repo)
	case KindIssue:
		return fmt.Sprintf("- Issue %s: %s (%s)", e.Action, e.Title, e.Repo)
	case KindCreate:
		return fmt.Sprintf("- Created %s %s in %s", e.RefType, e.Ref, e.Repo)
	case KindWatch:
		return fmt.Sprintf("- Watch: %s", e.Repo)
	case KindFork:
		return fmt.Sprintf("- Fork: %s", e.Repo)
	}

	label := e.Label
	if label == "" {
		label = string(e.Kind)
	}
	return fmt.Sprintf("- %s: %s", label, e.Repo)
}

// FirstLine returns s up to the first newline.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
