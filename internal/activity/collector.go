package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Source fetches events created at or after since.
type Source interface {
	Name() string
	FetchEvents(ctx context.Context, since time.Time) ([]Event, error)
}

var displayNames = map[string]string{"github": "GitHub", "gitlab": "GitLab"}

// Collector merges events from every configured source into the activity text
// fed to the digest prompt.
type Collector struct {
	sources []Source
	logger  *slog.Logger
	now     func() time.Time
}

func NewCollector(logger *slog.Logger, sources ...Source) *Collector {
	return &Collector{sources: sources, logger: logger, now: time.Now}
}

// Label names the configured sources for headings and placeholder text,
// e.g. "GitHub" or "GitHub and GitLab".
func (c *Collector) Label() string {
	if len(c.sources) == 0 {
		return displayNames["github"]
	}
	names := make([]string, 0, len(c.sources))
	for _, src := range c.sources {
		name := src.Name()
		if d, ok := displayNames[name]; ok {
			name = d
		}
		names = append(names, name)
	}
	return strings.Join(names, " and ")
}

// Summary always returns usable text. A failing source is logged and
// skipped; when every source fails the text is the unavailable placeholder
// and the joined source errors are returned alongside it.
func (c *Collector) Summary(ctx context.Context, since time.Time) (string, error) {
	var events []Event
	var errs []error
	succeeded := 0

	for _, src := range c.sources {
		evs, err := src.FetchEvents(ctx, since)
		if err != nil {
			c.logger.Warn("failed to fetch activity", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		succeeded++
		c.logger.Debug("activity fetched", "source", src.Name(), "events", len(evs))
		events = append(events, evs...)
	}

	if succeeded == 0 {
		if len(errs) == 0 {
			errs = append(errs, errors.New("no activity sources configured"))
		}
		return fmt.Sprintf(unavailableFormat, c.Label()), errors.Join(errs...)
	}

	if text := Render(events, since); text != "" {
		return text, nil
	}
	return noActivityText(c.Label(), since, c.now()), nil
}

// noActivityText words the empty result by its window. The default trailing
// 24 hours keeps the fixed wording; any other window names its start.
func noActivityText(label string, since, now time.Time) string {
	window := now.Sub(since)
	if window > defaultWindow-windowSlack && window < defaultWindow+windowSlack {
		return fmt.Sprintf(noActivityFormat, label)
	}
	return fmt.Sprintf("No %s activity since %s.", label, since.Format("2006-01-02 15:04 MST"))
}
