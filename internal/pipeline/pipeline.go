// Package pipeline runs one digest: read activity, requests and feedback,
// generate the digest, and publish it.
//
// Reads are degradable: each returns a usable placeholder together with its
// error, the error is logged, and the run continues. Generation and
// publishing are fatal: their errors end the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"devdigest/internal/claude"
	"devdigest/internal/digest"
	"devdigest/internal/metrics"
	"devdigest/internal/notion"
)

type ActivityReader interface {
	// Label names the sources behind Summary, e.g. "GitHub and GitLab".
	Label() string
	Summary(ctx context.Context, since time.Time) (string, error)
}

type RequestReader interface {
	Pending(ctx context.Context) ([]digest.Request, error)
}

type FeedbackReader interface {
	Feedback(ctx context.Context) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, userMessage string) (*claude.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, d *digest.Digest) (*notion.PublishResult, error)
}

type Pipeline struct {
	Activity  ActivityReader
	Requests  RequestReader
	Feedback  FeedbackReader
	Generator Generator
	Publisher Publisher
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

type Options struct {
	Since  time.Time
	DryRun bool
}

// Report summarizes a finished run.
type Report struct {
	Digest    *digest.Digest
	Published *notion.PublishResult
}

func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	defer func() {
		p.Metrics.RunDuration.Set(time.Since(start).Seconds())
	}()

	activityText, err := p.Activity.Summary(ctx, opts.Since)
	p.degraded("activity", err)
	p.Logger.Info("activity fetched", "since", opts.Since.Format(time.RFC3339))

	requests, err := p.Requests.Pending(ctx)
	p.degraded("requests", err)
	p.Logger.Info("pending requests found", "count", len(requests))

	feedback, err := p.Feedback.Feedback(ctx)
	p.degraded("feedback", err)
	p.Logger.Info("rating feedback analyzed")

	gen, err := p.Generator.Generate(ctx, claude.BuildUserMessage(p.Activity.Label(), activityText, requests, feedback))
	if err != nil {
		return nil, fmt.Errorf("generate digest: %w", err)
	}
	p.Metrics.ModelCalls.Add(float64(gen.Calls))
	p.Metrics.ModelTokens.WithLabelValues("input").Add(float64(gen.Usage.InputTokens))
	p.Metrics.ModelTokens.WithLabelValues("output").Add(float64(gen.Usage.OutputTokens))
	p.Logger.Info("digest generated", "calls", gen.Calls)

	report := &Report{Digest: gen.Digest}

	if opts.DryRun {
		p.Logger.Info("dry run, skipping publish",
			"learning", len(gen.Digest.Learning),
			"news", len(gen.Digest.News),
			"action", len(gen.Digest.Action),
			"idea", len(gen.Digest.Idea),
			"request_answers", len(gen.Digest.RequestAnswers),
		)
		return report, nil
	}

	published, err := p.Publisher.Publish(ctx, gen.Digest)
	if published != nil {
		p.recordPublished(gen.Digest, published)
	}
	if err != nil {
		if published != nil && published.DigestID != "" {
			p.Logger.Error("publish failed partway", "digest_id", published.DigestID,
				"items_created", len(published.ItemIDs))
		}
		return nil, fmt.Errorf("publish digest: %w", err)
	}
	report.Published = published

	p.Metrics.LastSuccess.SetToCurrentTime()
	p.Logger.Info("daily digest completed", "digest_id", published.DigestID,
		"items", len(published.ItemIDs), "requests_completed", len(published.CompletedRequests))
	return report, nil
}

func (p *Pipeline) degraded(stage string, err error) {
	if err == nil {
		return
	}
	p.Metrics.DegradedInputs.WithLabelValues(stage).Inc()
	p.Logger.Warn("input unavailable, continuing with placeholder", "stage", stage, "error", err)
}

// recordPublished attributes created item IDs to categories in publish order.
func (p *Pipeline) recordPublished(d *digest.Digest, res *notion.PublishResult) {
	remaining := len(res.ItemIDs)
	for _, c := range digest.ItemCategories {
		n := min(len(d.Items(c)), remaining)
		if n > 0 {
			p.Metrics.ItemsPublished.WithLabelValues(string(c)).Add(float64(n))
		}
		remaining -= n
	}
	if res.DigestID != "" {
		p.Metrics.ItemsPublished.WithLabelValues(string(digest.CategoryDigest)).Inc()
	}
	p.Metrics.RequestsCompleted.Add(float64(len(res.CompletedRequests)))
}
