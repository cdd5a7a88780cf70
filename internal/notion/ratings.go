package notion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"
)

const (
	NoFeedbackText = "No rating feedback available yet."

	ratingPageSize = 50
	ratingGlyph    = "★"
	highlyRatedMin = 4.0
	poorlyRatedMax = 2.0
)

// Rating is one rated, model-generated record.
type Rating struct {
	Stars int
	Tags  []string
}

// FeedbackAnalyzer summarizes past ratings of generated items.
type FeedbackAnalyzer struct {
	client *Client
	logger *slog.Logger
}

func NewFeedbackAnalyzer(client *Client, logger *slog.Logger) *FeedbackAnalyzer {
	return &FeedbackAnalyzer{client: client, logger: logger}
}

// Feedback returns the rating summary text. It is NoFeedbackText when
// nothing has been rated, and also when the query fails, in which case the
// error is returned with it.
func (a *FeedbackAnalyzer) Feedback(ctx context.Context) (string, error) {
	ratings, err := a.FetchRatings(ctx)
	if err != nil {
		return NoFeedbackText, err
	}
	return Analyze(ratings), nil
}

// FetchRatings reads the 50 most recent rated records created by the model.
func (a *FeedbackAnalyzer) FetchRatings(ctx context.Context) ([]Rating, error) {
	q := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{
				Property:    PropRating,
				MultiSelect: &notionapi.MultiSelectFilterCondition{IsNotEmpty: true},
			},
			notionapi.PropertyFilter{
				Property:    PropSource,
				MultiSelect: &notionapi.MultiSelectFilterCondition{Contains: SourceClaude},
			},
		},
		Sorts:    []notionapi.SortObject{{Property: PropDate, Direction: notionapi.SortOrderDESC}},
		PageSize: ratingPageSize,
	}

	res, err := a.client.QueryDatabase(ctx, q)
	if err != nil {
		return nil, err
	}

	var ratings []Rating
	for _, page := range res.Results {
		labels := selectNames(page.Properties[PropRating])
		if len(labels) == 0 {
			continue
		}
		stars, ok := ParseStars(labels[0])
		if !ok {
			a.logger.Debug("skipping unparseable rating", "page", string(page.ID), "label", labels[0])
			continue
		}
		ratings = append(ratings, Rating{Stars: stars, Tags: selectNames(page.Properties[PropTags])})
	}
	return ratings, nil
}

// ParseStars reads a "★N" label with N from 1 to 5.
func ParseStars(label string) (int, bool) {
	digits, found := strings.CutPrefix(strings.TrimSpace(label), ratingGlyph)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

// Analyze reports the overall average and the tags whose average is at
// least 4.0 or at most 2.0, in tag order.
func Analyze(ratings []Rating) string {
	if len(ratings) == 0 {
		return NoFeedbackText
	}

	total := 0
	tagRatings := make(map[string][]int)
	for _, r := range ratings {
		total += r.Stars
		for _, tag := range r.Tags {
			tagRatings[tag] = append(tagRatings[tag], r.Stars)
		}
	}

	avg := float64(total) / float64(len(ratings))
	lines := []string{fmt.Sprintf("Overall: %.1f/5 (%d rated items)", avg, len(ratings))}

	tags := make([]string, 0, len(tagRatings))
	for tag := range tagRatings {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		tagAvg := average(tagRatings[tag])
		switch {
		case tagAvg >= highlyRatedMin:
			lines = append(lines, fmt.Sprintf("  Highly rated: '%s' (avg %.1f)", tag, tagAvg))
		case tagAvg <= poorlyRatedMax:
			lines = append(lines, fmt.Sprintf("  Poorly rated: '%s' (avg %.1f)", tag, tagAvg))
		}
	}

	return strings.Join(lines, "\n")
}

func average(xs []int) float64 {
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
