// Package digest defines the structured daily digest produced by the model.
package digest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when a decoded digest is missing required fields.
var ErrInvalid = errors.New("invalid digest")

// Category is an item list in the digest, also used as the record type tag.
type Category string

const (
	CategoryDigest   Category = "digest"
	CategoryLearning Category = "learning"
	CategoryNews     Category = "news"
	CategoryAction   Category = "action"
	CategoryIdea     Category = "idea"
)

// ItemCategories is the publishing order of item lists.
var ItemCategories = []Category{CategoryLearning, CategoryNews, CategoryAction, CategoryIdea}

var validPriorities = map[string]bool{"High": true, "Medium": true, "Low": true}

// canonicalPriority maps any casing of a known priority to its stored form.
// Unknown values are returned unchanged.
func canonicalPriority(p string) string {
	for v := range validPriorities {
		if strings.EqualFold(v, strings.TrimSpace(p)) {
			return v
		}
	}
	return p
}

// Request is an open question stored in the workspace database.
type Request struct {
	ID    string
	Title string
	Date  string
}

type Item struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type Answer struct {
	RequestID     string `json:"request_id"`
	AnswerSummary string `json:"answer_summary"`
}

type Digest struct {
	Summary        string   `json:"digest_summary"`
	Learning       []Item   `json:"learning"`
	News           []Item   `json:"news"`
	Action         []Item   `json:"action"`
	Idea           []Item   `json:"idea"`
	RequestAnswers []Answer `json:"request_answers"`
}

// Items returns the list for an item category.
func (d *Digest) Items(c Category) []Item {
	switch c {
	case CategoryLearning:
		return d.Learning
	case CategoryNews:
		return d.News
	case CategoryAction:
		return d.Action
	case CategoryIdea:
		return d.Idea
	}
	return nil
}

// Parse decodes and validates a digest JSON document.
func Parse(data []byte) (*Digest, error) {
	var raw struct {
		Digest
		Summary *string `json:"digest_summary"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode digest: %w", err)
	}
	if raw.Summary == nil {
		return nil, fmt.Errorf("%w: digest_summary is missing", ErrInvalid)
	}

	d := raw.Digest
	d.Summary = *raw.Summary
	for _, c := range ItemCategories {
		items := d.Items(c)
		for i := range items {
			items[i].Priority = canonicalPriority(items[i].Priority)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks required fields. Item counts are not enforced; see CountWarnings.
func (d *Digest) Validate() error {
	if d.Summary == "" {
		return fmt.Errorf("%w: digest_summary is empty", ErrInvalid)
	}
	for _, c := range ItemCategories {
		for i, item := range d.Items(c) {
			if item.Title == "" {
				return fmt.Errorf("%w: %s[%d] has no title", ErrInvalid, c, i)
			}
			if item.Priority != "" && !validPriorities[item.Priority] {
				return fmt.Errorf("%w: %s[%d] has priority %q, want High, Medium or Low", ErrInvalid, c, i, item.Priority)
			}
		}
	}
	return nil
}

type countRange struct{ min, max int }

var expectedCounts = map[Category]countRange{
	CategoryLearning: {3, 3},
	CategoryNews:     {3, 3},
	CategoryAction:   {3, 5},
	CategoryIdea:     {1, 2},
}

// CountWarnings describes item lists whose length falls outside the
// requested range.
func (d *Digest) CountWarnings() []string {
	var warnings []string
	for _, c := range ItemCategories {
		r := expectedCounts[c]
		n := len(d.Items(c))
		if n < r.min || n > r.max {
			if r.min == r.max {
				warnings = append(warnings, fmt.Sprintf("%s: got %d items, want %d", c, n, r.min))
			} else {
				warnings = append(warnings, fmt.Sprintf("%s: got %d items, want %d-%d", c, n, r.min, r.max))
			}
		}
	}
	return warnings
}
