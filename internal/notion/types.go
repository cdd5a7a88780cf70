package notion

import (
	"time"

	"github.com/jomei/notionapi"
)

// Database property names.
const (
	PropTitle        = "Title"
	PropType         = "Type"
	PropStatus       = "Status"
	PropDate         = "Date"
	PropSource       = "Source"
	PropPriority     = "Priority"
	PropTags         = "Tags"
	PropParentDigest = "Parent Digest"
	PropRating       = "Rating"
)

const (
	StatusNotStarted = "Not Started"
	StatusDone       = "Done"

	SourceClaude = "claude"
	TypeRequest  = "request"
)

func titleProperty(text string) *notionapi.TitleProperty {
	return &notionapi.TitleProperty{Title: []notionapi.RichText{{Text: &notionapi.Text{Content: text}}}}
}

func multiSelectProperty(names ...string) *notionapi.MultiSelectProperty {
	opts := make([]notionapi.Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, notionapi.Option{Name: n})
	}
	return &notionapi.MultiSelectProperty{MultiSelect: opts}
}

func statusProperty(name string) *notionapi.StatusProperty {
	return &notionapi.StatusProperty{Status: notionapi.Status{Name: name}}
}

func dateProperty(t time.Time) *notionapi.DateProperty {
	start := notionapi.Date(t)
	return &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
}

func relationProperty(pageID string) *notionapi.RelationProperty {
	return &notionapi.RelationProperty{Relation: []notionapi.Relation{{ID: notionapi.PageID(pageID)}}}
}

// plainTitle returns the first rich-text run of a title property.
func plainTitle(p notionapi.Property) string {
	tp, ok := p.(*notionapi.TitleProperty)
	if !ok || len(tp.Title) == 0 {
		return ""
	}
	if tp.Title[0].PlainText != "" {
		return tp.Title[0].PlainText
	}
	if tp.Title[0].Text != nil {
		return tp.Title[0].Text.Content
	}
	return ""
}

// selectNames returns the option names of a multi-select property.
func selectNames(p notionapi.Property) []string {
	mp, ok := p.(*notionapi.MultiSelectProperty)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mp.MultiSelect))
	for _, o := range mp.MultiSelect {
		names = append(names, o.Name)
	}
	return names
}

// dateStart formats the start of a date property: a bare date when it has no
// time of day, RFC 3339 otherwise. Absent dates are empty.
func dateStart(p notionapi.Property) string {
	dp, ok := p.(*notionapi.DateProperty)
	if !ok || dp.Date == nil || dp.Date.Start == nil {
		return ""
	}
	t := time.Time(*dp.Date.Start)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateFormat)
	}
	return t.Format(time.RFC3339)
}
