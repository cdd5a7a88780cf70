package notion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"devdigest/internal/digest"
)

const dateFormat = "2006-01-02"

// PublishResult lists the records written by one Publish call.
type PublishResult struct {
	DigestID          string
	ItemIDs           []string
	CompletedRequests []string
}

// Publisher writes a digest into the database as a parent page, one child
// page per item, and status updates for answered requests.
type Publisher struct {
	client   *Client
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func NewPublisher(client *Client, location *time.Location, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, location: location, now: time.Now, logger: logger}
}

// Publish creates the digest page first, then every item page related to
// it, then marks answered requests Done. The first failure is returned and
// nothing already written is rolled back.
func (p *Publisher) Publish(ctx context.Context, d *digest.Digest) (*PublishResult, error) {
	now := p.now().In(p.location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.location)
	res := &PublishResult{}

	digestID, err := p.client.CreatePage(ctx,
		Properties(day.Format(dateFormat)+" Daily Digest", digest.CategoryDigest, day, "", nil, ""),
		TextBlocks(d.Summary))
	if err != nil {
		return res, fmt.Errorf("create digest page: %w", err)
	}
	res.DigestID = digestID
	p.logger.Info("created digest page", "page_id", digestID)

	for _, category := range digest.ItemCategories {
		for i, item := range d.Items(category) {
			props := Properties(item.Title, category, day, item.Priority, item.Tags, digestID)
			id, err := p.client.CreatePage(ctx, props, TextBlocks(item.Description))
			if err != nil {
				return res, fmt.Errorf("create %s item %d: %w", category, i, err)
			}
			res.ItemIDs = append(res.ItemIDs, id)
		}
	}
	p.logger.Info("created item pages", "count", len(res.ItemIDs))

	seen := make(map[string]bool)
	for _, answer := range d.RequestAnswers {
		id := strings.TrimSpace(answer.RequestID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if err := p.client.UpdatePageStatus(ctx, id, StatusDone); err != nil {
			return res, fmt.Errorf("complete request: %w", err)
		}
		res.CompletedRequests = append(res.CompletedRequests, id)
		p.logger.Info("marked request as done", "page_id", id)
	}

	return res, nil
}

// Properties builds the property set of a generated record. Empty priority,
// tags and parentID are left out.
func Properties(title string, category digest.Category, day time.Time, priority string, tags []string, parentID string) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle:  titleProperty(title),
		PropType:   multiSelectProperty(string(category)),
		PropStatus: statusProperty(StatusNotStarted),
		PropDate:   dateProperty(day),
		PropSource: multiSelectProperty(SourceClaude),
	}
	if priority != "" {
		props[PropPriority] = multiSelectProperty(priority)
	}
	if len(tags) > 0 {
		props[PropTags] = multiSelectProperty(tags...)
	}
	if parentID != "" {
		props[PropParentDigest] = relationProperty(parentID)
	}
	return props
}

// TextBlocks splits text on blank lines into paragraph blocks, dropping
// empty paragraphs.
func TextBlocks(text string) []notionapi.Block {
	var blocks []notionapi.Block
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{
				RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: para}}},
			},
		})
	}
	return blocks
}
