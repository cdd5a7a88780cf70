package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/jomei/notionapi"
)

// Client is a Notion API client bound to one database.
type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
}

type options struct {
	baseURL string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL sends every request to another host (for testing).
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

// NewClient creates a client for the given integration token and database.
func NewClient(token, databaseID string, opts ...Option) *Client {
	o := options{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = o.timeout
	if o.baseURL != "" {
		if u, err := url.Parse(o.baseURL); err == nil {
			httpClient.Transport = rewriteHost{target: u, next: httpClient.Transport}
		}
	}

	return &Client{
		api:        notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient)),
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// rewriteHost points requests built for api.notion.com at target, keeping the path.
type rewriteHost struct {
	target *url.URL
	next   http.RoundTripper
}

func (t rewriteHost) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return t.next.RoundTrip(r)
}

// QueryDatabase runs one page of a database query.
func (c *Client) QueryDatabase(ctx context.Context, q *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	res, err := c.api.Database.Query(ctx, c.databaseID, q)
	if err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	return res, nil
}

// CreatePage creates a page in the database and returns its ID.
func (c *Client) CreatePage(ctx context.Context, props notionapi.Properties, children []notionapi.Block) (string, error) {
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: c.databaseID},
		Properties: props,
		Children:   children,
	})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	if page.ID == "" {
		return "", fmt.Errorf("create page: response has no id")
	}
	return string(page.ID), nil
}

// UpdatePageStatus sets the Status property of a page.
func (c *Client) UpdatePageStatus(ctx context.Context, pageID, status string) error {
	_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{PropStatus: statusProperty(status)},
	})
	if err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}
