package claude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hashicorp/go-cleanhttp"

	"devdigest/internal/digest"
)

const (
	continuePrompt = "Please continue."
	maxSnippetLen  = 500
)

var (
	// ErrNoJSONBlock means the final response text held no ```json fenced block.
	ErrNoJSONBlock = errors.New("no JSON code block found in response")

	// ErrContinuationLimit means the model kept pausing past the configured limit.
	ErrContinuationLimit = errors.New("continuation limit exceeded")
)

var jsonBlockRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Client generates digests with the Anthropic Messages API and server-side web search.
type Client struct {
	api              anthropic.Client
	baseURL          string
	model            string
	maxTokens        int
	maxContinuations int
	webSearchMaxUses int
	logger           *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/") + "/"
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// WithMaxContinuations bounds how many times a paused turn is resumed.
// Zero means a paused first response is already an error.
func WithMaxContinuations(n int) Option {
	return func(c *Client) {
		c.maxContinuations = n
	}
}

func WithWebSearchMaxUses(n int) Option {
	return func(c *Client) {
		c.webSearchMaxUses = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Messages API client. SDK retries are disabled; a failed
// call fails the run.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		model:            "claude-sonnet-4-5-20250929",
		maxTokens:        4096,
		maxContinuations: 5,
		webSearchMaxUses: 5,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = 5 * time.Minute

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.api = anthropic.NewClient(reqOpts...)
	return c
}

// Usage is the token count reported by the API, summed over calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u *Usage) add(o anthropic.Usage) {
	u.InputTokens += int(o.InputTokens)
	u.OutputTokens += int(o.OutputTokens)
}

// Result is a generated digest together with call accounting.
type Result struct {
	Digest *digest.Digest
	Calls  int
	Usage  Usage
}

// Generate sends the prompt, resumes paused turns, and parses the digest out
// of the final response. Every error is fatal for the run.
func (c *Client) Generate(ctx context.Context, userMessage string) (*Result, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
	}
	result := &Result{}

	resp, err := c.send(ctx, messages)
	if err != nil {
		return nil, err
	}
	result.Calls++
	result.Usage.add(resp.Usage)

	for resp.StopReason == anthropic.StopReasonPauseTurn {
		if result.Calls > c.maxContinuations {
			return nil, fmt.Errorf("%w: still paused after %d calls", ErrContinuationLimit, result.Calls)
		}
		c.logger.Debug("model paused turn, continuing", "calls", result.Calls)

		// The paused content goes back as is, server tool blocks included.
		messages = append(messages,
			resp.ToParam(),
			anthropic.NewUserMessage(anthropic.NewTextBlock(continuePrompt)),
		)
		if resp, err = c.send(ctx, messages); err != nil {
			return nil, err
		}
		result.Calls++
		result.Usage.add(resp.Usage)
	}

	c.logger.Info("model response received",
		"calls", result.Calls,
		"stop_reason", string(resp.StopReason),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)

	d, err := ExtractDigest(responseText(resp))
	if err != nil {
		return nil, err
	}
	for _, w := range d.CountWarnings() {
		c.logger.Warn("digest item count outside requested range", "detail", w)
	}

	result.Digest = d
	return result, nil
}

func (c *Client) send(ctx context.Context, messages []anthropic.MessageParam) (*anthropic.Message, error) {
	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Tools: []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(int64(c.webSearchMaxUses)),
			},
		}},
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return resp, nil
}

func responseText(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// ExtractDigest parses the first ```json fenced block in text.
func ExtractDigest(text string) (*digest.Digest, error) {
	m := jsonBlockRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoJSONBlock, snippet(text))
	}
	return digest.Parse([]byte(m[1]))
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > maxSnippetLen {
		return string(r[:maxSnippetLen])
	}
	return s
}
