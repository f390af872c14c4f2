package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// jsonSystemPrompt is the fixed system instruction for every structured call.
const jsonSystemPrompt = "You are a precise AI assistant. Always respond with valid JSON only, no markdown formatting."

// reinforcementClause is appended to the prompt before a retry when the
// previous response failed to parse.
const reinforcementClause = "IMPORTANT: Return ONLY valid JSON. No markdown, no code blocks, no additional text."

// DefaultMaxRetries is the total number of backend attempts per call.
const DefaultMaxRetries = 2

// DefaultMaxTokens is the response token budget per call.
const DefaultMaxTokens = 4096

// CallOptions tunes a single JSON call.
type CallOptions struct {
	// Temperature for this call. 0 means deterministic.
	Temperature float64

	// MaxRetries is the total number of backend attempts before giving up
	// on malformed output. 0 means DefaultMaxRetries.
	MaxRetries int

	// MaxTokens for the response. 0 means DefaultMaxTokens.
	MaxTokens int
}

// Client drives a Provider into validated JSON output. It is stateless
// across calls and safe for concurrent use.
//
// On a parse failure with retries remaining, the prompt is reinforced with
// an explicit JSON-only clause and a brand-new backend request is issued;
// exhausting retries yields ErrMalformedResponse. Any non-parse backend
// failure is returned immediately as-is, with no retry.
type Client struct {
	provider   Provider
	maxRetries int
}

// NewClient creates a Client on top of the given provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider, maxRetries: DefaultMaxRetries}
}

// SetMaxRetries overrides the retry budget used by calls whose
// CallOptions leave MaxRetries unset. Values below 1 are ignored.
func (c *Client) SetMaxRetries(n int) {
	if n > 0 {
		c.maxRetries = n
	}
}

// ModelID returns the underlying provider's model identifier.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}

// CallJSON sends the prompt and returns the parsed JSON payload.
func (c *Client) CallJSON(ctx context.Context, prompt string, opts CallOptions) (json.RawMessage, error) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.maxRetries
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	current := prompt
	var lastErr error
	var lastContent string

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.provider.Generate(ctx, Request{
			System: jsonSystemPrompt,
			Messages: []Message{
				{Role: RoleUser, Content: current},
			},
			MaxTokens:   maxTokens,
			Temperature: opts.Temperature,
		})
		if err != nil {
			// Backend failures are fatal here: only parse failures retry.
			// Providers pass context errors through unmapped, so a request
			// deadline stays distinguishable from ErrBackend.
			return nil, err
		}

		content := stripFences(resp.Content)
		lastContent = content

		var parsed any
		if jsonErr := json.Unmarshal([]byte(content), &parsed); jsonErr != nil {
			lastErr = jsonErr
			if attempt < maxRetries-1 {
				current = prompt + "\n\n" + reinforcementClause
				continue
			}
			break
		}

		return json.RawMessage(content), nil
	}

	return nil, &ErrMalformedResponse{
		Attempts: maxRetries,
		Content:  lastContent,
		Err:      lastErr,
	}
}

// stripFences removes leading/trailing markdown code-fence markers.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
