package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/recommend"
	"github.com/deusflow/engtrends/internal/retry"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	maxMessage     = 4096
	digestTopics   = 5
)

// Client posts messages to one chat or channel through the Bot API.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	retry   retry.Policy
}

func NewClient(token, chatID string) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   retry.Policy{Attempts: 3, Delay: 2 * time.Second, Backoff: true},
	}
}

// WithBaseURL points the client at another Bot API host.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

func (c *Client) WithRetry(p retry.Policy) *Client {
	c.retry = p
	return c
}

// SendMessage sends an HTML message without link previews.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.sendMessageOnce(ctx, text)
	})
}

func (c *Client) sendMessageOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	payload := map[string]any{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("encode message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("telegram API error: status %d", resp.StatusCode))
	}
}

// Digest formats the run as a short HTML message.
func Digest(res news.AggregationResult, recs []recommend.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Engineering trends</b>: %d items from %d sources\n\n", len(res.Items), res.Stats.Providers-res.Stats.Failed)

	b.WriteString("<b>Top topics</b>\n")
	for i, tc := range res.Ranking {
		if i == digestTopics {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, html.EscapeString(string(tc.Topic)), tc.Count)
	}

	b.WriteString("\n<b>Content ideas</b>\n")
	seen := make(map[string]struct{})
	for _, r := range recs {
		if _, dup := seen[r.Title]; dup {
			continue
		}
		seen[r.Title] = struct{}{}
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(r.Title))
	}

	return truncate(strings.TrimRight(b.String(), "\n"), maxMessage)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
