// Package gemini writes the short editorial intro at the top of the report.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/engtrends/internal/news"
)

const (
	model          = "gemini-1.5-flash"
	maxPromptTitle = 12
	maxIntroRunes  = 600
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// Brief is what the intro is written from.
type Brief struct {
	Ranking []news.TopicCount
	Top     []news.Item // highest scored items, best first
	Total   int
}

// Prompt builds the request sent to the model.
func Prompt(b Brief) string {
	var sb strings.Builder
	sb.WriteString("You write the opening paragraph of a weekly engineering trends digest.\n")
	sb.WriteString("Write 2-3 sentences in plain English, no markdown, no lists, no greeting.\n")
	fmt.Fprintf(&sb, "Items analysed: %d\n", b.Total)

	sb.WriteString("Topics by volume:\n")
	for _, tc := range b.Ranking {
		fmt.Fprintf(&sb, "- %s: %d\n", tc.Topic, tc.Count)
	}

	sb.WriteString("Most popular headlines:\n")
	for i, it := range b.Top {
		if i == maxPromptTitle {
			break
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", strings.Join(strings.Fields(it.Title), " "), it.Source)
	}
	return sb.String()
}

// Fallback is the intro used without a model.
func Fallback(b Brief) string {
	if b.Total == 0 || len(b.Ranking) == 0 {
		return "No items were collected in this run."
	}

	lead := b.Ranking[0]
	if len(b.Ranking) == 1 {
		return fmt.Sprintf("%d items analysed, all about %s.", b.Total, lead.Topic)
	}
	second := b.Ranking[1]
	return fmt.Sprintf("%d items analysed. %s leads with %d, followed by %s with %d.",
		b.Total, lead.Topic, lead.Count, second.Topic, second.Count)
}

// Intro asks gen for the intro and falls back to the deterministic sentence
// when gen is nil, fails, or returns nothing usable.
func Intro(ctx context.Context, gen Generator, b Brief) (string, error) {
	if gen == nil {
		return Fallback(b), nil
	}

	text, err := gen.Generate(ctx, Prompt(b))
	if err != nil {
		return Fallback(b), err
	}

	intro := clean(text)
	if intro == "" {
		return Fallback(b), errors.New("empty intro from model")
	}
	return intro, nil
}

// clean keeps the first paragraph, collapses whitespace and caps the length.
func clean(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "\n\n"); i > 0 {
		text = text[:i]
	}
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, "\"*# ")

	if utf8.RuneCountInString(text) > maxIntroRunes {
		runes := []rune(text)
		trimmed := string(runes[:maxIntroRunes])
		if idx := strings.LastIndex(trimmed, ". "); idx > maxIntroRunes/3 {
			trimmed = trimmed[:idx+1]
		}
		text = trimmed
	}
	return text
}
