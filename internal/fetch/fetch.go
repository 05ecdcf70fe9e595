// Package fetch is the HTTP client every provider shares.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/engtrends/internal/retry"
)

const maxBody = 8 << 20

// ErrRateLimited matches a StatusError carrying HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// StatusError is a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.Code == http.StatusTooManyRequests
}

// Client issues GET requests with a per-request timeout and retries on
// transport errors and 5xx responses.
type Client struct {
	HTTP           *http.Client
	UserAgent      string
	RequestTimeout time.Duration
	Retry          retry.Policy
}

// New builds a Client on a dedicated http.Client.
func New(userAgent string, requestTimeout time.Duration, policy retry.Policy) *Client {
	return &Client{
		HTTP:           &http.Client{},
		UserAgent:      userAgent,
		RequestTimeout: requestTimeout,
		Retry:          policy,
	}
}

// Get returns the response body of url.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, c.Retry, func(ctx context.Context) error {
		b, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON decodes the JSON body of url into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		serr := &StatusError{URL: url, Code: resp.StatusCode}
		if resp.StatusCode < 500 {
			return nil, retry.Permanent(serr)
		}
		return nil, serr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
