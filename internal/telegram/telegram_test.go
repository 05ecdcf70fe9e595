package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/recommend"
	"github.com/deusflow/engtrends/internal/retry"
)

func TestSendMessage(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", "@chan").WithBaseURL(srv.URL)
	require.NoError(t, c.SendMessage(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "@chan", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, true, got["disable_web_page_preview"])
}

func TestSendMessageRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("t", "c").WithBaseURL(srv.URL).WithRetry(retry.Policy{Attempts: 3, Delay: time.Millisecond})
	require.NoError(t, c.SendMessage(context.Background(), "x"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendMessageBadRequestIsFinal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("t", "c").WithBaseURL(srv.URL).WithRetry(retry.Policy{Attempts: 3, Delay: time.Millisecond})
	assert.ErrorContains(t, c.SendMessage(context.Background(), "x"), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDigest(t *testing.T) {
	t.Parallel()

	res := news.AggregationResult{
		Items:   make([]news.Item, 3),
		Ranking: []news.TopicCount{{Topic: "☁️ Cloud / Infra", Count: 2}, {Topic: "🗄️ Databases", Count: 1}},
		Stats:   news.Stats{Providers: 3, Failed: 1},
	}
	recs := []recommend.Recommendation{
		{Template: recommend.Template{Title: "Kubernetes <diagrams>"}},
		{Template: recommend.Template{Title: "Rituals"}, Padded: true},
		{Template: recommend.Template{Title: "Rituals"}, Padded: true},
	}

	msg := Digest(res, recs)
	assert.True(t, strings.HasPrefix(msg, "<b>Engineering trends</b>: 3 items from 2 sources"))
	assert.Contains(t, msg, "1. ☁️ Cloud / Infra (2)")
	assert.Contains(t, msg, "• Kubernetes &lt;diagrams&gt;")
	assert.Equal(t, 1, strings.Count(msg, "• Rituals"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 3))
}
