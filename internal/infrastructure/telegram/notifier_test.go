package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsScanner/internal/config"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var (
		path string
		form map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	n := NewNotifier(config.TelegramConfig{BotToken: "123:abc", ChatID: "-100"}, WithAPIBase(server.URL+"/"))
	require.NotNil(t, n)

	require.NoError(t, n.PublishDigest(context.Background(), "*Title*\n• bullet"))
	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "-100", form["chat_id"])
	assert.Equal(t, "*Title*\n• bullet", form["text"])
	assert.Equal(t, "Markdown", form["parse_mode"])
}

func TestPublishDigestErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	n := NewNotifier(config.TelegramConfig{BotToken: "t", ChatID: "c"}, WithAPIBase(server.URL), WithHTTPClient(server.Client()))
	err := n.PublishDigest(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewNotifierDisabledWithoutConfig(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewNotifier(config.TelegramConfig{BotToken: "t"}))
	assert.Nil(t, NewNotifier(config.TelegramConfig{ChatID: "c"}))

	var n *Notifier
	assert.ErrorIs(t, n.PublishDigest(context.Background(), "x"), ErrMisconfigured)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ж", 5000)
	out := truncate(long, maxMessageRunes)
	assert.Equal(t, maxMessageRunes, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.Equal(t, "short", truncate("short", maxMessageRunes))
}
