package notes

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanc1999/LiveNote/internal/feed"
)

func TestChangeFeed_RoundTrip(t *testing.T) {
	hub := feed.NewHub[Event]()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(ServeChanges(hub, log))
	defer srv.Close()
	wsURL := strings.Replace(srv.URL, "http", "ws", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := DialChanges(ctx, wsURL, "test-token")
	require.NoError(t, err)

	// The handler subscribes just after the handshake; give it a moment to
	// attach before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hub.SubscriberCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	require.NotZero(t, hub.SubscriberCount())

	note := &Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Plan",
		NoteType: TypeMarkdown,
		Content:  MarkdownContent("body"),
		Color:    ColorBlue,
	}
	hub.Publish(Event{Op: OpInsert, New: note})

	select {
	case ev, ok := <-events:
		require.True(t, ok, "feed closed before delivering")
		assert.Equal(t, OpInsert, ev.Op)
		require.NotNil(t, ev.New)
		assert.Equal(t, "n1", ev.New.ID)
		assert.Equal(t, "Plan", ev.New.Title)
		assert.Equal(t, MarkdownContent("body"), ev.New.Content)
	case <-time.After(3 * time.Second):
		t.Fatal("no event arrived over the socket")
	}

	// Delete events carry the old record only.
	hub.Publish(Event{Op: OpDelete, Old: note})
	select {
	case ev := <-events:
		assert.Equal(t, OpDelete, ev.Op)
		assert.Nil(t, ev.New)
		require.NotNil(t, ev.Old)
		assert.Equal(t, "n1", ev.Old.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no delete event arrived")
	}
}

func TestChangeFeed_CancelClosesClientChannel(t *testing.T) {
	hub := feed.NewHub[Event]()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(ServeChanges(hub, log))
	defer srv.Close()
	wsURL := strings.Replace(srv.URL, "http", "ws", 1)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := DialChanges(ctx, wsURL, "")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should close after cancellation")
	case <-time.After(3 * time.Second):
		t.Fatal("event channel did not close after cancellation")
	}
}

func TestDialChanges_RefusesNonWebSocketEndpoint(t *testing.T) {
	_, err := DialChanges(context.Background(), "ws://127.0.0.1:1/api/changes", "")
	assert.Error(t, err)
}
