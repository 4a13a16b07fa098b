package notes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Hanc1999/LiveNote/internal/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeChanges upgrades the request to a WebSocket and streams change-feed
// events to it as JSON until the client goes away. Each connection gets its
// own hub subscription, torn down when the handler returns.
func ServeChanges(hub *feed.Hub[Event], log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("failed to upgrade change feed connection", "error", err)
			return
		}
		defer conn.Close()

		sub := hub.Subscribe(16)
		defer sub.Unsubscribe()

		// Read pump: we expect no client messages, but reading is the only
		// way to notice a closed connection.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					log.Debug("change feed client dropped", "error", err)
					return
				}
			case <-gone:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

// DialChanges connects to a server's change feed endpoint and returns a
// channel of decoded events. The channel closes when the connection drops or
// ctx is cancelled; cancellation also tears down the connection.
func DialChanges(ctx context.Context, url, token string) (<-chan Event, error) {
	var header http.Header
	if token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + token}}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial change feed: %w", err)
	}

	events := make(chan Event)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
