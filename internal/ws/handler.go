package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pixelbattle/pixel-battle-backend/internal/hub"
)

// Handler upgrades the connection and streams hub events to the client
// until it goes away. No backlog: a client only sees events published
// after it subscribed.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan hub.Event, 8)
		subID := uuid.NewString()

		h.Inbox() <- hub.Subscribe{ID: subID, Outbox: out}
		defer func() { h.Inbox() <- hub.Unsubscribe{ID: subID} }()

		log.Info("websocket client connected", zap.String("subscriber_id", subID))

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for e := range out {
				payload, err := json.Marshal(e)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop. Inbound messages carry nothing the server acts
		// on; they are logged and dropped.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (Unsubscribe in defer):
				return
			}
			log.Debug("websocket client message",
				zap.String("subscriber_id", subID),
				zap.ByteString("data", data))
		}
	}
}
