package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/modernmen/collectiongen/runtime/store"
	"github.com/modernmen/collectiongen/schema"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	// feedBuffer is the number of changes queued per subscriber. Changes
	// beyond it are dropped for that subscriber.
	feedBuffer = 64
)

// subscribe streams the committed changes of the collection as JSON text
// messages until the client goes away.
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.coll.Authorize(r.Context(), schema.OpRead); err != nil {
		h.fail(w, r, err)
		return
	}
	// Watch before the handshake completes so no change committed after
	// the client sees the upgrade is missed.
	feed := make(chan store.Change, feedBuffer)
	cancel := h.coll.Watch(func(c store.Change) {
		select {
		case feed <- c:
		default:
			h.log.Warn("subscriber too slow, change dropped", zap.String("id", c.ID))
		}
	})
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The read loop only handles control frames and notices disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case c := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
