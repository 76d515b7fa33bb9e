package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handlevel/internal/session"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Subscriber produces latest-value session snapshots.
type Subscriber interface {
	Subscribe() (<-chan session.Snapshot, func())
}

// StateHandler pushes session snapshots to WebSocket clients.
// A slow client only ever sees the newest snapshot.
type StateHandler struct {
	source Subscriber
}

// NewStateHandler creates a StateHandler reading from source.
func NewStateHandler(source Subscriber) *StateHandler {
	return &StateHandler{source: source}
}

// ServeHTTP upgrades the connection and streams snapshots until the client
// goes away or the session closes.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel := h.source.Subscribe()
	defer cancel()

	// Clients send nothing; reading only detects the close.
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
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case snap, ok := <-snapshots:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}
