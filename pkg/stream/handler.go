package stream

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/aqualedger/aqualedger/pkg/log"
)

const clientBuffer = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades requests to websocket connections subscribed to the hub.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "websocket upgrade error", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	h.hub.Register(client)
	go client.writePump()

	h.readPump(r, client)
}

// readPump discards client messages and unregisters on disconnect.
func (h *Handler) readPump(r *http.Request, c *Client) {
	ctx := r.Context()
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(ctx).WarnContext(ctx, "websocket read error", slog.Any("error", err))
			}
			return
		}
	}
}
