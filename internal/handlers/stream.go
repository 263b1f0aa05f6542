package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"cryptocasino-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler pushes balance-change events to connected clients over
// a websocket, one fanout hub keyed by email. It implements
// services.Broadcaster so the game and payment handlers can publish
// through it.
type StreamHandler struct {
	store Store
	hub   *streamHub
	log   *logrus.Logger
}

type streamHub struct {
	clients    map[string]map[*websocket.Conn]bool
	register   chan *streamClient
	unregister chan *streamClient
	events     chan services.BalanceEvent
}

type streamClient struct {
	email string
	conn  *websocket.Conn
}

type streamMessage struct {
	Type    string  `json:"type"`
	Reason  string  `json:"reason,omitempty"`
	Credits float64 `json:"credits"`
}

func NewStreamHandler(store Store, log *logrus.Logger) *StreamHandler {
	hub := &streamHub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		events:     make(chan services.BalanceEvent, 100),
	}

	h := &StreamHandler{store: store, hub: hub, log: log}
	go h.run()
	return h
}

// BroadcastBalance implements services.Broadcaster. Events are dropped
// rather than blocking a request handler when the hub is saturated.
func (h *StreamHandler) BroadcastBalance(ev services.BalanceEvent) {
	select {
	case h.hub.events <- ev:
	default:
		h.log.WithField("email", ev.Email).Warn("stream hub full, dropping event")
	}
}

func (h *StreamHandler) HandleStream(c *gin.Context) {
	email := c.GetString("email")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	client := &streamClient{email: email, conn: conn}
	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(client)

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		if msg.Type == "PING" {
			conn.WriteJSON(streamMessage{Type: "PONG"})
		}
	}
}

func (h *StreamHandler) sendBalance(client *streamClient) {
	user, err := h.store.GetUser(context.Background(), client.email)
	if err != nil {
		return
	}
	client.conn.WriteJSON(streamMessage{
		Type:    "BALANCE",
		Credits: user.Credits.Dollars(),
	})
}

func (h *StreamHandler) run() {
	for {
		select {
		case client := <-h.hub.register:
			conns, ok := h.hub.clients[client.email]
			if !ok {
				conns = make(map[*websocket.Conn]bool)
				h.hub.clients[client.email] = conns
			}
			conns[client.conn] = true

		case client := <-h.hub.unregister:
			if conns, ok := h.hub.clients[client.email]; ok {
				delete(conns, client.conn)
				if len(conns) == 0 {
					delete(h.hub.clients, client.email)
				}
			}

		case ev := <-h.hub.events:
			msg := streamMessage{
				Type:    "BALANCE",
				Reason:  ev.Reason,
				Credits: ev.Credits.Dollars(),
			}
			for conn := range h.hub.clients[ev.Email] {
				if err := conn.WriteJSON(msg); err != nil {
					conn.Close()
					delete(h.hub.clients[ev.Email], conn)
				}
			}
		}
	}
}
