package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type subscription struct {
	Conn    *websocket.Conn
	Channel string
}

type message struct {
	Channel string
	Data    []byte
}

// Hub fans events out to websocket clients. Clients subscribe to a channel key
// (e.g. "org:<id>" for stock events or "pay:<session>" for a payment result);
// an empty channel receives everything.
type Hub struct {
	Register   chan subscription
	Unregister chan *websocket.Conn

	clients   map[*websocket.Conn]string
	broadcast chan message
	mutex     sync.Mutex
	log       *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Register:   make(chan subscription),
		Unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan message, 64),
		log:        log,
	}
}

// Subscribe registers a connection under a channel key.
func (h *Hub) Subscribe(conn *websocket.Conn, channel string) {
	h.Register <- subscription{Conn: conn, Channel: channel}
}

// Publish sends a JSON-encoded payload to every subscriber of the channel.
// It never blocks the caller.
func (h *Hub) Publish(channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- message{Channel: channel, Data: data}:
	default:
		h.log.Warn("realtime broadcast buffer full, dropping event",
			zap.String("channel", channel))
	}
	return nil
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.Register:
			h.mutex.Lock()
			h.clients[sub.Conn] = sub.Channel
			h.mutex.Unlock()
			h.log.Debug("ws client connected", zap.String("channel", sub.Channel))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for conn, channel := range h.clients {
				if channel != "" && channel != msg.Channel {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
