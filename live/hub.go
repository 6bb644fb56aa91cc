package live

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"app/database"
	"app/models"
)

// channelCapacity bounds both the hub's broadcast queue and each client's
// send queue.
const channelCapacity = 1024

// Hub owns the set of open connections. All membership changes and fan-out
// happen on the Run goroutine, so no locking is needed.
type Hub struct {
	db     *sql.DB
	logger logrus.FieldLogger

	register   chan *Client
	unregister chan *Client
	broadcast  chan Update

	// done is closed once Run has shut down, so ServeWS never blocks on a
	// register nobody will receive.
	done chan struct{}

	clients map[*Client]struct{}
}

func NewHub(db *sql.DB, logger logrus.FieldLogger) *Hub {
	return &Hub{
		db:         db,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Update, channelCapacity),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Broadcast queues an event for delivery to every open connection. It never
// blocks; if the queue is full the event is dropped with a warning.
func (h *Hub) Broadcast(update Update) {
	select {
	case h.broadcast <- update:
	default:
		h.logger.WithField("event", update.Event).Warn("broadcast queue full, dropping event")
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.WithFields(logrus.Fields{
				"client_id":       client.id,
				"connected_users": len(h.clients),
			}).Info("websocket connected")
			h.broadcastUserCount()
			h.sendInit(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				h.logger.WithField("client_id", client.id).Warn("unregister for unknown client")
				continue
			}
			delete(h.clients, client)
			close(client.send)
			h.logger.WithFields(logrus.Fields{
				"client_id":       client.id,
				"connected_users": len(h.clients),
			}).Info("websocket disconnected")
			h.broadcastUserCount()

		case update := <-h.broadcast:
			data, err := json.Marshal(update)
			if err != nil {
				h.logger.WithError(err).Error("unable to marshal update")
				continue
			}
			for client := range h.clients {
				h.deliver(client, data)
			}

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// deliver enqueues data for one client. A client whose queue is full is not
// keeping up; its connection is closed rather than blocking the hub.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.WithField("client_id", client.id).Warn("send queue full, dropping connection")
		client.conn.Close()
	}
}

func (h *Hub) broadcastUserCount() {
	update := Update{Event: EventUserCount, ConnectedUsers: len(h.clients)}
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.WithError(err).Error("unable to marshal user count")
		return
	}
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// sendInit pushes the current todo list to a freshly registered client.
func (h *Hub) sendInit(client *Client) {
	todos, err := database.GetTodos(h.db)
	if err != nil {
		h.logger.WithError(err).Error("unable to load todos for init message")
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}

	data, err := json.Marshal(initMessage{
		Event:          EventInit,
		Todos:          todos,
		ConnectedUsers: len(h.clients),
	})
	if err != nil {
		h.logger.WithError(err).Error("unable to marshal init message")
		return
	}
	h.deliver(client, data)
}

// shutdown closes every connection, then waits for the read pumps to
// unregister so each send queue is closed exactly once.
func (h *Hub) shutdown() {
	close(h.done)
	for client := range h.clients {
		client.conn.Close()
	}
	for len(h.clients) > 0 {
		client := <-h.unregister
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
	}
}
