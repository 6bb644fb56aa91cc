package live

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"app/database"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is handled by the CORS layer in front of the router.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one open WebSocket connection.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger logrus.FieldLogger
}

// ServeWS upgrades the request, registers the connection with the hub and
// starts its read and write pumps.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.WithError(err).Error("websocket upgrade failed")
		return
	}

	client := &Client{
		id:   "ws_client_" + uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, channelCapacity),
	}
	client.logger = hub.logger.WithField("client_id", client.id)

	select {
	case hub.register <- client:
	case <-hub.done:
		// The hub has shut down; nobody will ever service the registration.
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads inbound messages until the connection dies, then
// unregisters. Unregistration closes the send queue, so no enqueue can
// happen after the pump returns.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.WithError(err).Warn("websocket read failed")
			}
			return
		}
		c.handleMessage(raw)
	}
}

// handleMessage dispatches one inbound message. Malformed or unknown
// messages are logged and ignored; they never kill the connection.
func (c *Client) handleMessage(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.WithError(err).Warn("discarding malformed message")
		return
	}

	sourceID := msg.ClientID
	if sourceID == "" {
		sourceID = c.id
	}

	switch msg.Event {
	case EventEditUpdate:
		// Keystroke relay only, nothing is persisted.
		c.hub.Broadcast(Update{
			Event:    EventEditUpdate,
			TodoID:   msg.TodoID,
			SourceID: sourceID,
			Content:  msg.Content,
		})

	case EventSaveEdit:
		if err := database.UpdateTodoTitle(c.hub.db, msg.TodoID, msg.Content); err != nil {
			c.logger.WithError(err).WithField("todo_id", msg.TodoID).Error("unable to save edit")
			return
		}
		confirm, err := json.Marshal(editSaved{Event: EventEditSaved, TodoID: msg.TodoID, Success: true})
		if err != nil {
			c.logger.WithError(err).Error("unable to marshal edit confirmation")
		} else {
			c.enqueue(confirm)
		}
		c.hub.Broadcast(Update{
			Event:    EventUpdate,
			TodoID:   msg.TodoID,
			SourceID: sourceID,
			Content:  msg.Content,
		})

	default:
		c.logger.WithField("event", msg.Event).Debug("ignoring unknown event")
	}
}

// enqueue queues a message for this client only.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send queue full, dropping message")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
