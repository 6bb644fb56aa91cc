// Package live fans data-change events out to every open WebSocket
// connection and relays in-progress edits between browsers.
package live

import "app/models"

// Event names carried in the "event" field of every message.
const (
	// Server -> client.
	EventAdd       = "add"
	EventUpdate    = "update"
	EventDelete    = "delete"
	EventUserCount = "user_count"
	EventEditSaved = "edit_saved"
	EventInit      = "init"

	// Both directions: browsers send edit_update for every keystroke and the
	// hub relays it to everyone else without persisting anything.
	EventEditUpdate = "edit_update"

	// Client -> server only.
	EventSaveEdit = "save_edit"
)

// Update is the wire format for server-pushed change events. SourceID names
// the client that caused the change so browsers can skip their own echo.
type Update struct {
	Event          string `json:"event"`
	TodoID         int64  `json:"todo_id,omitempty"`
	SourceID       string `json:"source_id,omitempty"`
	Content        string `json:"content,omitempty"`
	ConnectedUsers int    `json:"connected_users,omitempty"`
}

// initMessage is sent once per connection, right after registration.
type initMessage struct {
	Event          string        `json:"event"`
	Todos          []models.Todo `json:"todos"`
	ConnectedUsers int           `json:"connected_users"`
}

// editSaved confirms a save_edit back to the socket that issued it.
type editSaved struct {
	Event   string `json:"event"`
	TodoID  int64  `json:"todo_id"`
	Success bool   `json:"success"`
}

// inbound is what browsers send over the socket.
type inbound struct {
	Event    string `json:"event"`
	TodoID   int64  `json:"todo_id"`
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
}
