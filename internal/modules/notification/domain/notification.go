package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// NotificationID is the opaque deduplication key of a notification. Backends
// emit it either as a JSON string or as a number; both decode to the same ID.
type NotificationID string

func (id *NotificationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NotificationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = NotificationID(n.String())
	return nil
}

type Notification struct {
	ID          NotificationID  `json:"id"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Link        *string         `json:"link"`
	CreatedAt   time.Time       `json:"created_at"`
	IsRead      bool            `json:"is_read"`
	ServiceType string          `json:"service_type,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// SendRequest is the producer-side payload for creating notifications.
type SendRequest struct {
	SenderID    string   `json:"sender_id"`
	ReceiverIDs []string `json:"receiver_ids"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Link        *string  `json:"link"`
	ServiceType string   `json:"service_type"`
	Access      []string `json:"access"`
}

// Subscriber identifies the session owner.
type Subscriber struct {
	ID   string
	Role string
	Name string
}

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)
