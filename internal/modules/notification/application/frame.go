package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

const (
	frameTypeRegister     = "register"
	frameTypeNotification = "notification"

	defaultTitle = "Notification"
)

type registerFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type liveFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// livePayload keeps optional fields raw so that a field of the wrong type
// falls back to its default instead of rejecting the frame.
type livePayload struct {
	ID          domain.NotificationID `json:"id"`
	Title       json.RawMessage       `json:"title"`
	Message     json.RawMessage       `json:"message"`
	Link        json.RawMessage       `json:"link"`
	CreatedAt   json.RawMessage       `json:"created_at"`
	IsRead      json.RawMessage       `json:"is_read"`
	ServiceType json.RawMessage       `json:"service_type"`
}

// ParseFrame turns an inbound live-channel text frame into a normalized
// notification. Absent or mistyped fields get defaults; now stands in for a
// missing or unparseable created_at.
func ParseFrame(data []byte, now time.Time) (domain.Notification, error) {
	var frame liveFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return domain.Notification{}, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	if frame.Type != frameTypeNotification {
		return domain.Notification{}, fmt.Errorf("%w: %q", domain.ErrUnexpectedFrameType, frame.Type)
	}
	if len(frame.Payload) == 0 || string(frame.Payload) == "null" {
		return domain.Notification{}, fmt.Errorf("%w: empty payload", domain.ErrMalformedFrame)
	}

	var p livePayload
	if err := json.Unmarshal(frame.Payload, &p); err != nil {
		return domain.Notification{}, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	if p.ID == "" {
		return domain.Notification{}, domain.ErrMissingNotificationID
	}

	n := domain.Notification{
		ID:        p.ID,
		Title:     defaultTitle,
		CreatedAt: now,
		Raw:       append(json.RawMessage(nil), frame.Payload...),
	}
	if title, ok := stringField(p.Title); ok && title != "" {
		n.Title = title
	}
	if message, ok := stringField(p.Message); ok {
		n.Message = message
	}
	if link, ok := stringField(p.Link); ok {
		n.Link = &link
	}
	if createdAt, ok := stringField(p.CreatedAt); ok {
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			n.CreatedAt = ts
		}
	}
	var isRead bool
	if len(p.IsRead) > 0 && json.Unmarshal(p.IsRead, &isRead) == nil {
		n.IsRead = isRead
	}
	if serviceType, ok := stringField(p.ServiceType); ok {
		n.ServiceType = serviceType
	}
	return n, nil
}

// stringField decodes raw when it holds a JSON string.
func stringField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
