package domain

import "context"

// Gateway is the REST surface of the notification backend, bound to one
// subscriber credential.
type Gateway interface {
	FetchHistory(ctx context.Context, subscriberID string) ([]Notification, error)
	MarkRead(ctx context.Context, subscriberID string, ids []NotificationID) error
	Delete(ctx context.Context, ids []NotificationID) error
	Create(ctx context.Context, req SendRequest) ([]Notification, error)
}

// Conn is one live-channel connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// NotificationRepository stores notifications per receiver for the
// development stub backend.
type NotificationRepository interface {
	Create(ctx context.Context, receiverID string, n *Notification) error
	ListByReceiver(ctx context.Context, receiverID string) ([]Notification, error)
	MarkAsRead(ctx context.Context, receiverID string, ids []NotificationID) (int, error)
	Delete(ctx context.Context, ids []NotificationID) (int, error)
}
