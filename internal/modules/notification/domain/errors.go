package domain

import "errors"

var (
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrInactiveSubscriber    = errors.New("subscriber id and token are required")
	ErrSessionStopped        = errors.New("notification session stopped")
	ErrInvalidNotification   = errors.New("title and message are required")
	ErrMalformedFrame        = errors.New("malformed live frame")
	ErrUnexpectedFrameType   = errors.New("unexpected live frame type")
	ErrMissingNotificationID = errors.New("notification payload has no id")
)
