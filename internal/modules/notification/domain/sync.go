package domain

import (
	"context"
	"sync"
)

// SyncChannel is the default cross-tab channel name.
const SyncChannel = "notifications_channel"

type SyncKind string

const (
	SyncIncoming SyncKind = "incoming"
	SyncMarkRead SyncKind = "mark-read"
	SyncDelete   SyncKind = "delete"
)

// SyncMessage is exchanged between sessions of the same subscriber.
type SyncMessage struct {
	Type         SyncKind         `json:"type"`
	Origin       string           `json:"origin,omitempty"`
	Notification *Notification    `json:"notification,omitempty"`
	IDs          []NotificationID `json:"ids,omitempty"`
}

// CrossTabSync propagates local changes to sibling sessions. Listen blocks
// until ctx is cancelled or the sync is closed; handle is never invoked for
// messages published by the same instance.
type CrossTabSync interface {
	Publish(ctx context.Context, msg SyncMessage) error
	Listen(ctx context.Context, handle func(SyncMessage)) error
	Close() error
}

// NoOpSync is the inert CrossTabSync used where no shared bus is available.
type NoOpSync struct {
	done      chan struct{}
	closeOnce sync.Once
}

func NewNoOpSync() *NoOpSync {
	return &NoOpSync{done: make(chan struct{})}
}

func (s *NoOpSync) Publish(context.Context, SyncMessage) error { return nil }

func (s *NoOpSync) Listen(ctx context.Context, _ func(SyncMessage)) error {
	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

func (s *NoOpSync) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
