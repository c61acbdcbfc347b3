package crosstab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

var (
	ErrSyncClosed         = errors.New("cross-tab channel closed")
	errSubscriptionClosed = errors.New("subscription ended")
)

// BroadcastSync relays SyncMessages over a Broadcaster. Each instance stamps
// its messages with a random origin and skips them on receipt.
type BroadcastSync struct {
	bus     Broadcaster
	channel string
	origin  string
	log     *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

func NewBroadcastSync(bus Broadcaster, channel string, logger *slog.Logger) *BroadcastSync {
	if channel == "" {
		channel = domain.SyncChannel
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &BroadcastSync{
		bus:     bus,
		channel: channel,
		origin:  uuid.NewString(),
		log:     logger.With("component", "crosstab", "channel", channel),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *BroadcastSync) Origin() string {
	return s.origin
}

// Ready is closed once Listen has subscribed.
func (s *BroadcastSync) Ready() <-chan struct{} {
	return s.ready
}

func (s *BroadcastSync) Publish(ctx context.Context, msg domain.SyncMessage) error {
	select {
	case <-s.done:
		return ErrSyncClosed
	default:
	}

	msg.Origin = s.origin
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode sync message: %w", err)
	}
	return s.bus.Publish(ctx, s.channel, payload)
}

func (s *BroadcastSync) Listen(ctx context.Context, handle func(domain.SyncMessage)) error {
	sub, err := s.bus.Subscribe(ctx, s.channel)
	if err != nil {
		return err
	}
	defer sub.Close()
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case payload, ok := <-sub.Messages():
			if !ok {
				return errSubscriptionClosed
			}
			var msg domain.SyncMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				s.log.Warn("dropping undecodable sync message", "err", err)
				continue
			}
			if msg.Origin == s.origin {
				continue
			}
			handle(msg)
		}
	}
}

func (s *BroadcastSync) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Detect returns a Redis-backed sync when rdb answers a PING, and a
// domain.NoOpSync otherwise.
func Detect(ctx context.Context, rdb *redis.Client, channel string, logger *slog.Logger) domain.CrossTabSync {
	if logger == nil {
		logger = discardLogger()
	}
	if rdb == nil {
		logger.Info("cross-tab sync disabled: no redis configured")
		return domain.NewNoOpSync()
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Info("cross-tab sync disabled: redis unreachable", "err", err)
		return domain.NewNoOpSync()
	}
	return NewBroadcastSync(NewRedisBroadcaster(rdb), channel, logger)
}

// ChannelFor scopes base to one subscriber so sessions of different
// subscribers never see each other's changes.
func ChannelFor(base, subscriberID string) string {
	if base == "" {
		base = domain.SyncChannel
	}
	return base + ":" + subscriberID
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
