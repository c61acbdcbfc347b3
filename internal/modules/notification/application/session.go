package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// DefaultPollInterval is how often history is refetched while the live
// channel is down.
const DefaultPollInterval = 30 * time.Second

// SessionConfig tunes a Session. Zero values take the package defaults.
type SessionConfig struct {
	LiveURL        string
	PollInterval   time.Duration
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	BackoffFactor  float64
}

// SessionDeps are the collaborators of a Session. Gateway and Dialer are
// required; the rest fall back to inert implementations.
type SessionDeps struct {
	Gateway domain.Gateway
	Dialer  domain.Dialer
	Sync    domain.CrossTabSync
	Logger  *slog.Logger
	Metrics Metrics
	Now     func() time.Time
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Notifications []domain.Notification
	UnreadCount   int
	Connected     bool
	Loading       bool
	State         domain.ConnectionState
}

// Session keeps the live notification feed of one subscriber: it holds the
// live channel open, backfills history, applies mutations after the backend
// confirms them and relays changes to sibling sessions.
type Session struct {
	cfg        SessionConfig
	subscriber domain.Subscriber
	token      string
	gateway    domain.Gateway
	dialer     domain.Dialer
	sync       domain.CrossTabSync
	log        *slog.Logger
	metrics    Metrics
	now        func() time.Time
	updates    chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once

	mu      sync.Mutex
	feed    *domain.Feed
	state   domain.ConnectionState
	loading bool
	backoff *Backoff
	conn    domain.Conn
	started bool
	stopped bool
	cancel  context.CancelFunc
}

// NewSession builds an unstarted session for subscriber. A nil Sync, Logger or
// Metrics in deps is replaced by an inert implementation.
func NewSession(subscriber domain.Subscriber, token string, deps SessionDeps, cfg SessionConfig) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.BackoffFloor <= 0 {
		cfg.BackoffFloor = DefaultBackoffFloor
	}
	if cfg.BackoffCeiling <= 0 {
		cfg.BackoffCeiling = DefaultBackoffCeiling
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = DefaultBackoffFactor
	}
	if deps.Sync == nil {
		deps.Sync = domain.NewNoOpSync()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Session{
		cfg:        cfg,
		subscriber: subscriber,
		token:      token,
		gateway:    deps.Gateway,
		dialer:     deps.Dialer,
		sync:       deps.Sync,
		log:        deps.Logger.With("component", "notifications", "subscriber", subscriber.ID),
		metrics:    deps.Metrics,
		now:        deps.Now,
		updates:    make(chan struct{}, 1),
		feed:       domain.NewFeed(),
		state:      domain.StateDisconnected,
		backoff:    NewBackoff(cfg.BackoffFloor, cfg.BackoffCeiling, cfg.BackoffFactor),
	}
}

// Subscriber returns the owner of the session.
func (s *Session) Subscriber() domain.Subscriber {
	return s.subscriber
}

func (s *Session) active() bool {
	return s.subscriber.ID != "" && s.token != ""
}

// Start activates the session. Without both a subscriber id and a token the
// session stays inert and ErrInactiveSubscriber is returned. Calling Start on
// a running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	if !s.active() {
		return domain.ErrInactiveSubscriber
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return domain.ErrSessionStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.started = true
	s.cancel = cancel
	s.loading = true
	// Add before releasing mu so a concurrent Stop waits for the goroutines.
	s.wg.Add(4)
	s.mu.Unlock()
	s.notify()

	go func() {
		defer s.wg.Done()
		s.Refresh(ctx)
	}()
	go s.connectLoop(ctx)
	go s.pollLoop(ctx)
	go s.listen(ctx)
	return nil
}

// Stop tears the session down: pending reconnects are cancelled, the live
// channel and the cross-tab channel are closed and the feed is discarded.
// It is safe to call Stop more than once, and before Start.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}

		s.wg.Wait()
		if err := s.sync.Close(); err != nil {
			s.log.Warn("closing cross-tab channel", "err", err)
		}

		s.mu.Lock()
		s.feed = domain.NewFeed()
		s.loading = false
		s.mu.Unlock()
		s.setState(domain.StateDisconnected)
		s.log.Info("notification session stopped")
	})
}

// Updates signals state changes. Signals coalesce; read Snapshot after each.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot copies the feed and connection state under the session lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Notifications: s.feed.Items(),
		UnreadCount:   s.feed.UnreadCount(),
		Connected:     s.state == domain.StateConnected,
		Loading:       s.loading,
		State:         s.state,
	}
}

// Connected reports whether the live channel is registered.
func (s *Session) Connected() bool {
	return s.State() == domain.StateConnected
}

// State returns the live channel state.
func (s *Session) State() domain.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading is true until the first history fetch completes.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Refresh fetches the backlog and merges the records not seen yet. Failures
// are logged; the loading flag clears either way.
func (s *Session) Refresh(ctx context.Context) {
	if !s.active() {
		return
	}

	items, err := s.gateway.FetchHistory(ctx, s.subscriber.ID)
	s.metrics.ObserveHistory(err)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.loading = false
	var added []domain.Notification
	if err == nil {
		added = s.feed.Merge(items)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("fetching notification history", "err", err)
		}
		return
	}
	if len(added) > 0 {
		s.metrics.ObserveApplied(SourceHistory, len(added))
	}
	s.log.Debug("history merged", "fetched", len(items), "added", len(added))
}

// MarkAsRead marks ids read on the backend and, once confirmed, locally and
// in sibling sessions. Failures are logged and leave the feed untouched.
func (s *Session) MarkAsRead(ctx context.Context, ids []domain.NotificationID) {
	if len(ids) == 0 || !s.active() {
		return
	}
	if err := s.gateway.MarkRead(ctx, s.subscriber.ID, ids); err != nil {
		s.log.Error("marking notifications read", "ids", len(ids), "err", err)
		return
	}

	s.mu.Lock()
	s.feed.MarkRead(ids)
	s.mu.Unlock()
	s.notify()
	s.publish(ctx, domain.SyncMessage{Type: domain.SyncMarkRead, IDs: ids})
}

// MarkAllAsRead marks every currently unread notification read.
func (s *Session) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	ids := s.feed.UnreadIDs()
	s.mu.Unlock()
	s.MarkAsRead(ctx, ids)
}

// DeleteNotifications removes ids on the backend and, once confirmed, locally
// and in sibling sessions. Failures are logged and leave the feed untouched.
func (s *Session) DeleteNotifications(ctx context.Context, ids []domain.NotificationID) {
	if len(ids) == 0 || !s.active() {
		return
	}
	if err := s.gateway.Delete(ctx, ids); err != nil {
		s.log.Error("deleting notifications", "ids", len(ids), "err", err)
		return
	}

	s.mu.Lock()
	s.feed.Remove(ids)
	s.mu.Unlock()
	s.notify()
	s.publish(ctx, domain.SyncMessage{Type: domain.SyncDelete, IDs: ids})
}

// Send creates notifications for other subscribers. Unlike the consumer-side
// operations its errors are returned, and it never touches the local feed.
func (s *Session) Send(ctx context.Context, req domain.SendRequest) ([]domain.Notification, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.Title == "" || req.Message == "" {
		return nil, domain.ErrInvalidNotification
	}
	if req.SenderID == "" {
		req.SenderID = s.subscriber.ID
	}

	created, err := s.gateway.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("send notification: %w", err)
	}
	return created, nil
}

func (s *Session) connectLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.setState(domain.StateConnecting)
		conn, err := s.dialer.Dial(ctx, s.cfg.LiveURL)
		if err == nil {
			err = s.serve(ctx, conn)
		}
		s.setState(domain.StateDisconnected)
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		delay := s.backoff.Next()
		s.mu.Unlock()
		s.metrics.ObserveReconnectDelay(delay)
		s.log.Warn("live channel unavailable, reconnecting", "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// serve registers on conn and pumps frames until the connection fails. The
// connection is always closed on return.
func (s *Session) serve(ctx context.Context, conn domain.Conn) error {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return ctx.Err()
	}
	s.conn = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()
	}()

	register := registerFrame{Type: frameTypeRegister, UserID: s.subscriber.ID, Token: s.token}
	if err := conn.WriteJSON(register); err != nil {
		return fmt.Errorf("register on live channel: %w", err)
	}

	s.mu.Lock()
	s.backoff.Reset()
	s.mu.Unlock()
	s.setState(domain.StateConnected)
	s.log.Info("live channel connected")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Refresh(ctx)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read live frame: %w", err)
		}
		s.handleFrame(ctx, data)
	}
}

func (s *Session) handleFrame(ctx context.Context, data []byte) {
	n, err := ParseFrame(data, s.now())
	if err != nil {
		s.metrics.ObserveDropped(dropReason(err))
		s.log.Warn("dropping live frame", "err", err)
		return
	}
	if !s.apply(n, SourceLive) {
		return
	}
	s.publish(ctx, domain.SyncMessage{Type: domain.SyncIncoming, Notification: &n})
}

// apply prepends n unless its id was already applied.
func (s *Session) apply(n domain.Notification, source string) bool {
	s.mu.Lock()
	added := !s.stopped && s.feed.Prepend(n)
	s.mu.Unlock()
	if !added {
		s.metrics.ObserveDropped(DropDuplicate)
		return false
	}
	s.metrics.ObserveApplied(source, 1)
	s.notify()
	return true
}

func (s *Session) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Connected() {
				s.Refresh(ctx)
			}
		}
	}
}

func (s *Session) listen(ctx context.Context) {
	defer s.wg.Done()
	if err := s.sync.Listen(ctx, s.applySync); err != nil && ctx.Err() == nil {
		s.log.Warn("cross-tab channel closed", "err", err)
	}
}

// applySync applies a change relayed by a sibling session. The backend write
// was already made by the originating session.
func (s *Session) applySync(msg domain.SyncMessage) {
	switch msg.Type {
	case domain.SyncIncoming:
		if msg.Notification == nil {
			return
		}
		s.apply(*msg.Notification, SourceCrossTab)
	case domain.SyncMarkRead:
		s.mu.Lock()
		s.feed.MarkRead(msg.IDs)
		s.mu.Unlock()
		s.notify()
	case domain.SyncDelete:
		s.mu.Lock()
		s.feed.Remove(msg.IDs)
		s.mu.Unlock()
		s.notify()
	default:
		s.log.Warn("ignoring cross-tab message", "type", msg.Type)
	}
}

func (s *Session) publish(ctx context.Context, msg domain.SyncMessage) {
	if err := s.sync.Publish(ctx, msg); err != nil {
		s.log.Warn("publishing cross-tab message", "type", msg.Type, "err", err)
	}
}

func (s *Session) setState(to domain.ConnectionState) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from != to {
		s.metrics.ObserveState(from, to)
		s.notify()
	}
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingNotificationID):
		return DropMissingID
	case errors.Is(err, domain.ErrUnexpectedFrameType):
		return DropType
	default:
		return DropMalformed
	}
}
