package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

type gatewayStub struct {
	mu            sync.Mutex
	historyCalls  int
	markReadCalls int
	deleteCalls   int
	createCalls   int

	fetchHistoryFn func(context.Context, string) ([]domain.Notification, error)
	markReadFn     func(context.Context, string, []domain.NotificationID) error
	deleteFn       func(context.Context, []domain.NotificationID) error
	createFn       func(context.Context, domain.SendRequest) ([]domain.Notification, error)
}

func (g *gatewayStub) FetchHistory(ctx context.Context, subscriberID string) ([]domain.Notification, error) {
	g.mu.Lock()
	g.historyCalls++
	fn := g.fetchHistoryFn
	g.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, subscriberID)
}

func (g *gatewayStub) MarkRead(ctx context.Context, subscriberID string, ids []domain.NotificationID) error {
	g.mu.Lock()
	g.markReadCalls++
	g.mu.Unlock()
	if g.markReadFn == nil {
		return nil
	}
	return g.markReadFn(ctx, subscriberID, ids)
}

func (g *gatewayStub) Delete(ctx context.Context, ids []domain.NotificationID) error {
	g.mu.Lock()
	g.deleteCalls++
	g.mu.Unlock()
	if g.deleteFn == nil {
		return nil
	}
	return g.deleteFn(ctx, ids)
}

func (g *gatewayStub) Create(ctx context.Context, req domain.SendRequest) ([]domain.Notification, error) {
	g.mu.Lock()
	g.createCalls++
	g.mu.Unlock()
	if g.createFn == nil {
		return nil, nil
	}
	return g.createFn(ctx, req)
}

func (g *gatewayStub) calls() (history, markRead, del, create int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.historyCalls, g.markReadCalls, g.deleteCalls, g.createCalls
}

var errConnClosed = errors.New("connection closed")

// fakeConn is an in-memory live-channel connection driven by the test.
type fakeConn struct {
	frames    chan []byte
	written   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames:  make(chan []byte, 16),
		written: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		return 1, f, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.written <- data
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) push(frame string) {
	c.frames <- []byte(frame)
}

type dialResult struct {
	conn domain.Conn
	err  error
}

// fakeDialer hands out queued results; Dial blocks until one is queued.
type fakeDialer struct {
	mu      sync.Mutex
	dials   int
	urls    []string
	results chan dialResult
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(chan dialResult, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (domain.Conn, error) {
	d.mu.Lock()
	d.dials++
	d.urls = append(d.urls, url)
	d.mu.Unlock()
	select {
	case r := <-d.results:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// syncStub records publications and exposes the registered handler.
type syncStub struct {
	mu        sync.Mutex
	published []domain.SyncMessage
	handler   func(domain.SyncMessage)
	closes    int
	listening chan struct{}
	once      sync.Once
}

func newSyncStub() *syncStub {
	return &syncStub{listening: make(chan struct{})}
}

func (s *syncStub) Publish(_ context.Context, msg domain.SyncMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, msg)
	return nil
}

func (s *syncStub) Listen(ctx context.Context, handle func(domain.SyncMessage)) error {
	s.mu.Lock()
	s.handler = handle
	s.mu.Unlock()
	s.once.Do(func() { close(s.listening) })
	<-ctx.Done()
	return nil
}

func (s *syncStub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *syncStub) deliver(msg domain.SyncMessage) {
	<-s.listening
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h(msg)
}

func (s *syncStub) messages() []domain.SyncMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SyncMessage(nil), s.published...)
}

type metricsRecorder struct {
	nopMetrics
	mu      sync.Mutex
	delays  []time.Duration
	dropped map[string]int
}

func newMetricsRecorder() *metricsRecorder {
	return &metricsRecorder{dropped: make(map[string]int)}
}

func (m *metricsRecorder) ObserveReconnectDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
}

func (m *metricsRecorder) ObserveDropped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[reason]++
}

func (m *metricsRecorder) recordedDelays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.delays...)
}

func (m *metricsRecorder) droppedCount(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped[reason]
}
