package notification

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/procurement-console/internal/modules/notification/application"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/crosstab"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/persistence/memory"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/rest"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/saransh1220/procurement-console/internal/modules/notification/interfaces/http"
)

// Module is the backend half of the notification module, served by the
// development stub.
type Module struct {
	service *application.NotificationService
	handler *notification_http.NotificationHandler
	hub     *websocket.Hub
}

// NewModule starts an in-memory notification backend. verify checks the
// credentials of live-channel registrations; nil accepts all.
func NewModule(verify websocket.Verifier) *Module {
	repo := memory.NewNotificationRepository()
	hub := websocket.NewHub()
	go hub.Run()

	service := application.NewNotificationService(repo, hub)
	handler := notification_http.NewNotificationHandler(service, hub, verify)

	return &Module{
		service: service,
		handler: handler,
		hub:     hub,
	}
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

func (m *Module) Hub() *websocket.Hub {
	return m.hub
}

func (m *Module) Shutdown() {
	m.hub.Stop()
}

// ClientConfig describes how a Session reaches the backend and its sibling
// sessions.
type ClientConfig struct {
	APIBaseURL string
	// HTTPClient replaces the REST client's default when set.
	HTTPClient *http.Client
	// Origin is sent on the live-channel handshake.
	Origin  string
	Session application.SessionConfig

	// SyncChannel is scoped per subscriber before use.
	SyncChannel string
	// Bus, when set, carries cross-tab messages in process and takes
	// precedence over Redis.
	Bus   crosstab.Broadcaster
	Redis *redis.Client

	Metrics          application.Metrics
	Logger           *slog.Logger
	HandshakeTimeout time.Duration
}

// NewSession wires a Session for subscriber over REST, the live channel and
// the best available cross-tab transport. The session is not started.
func NewSession(ctx context.Context, subscriber domain.Subscriber, token string, cfg ClientConfig) *application.Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	channel := crosstab.ChannelFor(cfg.SyncChannel, subscriber.ID)
	var sync domain.CrossTabSync
	if cfg.Bus != nil {
		sync = crosstab.NewBroadcastSync(cfg.Bus, channel, logger)
	} else {
		sync = crosstab.Detect(ctx, cfg.Redis, channel, logger)
	}

	gateway := rest.NewClient(cfg.APIBaseURL, token)
	if cfg.HTTPClient != nil {
		gateway = gateway.WithHTTPClient(cfg.HTTPClient)
	}

	deps := application.SessionDeps{
		Gateway: gateway,
		Dialer:  websocket.NewDialer(cfg.HandshakeTimeout).WithOrigin(cfg.Origin),
		Sync:    sync,
		Logger:  logger,
		Metrics: cfg.Metrics,
	}
	return application.NewSession(subscriber, token, deps, cfg.Session)
}
