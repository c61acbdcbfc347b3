package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
	"github.com/saransh1220/procurement-console/internal/modules/auth"
	"github.com/saransh1220/procurement-console/internal/modules/notification"
	"github.com/saransh1220/procurement-console/internal/modules/notification/application"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/crosstab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct {
	srv    *httptest.Server
	notify *notification.Module
}

func startStub(t *testing.T) *stub {
	t.Helper()
	authModule := auth.NewModule("test-secret", time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(authModule.Service())
	notifyModule := notification.NewModule(authMiddleware.VerifyRegistration)
	t.Cleanup(notifyModule.Shutdown)

	srv := httptest.NewServer(NewHandler(RouterConfig{
		AuthHandler:         authModule.HTTPHandler(),
		AuthMiddleware:      authMiddleware,
		NotificationHandler: notifyModule.HTTPHandler(),
		AllowedOrigins:      "*",
	}))
	t.Cleanup(srv.Close)
	return &stub{srv: srv, notify: notifyModule}
}

func (s *stub) token(t *testing.T, userID string) string {
	t.Helper()
	resp, err := http.Post(s.srv.URL+"/dev/token", "application/json", strings.NewReader(`{"user_id":"`+userID+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out["token"]
}

func (s *stub) session(t *testing.T, userID string, bus crosstab.Broadcaster) *application.Session {
	t.Helper()
	sess := notification.NewSession(context.Background(), domain.Subscriber{ID: userID}, s.token(t, userID), notification.ClientConfig{
		APIBaseURL: s.srv.URL,
		HTTPClient: s.srv.Client(),
		Origin:     s.srv.URL,
		Session: application.SessionConfig{
			LiveURL:      "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws",
			BackoffFloor: 20 * time.Millisecond,
		},
		Bus:    bus,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(sess.Stop)
	return sess
}

func TestSetupRoutes_HealthCheck(t *testing.T) {
	s := startStub(t)

	resp, err := http.Get(s.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	s := startStub(t)

	resp, err := http.Get(s.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSetupRoutes_NotificationsRequireAuth(t *testing.T) {
	s := startStub(t)

	resp, err := http.Get(s.srv.URL + "/notifications/buyer-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, s.srv.URL+"/notifications/delete", bytes.NewBufferString(`{"notification_ids":["x"]}`))
	req.Header.Set("Authorization", "Bearer "+s.token(t, "buyer-1"))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStub_LiveDeliveryAndCrossTabSync(t *testing.T) {
	s := startStub(t)
	bus := crosstab.NewMemoryBroadcaster()
	ctx := context.Background()

	tabA := s.session(t, "buyer-1", bus)
	tabB := s.session(t, "buyer-1", bus)
	vendor := s.session(t, "vendor-9", nil)
	require.NoError(t, tabA.Start(ctx))
	require.NoError(t, tabB.Start(ctx))

	require.Eventually(t, func() bool {
		return s.notify.Hub().Connections("buyer-1") == 2
	}, 5*time.Second, 10*time.Millisecond)

	created, err := vendor.Send(ctx, domain.SendRequest{
		ReceiverIDs: []string{"buyer-1"},
		Title:       "Quote Submitted",
		Message:     "Vendor 9 quoted on RFQ-12",
		ServiceType: "rfq",
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	for _, tab := range []*application.Session{tabA, tabB} {
		require.Eventually(t, func() bool {
			snap := tab.Snapshot()
			return len(snap.Notifications) == 1 && snap.UnreadCount == 1
		}, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, id, tab.Snapshot().Notifications[0].ID)
	}

	tabA.MarkAsRead(ctx, []domain.NotificationID{id})
	assert.Equal(t, 0, tabA.Snapshot().UnreadCount)
	require.Eventually(t, func() bool { return tabB.Snapshot().UnreadCount == 0 }, 5*time.Second, 10*time.Millisecond)

	tabB.DeleteNotifications(ctx, []domain.NotificationID{id})
	assert.Empty(t, tabB.Snapshot().Notifications)
	require.Eventually(t, func() bool { return len(tabA.Snapshot().Notifications) == 0 }, 5*time.Second, 10*time.Millisecond)

	// the backend agrees
	tabA.Refresh(ctx)
	assert.Empty(t, tabA.Snapshot().Notifications)
}

func TestStub_LiveChannelRejectsForeignToken(t *testing.T) {
	s := startStub(t)

	impostor := notification.NewSession(context.Background(), domain.Subscriber{ID: "buyer-1"}, s.token(t, "vendor-9"), notification.ClientConfig{
		APIBaseURL: s.srv.URL,
		Session: application.SessionConfig{
			LiveURL:      "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws",
			BackoffFloor: time.Hour,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, impostor.Start(context.Background()))
	defer impostor.Stop()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, s.notify.Hub().Connections("buyer-1"))
}
