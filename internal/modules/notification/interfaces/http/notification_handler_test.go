package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
	"github.com/saransh1220/procurement-console/internal/modules/notification/application"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/persistence/memory"
	ws "github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/websocket"
	notificationhttp "github.com/saransh1220/procurement-console/internal/modules/notification/interfaces/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data struct {
		Notifications []domain.Notification `json:"notifications"`
		Updated       int                   `json:"updated"`
		Deleted       int                   `json:"deleted"`
	} `json:"data"`
}

func authedRequest(method, path, body, userID string) *stdhttp.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if userID == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserId, userID)
	return req.WithContext(ctx)
}

func newHandler(t *testing.T) (*notificationhttp.NotificationHandler, *memory.NotificationRepository) {
	t.Helper()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	repo := memory.NewNotificationRepository()
	svc := application.NewNotificationService(repo, hub)
	return notificationhttp.NewNotificationHandler(svc, hub, nil), repo
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNotificationHandler_CreateThenList(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest("POST", "/notifications/",
		`{"receiver_ids":["vendor-9"],"title":"RFQ Published","message":"RFQ-12","service_type":"rfq"}`, "buyer-1"))
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	created := decode(t, rec).Data.Notifications
	require.Len(t, created, 1)

	req := authedRequest("GET", "/notifications/vendor-9", "", "vendor-9")
	req.SetPathValue("subscriberId", "vendor-9")
	rec = httptest.NewRecorder()
	h.ListNotifications(rec, req)

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	listed := decode(t, rec).Data.Notifications
	require.Len(t, listed, 1)
	assert.Equal(t, created[0].ID, listed[0].ID)
	assert.Equal(t, "rfq", listed[0].ServiceType)
}

func TestNotificationHandler_ListEmptyIsArray(t *testing.T) {
	h, _ := newHandler(t)
	req := authedRequest("GET", "/notifications/buyer-1", "", "buyer-1")
	req.SetPathValue("subscriberId", "buyer-1")
	rec := httptest.NewRecorder()

	h.ListNotifications(rec, req)

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"notifications":[]}}`, rec.Body.String())
}

func TestNotificationHandler_ListOtherSubscriberIsForbidden(t *testing.T) {
	h, _ := newHandler(t)
	req := authedRequest("GET", "/notifications/vendor-9", "", "buyer-1")
	req.SetPathValue("subscriberId", "vendor-9")
	rec := httptest.NewRecorder()

	h.ListNotifications(rec, req)

	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
}

func TestNotificationHandler_MarkReadAndDelete(t *testing.T) {
	h, repo := newHandler(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, "buyer-1", &domain.Notification{ID: "a", Title: "t", Message: "m", CreatedAt: time.Now()}))
	require.NoError(t, repo.Create(ctx, "buyer-1", &domain.Notification{ID: "b", Title: "t", Message: "m", CreatedAt: time.Now()}))

	rec := httptest.NewRecorder()
	h.MarkAsRead(rec, authedRequest("POST", "/notifications/mark-read", `{"userId":"buyer-1","notification_ids":["a"]}`, "buyer-1"))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).Data.Updated)

	rec = httptest.NewRecorder()
	h.Delete(rec, authedRequest("POST", "/notifications/delete", `{"notification_ids":["b","zzz"]}`, "buyer-1"))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).Data.Deleted)

	items, _ := repo.ListByReceiver(ctx, "buyer-1")
	require.Len(t, items, 1)
	assert.True(t, items[0].IsRead)
}

func TestNotificationHandler_MarkReadForOtherSubscriberIsForbidden(t *testing.T) {
	h, _ := newHandler(t)
	rec := httptest.NewRecorder()

	h.MarkAsRead(rec, authedRequest("POST", "/notifications/mark-read", `{"userId":"vendor-9","notification_ids":["a"]}`, "buyer-1"))

	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
}

func TestNotificationHandler_Rejections(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name    string
		handler func(stdhttp.ResponseWriter, *stdhttp.Request)
		body    string
		userID  string
		code    int
	}{
		{"list unauthenticated", h.ListNotifications, "", "", stdhttp.StatusUnauthorized},
		{"mark unauthenticated", h.MarkAsRead, `{}`, "", stdhttp.StatusUnauthorized},
		{"delete unauthenticated", h.Delete, `{}`, "", stdhttp.StatusUnauthorized},
		{"create unauthenticated", h.Create, `{}`, "", stdhttp.StatusUnauthorized},
		{"mark bad body", h.MarkAsRead, `{`, "buyer-1", stdhttp.StatusBadRequest},
		{"delete bad body", h.Delete, `{`, "buyer-1", stdhttp.StatusBadRequest},
		{"create bad body", h.Create, `{`, "buyer-1", stdhttp.StatusBadRequest},
		{"create missing fields", h.Create, `{"receiver_ids":["x"],"title":"t"}`, "buyer-1", stdhttp.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, authedRequest("POST", "/notifications/", tt.body, tt.userID))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
