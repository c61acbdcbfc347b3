package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/saransh1220/procurement-console/internal/gateway/middleware"
	"github.com/saransh1220/procurement-console/internal/modules/notification/application"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/saransh1220/procurement-console/internal/modules/notification/infrastructure/websocket"
)

type markReadRequest struct {
	UserID          string                  `json:"userId"`
	NotificationIDs []domain.NotificationID `json:"notification_ids"`
}

type deleteRequest struct {
	NotificationIDs []domain.NotificationID `json:"notification_ids"`
}

type NotificationHandler struct {
	service *application.NotificationService
	hub     *websocket.Hub
	verify  websocket.Verifier
}

func NewNotificationHandler(service *application.NotificationService, hub *websocket.Hub, verify websocket.Verifier) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, verify: verify}
}

// Subscribe serves the live channel. The connection authenticates with its
// register frame, so no bearer header is required.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, w, r, h.verify)
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if r.PathValue("subscriberId") != userID {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	notifications, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Printf("ListNotifications: service error: %v", err)
		http.Error(w, `{"error":"failed to fetch notifications"}`, http.StatusInternalServerError)
		return
	}
	writeNotifications(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.UserID != "" && req.UserID != userID {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	updated, err := h.service.MarkAsRead(r.Context(), userID, req.NotificationIDs)
	if err != nil {
		http.Error(w, `{"error":"failed to mark notifications as read"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]int{"updated": updated}})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r.Context()); !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	deleted, err := h.service.Delete(r.Context(), req.NotificationIDs)
	if err != nil {
		http.Error(w, `{"error":"failed to delete notifications"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]int{"deleted": deleted}})
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req domain.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.SenderID == "" {
		req.SenderID = userID
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			http.Error(w, `{"error":"title, message and receiver_ids are required"}`, http.StatusBadRequest)
			return
		}
		log.Printf("CreateNotification: service error: %v", err)
		http.Error(w, `{"error":"failed to create notification"}`, http.StatusInternalServerError)
		return
	}
	writeNotifications(w, http.StatusCreated, created)
}

func writeNotifications(w http.ResponseWriter, status int, notifications []domain.Notification) {
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeJSON(w, status, map[string]any{
		"data": map[string]any{"notifications": notifications},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}
