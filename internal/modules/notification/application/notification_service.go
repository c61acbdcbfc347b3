package application

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// Pusher delivers a raw live-channel frame to every connection of a
// subscriber. *websocket.Hub implements it.
type Pusher interface {
	SendTo(subscriberID string, message []byte)
}

// NotificationService is the backend side of the development stub: it
// stores notifications in a repository and pushes them over the live
// channel as they are created.
type NotificationService struct {
	repo   domain.NotificationRepository
	pusher Pusher
	now    func() time.Time
}

func NewNotificationService(repo domain.NotificationRepository, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher, now: time.Now}
}

// Create stores one notification per receiver and pushes each to its
// receiver. Push failures never fail the call.
func (s *NotificationService) Create(ctx context.Context, req domain.SendRequest) ([]domain.Notification, error) {
	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)
	if title == "" || message == "" || len(req.ReceiverIDs) == 0 {
		return nil, domain.ErrInvalidNotification
	}

	created := make([]domain.Notification, 0, len(req.ReceiverIDs))
	for _, receiverID := range req.ReceiverIDs {
		if receiverID == "" {
			continue
		}
		n := domain.Notification{
			ID:          domain.NotificationID(uuid.NewString()),
			Title:       title,
			Message:     message,
			Link:        req.Link,
			CreatedAt:   s.now().UTC(),
			ServiceType: req.ServiceType,
		}
		if err := s.repo.Create(ctx, receiverID, &n); err != nil {
			return created, err
		}
		created = append(created, n)
		s.push(receiverID, n)
	}
	if len(created) == 0 {
		return nil, domain.ErrInvalidNotification
	}
	return created, nil
}

func (s *NotificationService) push(receiverID string, n domain.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("[Notifications] Encoding %s failed: %v", n.ID, err)
		return
	}
	frame, err := json.Marshal(liveFrame{Type: frameTypeNotification, Payload: payload})
	if err != nil {
		log.Printf("[Notifications] Encoding frame for %s failed: %v", n.ID, err)
		return
	}
	s.pusher.SendTo(receiverID, frame)
}

func (s *NotificationService) List(ctx context.Context, receiverID string) ([]domain.Notification, error) {
	return s.repo.ListByReceiver(ctx, receiverID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, receiverID string, ids []domain.NotificationID) (int, error) {
	return s.repo.MarkAsRead(ctx, receiverID, ids)
}

func (s *NotificationService) Delete(ctx context.Context, ids []domain.NotificationID) (int, error) {
	return s.repo.Delete(ctx, ids)
}
