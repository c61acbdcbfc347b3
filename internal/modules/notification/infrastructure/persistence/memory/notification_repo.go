package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// NotificationRepository keeps notifications in process memory. Contents are
// lost when the process exits.
type NotificationRepository struct {
	mu      sync.RWMutex
	byOwner map[string][]*domain.Notification
	owner   map[domain.NotificationID]string
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		byOwner: make(map[string][]*domain.Notification),
		owner:   make(map[domain.NotificationID]string),
	}
}

func (r *NotificationRepository) Create(_ context.Context, receiverID string, n *domain.Notification) error {
	if n.ID == "" {
		return domain.ErrMissingNotificationID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *n
	r.byOwner[receiverID] = append(r.byOwner[receiverID], &stored)
	r.owner[n.ID] = receiverID
	return nil
}

// ListByReceiver returns copies, newest first.
func (r *NotificationRepository) ListByReceiver(_ context.Context, receiverID string) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Notification, 0, len(r.byOwner[receiverID]))
	for _, n := range r.byOwner[receiverID] {
		out = append(out, *n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkAsRead flags the receiver's records among ids. Ids owned by other
// receivers are ignored.
func (r *NotificationRepository) MarkAsRead(_ context.Context, receiverID string, ids []domain.NotificationID) (int, error) {
	want := toSet(ids)
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.byOwner[receiverID] {
		if _, ok := want[rec.ID]; ok && !rec.IsRead {
			rec.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) Delete(_ context.Context, ids []domain.NotificationID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, id := range ids {
		receiverID, ok := r.owner[id]
		if !ok {
			continue
		}
		delete(r.owner, id)
		recs := r.byOwner[receiverID]
		for i, rec := range recs {
			if rec.ID == id {
				r.byOwner[receiverID] = append(recs[:i], recs[i+1:]...)
				n++
				break
			}
		}
	}
	return n, nil
}

func toSet(ids []domain.NotificationID) map[domain.NotificationID]struct{} {
	set := make(map[domain.NotificationID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
