package memory

import (
	"context"
	"testing"
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *NotificationRepository, receiver string, id domain.NotificationID, at time.Time) {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), receiver, &domain.Notification{ID: id, Title: "t", Message: "m", CreatedAt: at}))
}

func TestNotificationRepository_ListNewestFirstPerReceiver(t *testing.T) {
	r := NewNotificationRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, r, "buyer-1", "a", base)
	seed(t, r, "buyer-1", "b", base.Add(time.Hour))
	seed(t, r, "vendor-9", "c", base)

	items, err := r.ListByReceiver(context.Background(), "buyer-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.NotificationID("b"), items[0].ID)
	assert.Equal(t, domain.NotificationID("a"), items[1].ID)

	items, err = r.ListByReceiver(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNotificationRepository_CreateCopiesAndRequiresID(t *testing.T) {
	r := NewNotificationRepository()
	n := &domain.Notification{ID: "a", Title: "before"}
	require.NoError(t, r.Create(context.Background(), "buyer-1", n))
	n.Title = "after"

	items, _ := r.ListByReceiver(context.Background(), "buyer-1")
	assert.Equal(t, "before", items[0].Title)

	err := r.Create(context.Background(), "buyer-1", &domain.Notification{})
	assert.ErrorIs(t, err, domain.ErrMissingNotificationID)
}

func TestNotificationRepository_MarkAsReadScopedToReceiver(t *testing.T) {
	r := NewNotificationRepository()
	now := time.Now()
	seed(t, r, "buyer-1", "a", now)
	seed(t, r, "buyer-1", "b", now)
	seed(t, r, "vendor-9", "c", now)

	n, err := r.MarkAsRead(context.Background(), "buyer-1", []domain.NotificationID{"a", "c", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, _ = r.MarkAsRead(context.Background(), "buyer-1", []domain.NotificationID{"a"})
	assert.Equal(t, 0, n, "already read")

	vendor, _ := r.ListByReceiver(context.Background(), "vendor-9")
	assert.False(t, vendor[0].IsRead)
}

func TestNotificationRepository_Delete(t *testing.T) {
	r := NewNotificationRepository()
	now := time.Now()
	seed(t, r, "buyer-1", "a", now)
	seed(t, r, "buyer-1", "b", now)
	seed(t, r, "vendor-9", "c", now)

	n, err := r.Delete(context.Background(), []domain.NotificationID{"a", "c", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, _ := r.ListByReceiver(context.Background(), "buyer-1")
	require.Len(t, items, 1)
	assert.Equal(t, domain.NotificationID("b"), items[0].ID)

	items, _ = r.ListByReceiver(context.Background(), "vendor-9")
	assert.Empty(t, items)
}
