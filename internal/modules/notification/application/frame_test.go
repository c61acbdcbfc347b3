package application

import (
	"testing"
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame_AppliesDefaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	n, err := ParseFrame([]byte(`{"type":"notification","payload":{"id":"n2"}}`), now)
	require.NoError(t, err)

	assert.Equal(t, domain.NotificationID("n2"), n.ID)
	assert.Equal(t, "Notification", n.Title)
	assert.Empty(t, n.Message)
	assert.Nil(t, n.Link)
	assert.Empty(t, n.ServiceType)
	assert.Equal(t, now, n.CreatedAt)
	assert.False(t, n.IsRead)
	assert.JSONEq(t, `{"id":"n2"}`, string(n.Raw))
}

func TestParseFrame_KeepsPayloadFields(t *testing.T) {
	frame := `{"type":"notification","payload":{"id":17,"title":"PO Amended","message":"PO-44 rev 2",
		"link":"/purchase-orders/44","created_at":"2024-03-04T05:06:07Z","is_read":true,
		"service_type":"purchase_order","extra":{"k":"v"}}}`

	n, err := ParseFrame([]byte(frame), time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.NotificationID("17"), n.ID)
	assert.Equal(t, "PO Amended", n.Title)
	assert.Equal(t, "PO-44 rev 2", n.Message)
	require.NotNil(t, n.Link)
	assert.Equal(t, "/purchase-orders/44", *n.Link)
	assert.Equal(t, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), n.CreatedAt.UTC())
	assert.True(t, n.IsRead)
	assert.Equal(t, "purchase_order", n.ServiceType)
	assert.Contains(t, string(n.Raw), `"extra"`)
}

func TestParseFrame_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `hello`, domain.ErrMalformedFrame},
		{"other type", `{"type":"pong","payload":{"id":"x"}}`, domain.ErrUnexpectedFrameType},
		{"no type", `{"payload":{"id":"x"}}`, domain.ErrUnexpectedFrameType},
		{"null payload", `{"type":"notification","payload":null}`, domain.ErrMalformedFrame},
		{"missing payload", `{"type":"notification"}`, domain.ErrMalformedFrame},
		{"payload not object", `{"type":"notification","payload":"x"}`, domain.ErrMalformedFrame},
		{"missing id", `{"type":"notification","payload":{"title":"t"}}`, domain.ErrMissingNotificationID},
		{"empty id", `{"type":"notification","payload":{"id":""}}`, domain.ErrMissingNotificationID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame([]byte(tt.frame), time.Now())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseFrame_UnparseableTimestampFallsBackToNow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	n, err := ParseFrame([]byte(`{"type":"notification","payload":{"id":"a","created_at":"yesterday"}}`), now)
	require.NoError(t, err)
	assert.Equal(t, now, n.CreatedAt)
}

func TestParseFrame_MistypedFieldsFallBackIndividually(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	frame := `{"type":"notification","payload":{"id":"b","title":42,"message":"GRN posted",
		"link":false,"created_at":1714564800000,"is_read":"yes","service_type":["grn"]}}`

	n, err := ParseFrame([]byte(frame), now)
	require.NoError(t, err)

	assert.Equal(t, domain.NotificationID("b"), n.ID)
	assert.Equal(t, "Notification", n.Title)
	assert.Equal(t, "GRN posted", n.Message)
	assert.Nil(t, n.Link)
	assert.Equal(t, now, n.CreatedAt)
	assert.False(t, n.IsRead)
	assert.Empty(t, n.ServiceType)
}
