package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAuditLine(t *testing.T) {
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		event   SubscriptionEvent
		want    string
		wantErr bool
	}{
		{
			name: "subscribed",
			event: SubscriptionEvent{
				Type: EventSubscribed, SubscriptionID: "s1", UserID: "u1", PlanType: "MONTHLY",
				StartDate: at, EndDate: at.AddDate(0, 1, 0), OccurredAt: at,
			},
			want: "[2026-04-01T12:00:00Z] subscription.created | subscription_id=s1 | user_id=u1 | plan=MONTHLY | start=2026-04-01T12:00:00Z | end=2026-05-01T12:00:00Z\n",
		},
		{
			name:  "cancelled",
			event: SubscriptionEvent{Type: EventCancelled, SubscriptionID: "s1", UserID: "u1", OccurredAt: at},
			want:  "[2026-04-01T12:00:00Z] subscription.cancelled | subscription_id=s1 | user_id=u1\n",
		},
		{
			name:    "missing id",
			event:   SubscriptionEvent{Type: EventCancelled},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.event)
			require.NoError(t, err)
			var buf bytes.Buffer
			err = WriteAuditLine(&buf, body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteAuditLineRejectsGarbage(t *testing.T) {
	assert.Error(t, WriteAuditLine(&bytes.Buffer{}, []byte("{not json")))
}

func TestAppendToFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "subscription.log")
	body, _ := json.Marshal(SubscriptionEvent{Type: EventCancelled, SubscriptionID: "s", UserID: "u"})
	require.NoError(t, appendToFile(path, body))
	require.NoError(t, appendToFile(path, body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
