package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	observed := time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC)
	event := domain.StormEvent{
		CityID:  "erie_pa",
		City:    "Erie",
		State:   "PA",
		Snow24h: 7.2,
		Message: `Erie just got 7.2" of fresh powder!`,
	}

	msg, err := serializeToMessage(event, observed)
	require.NoError(t, err)

	assert.Equal(t, []byte("erie_pa"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(EventType), msg.Headers[0].Value)
	assert.Equal(t, "observed_on", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-01-14"), msg.Headers[1].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "erie_pa", body["city_id"])
	assert.Equal(t, 7.2, body["snow_24h"])
	assert.Equal(t, "2026-01-14", body["observed_on"])
	assert.Equal(t, 2026.0, body["season"])
}

func TestNotifyStorms_EmptyBatchIsNoop(t *testing.T) {
	// No broker is listening; an empty batch must return before dialing.
	n := NewNotifier([]string{"127.0.0.1:1"}, "storms", slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	t.Cleanup(func() { _ = n.Close() })

	require.NoError(t, n.NotifyStorms(context.Background(), time.Now(), nil))
}
