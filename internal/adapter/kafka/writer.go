// Package kafka publishes storm events to a Kafka topic so downstream
// consumers can alert on heavy snowfall without polling the snapshots.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// EventType is the event_type header on every published message.
const EventType = "snow_storm"

// Notifier produces one message per storm event.
type Notifier struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNotifier creates a producer for the storm topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger, metrics: metrics}
}

// stormMessage is the wire form of a storm event.
type stormMessage struct {
	CityID   string  `json:"city_id"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Snow24h  float64 `json:"snow_24h"`
	Message  string  `json:"message"`
	Observed string  `json:"observed_on"`
	Season   int     `json:"season"`
}

// NotifyStorms publishes the events observed on the given day in a single
// WriteMessages call. An empty batch is a no-op.
func (n *Notifier) NotifyStorms(ctx context.Context, observed time.Time, events []domain.StormEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		msg, err := serializeToMessage(e, observed)
		if err != nil {
			n.metrics.NotificationsPublished.WithLabelValues("error").Inc()
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		n.metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish storm events: %w", err)
	}
	n.metrics.NotificationsPublished.WithLabelValues("success").Inc()
	n.logger.Info("storm events published", "topic", n.writer.Topic, "count", len(msgs))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

func serializeToMessage(e domain.StormEvent, observed time.Time) (kafkago.Message, error) {
	day := domain.CivilDate(observed)
	data, err := json.Marshal(stormMessage{
		CityID:   e.CityID,
		City:     e.City,
		State:    e.State,
		Snow24h:  e.Snow24h,
		Message:  e.Message,
		Observed: domain.FormatDate(day),
		Season:   int(domain.SeasonOf(day)),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize storm event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.CityID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventType)},
			{Key: "observed_on", Value: []byte(domain.FormatDate(day))},
		},
	}, nil
}
