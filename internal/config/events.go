package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/events"
)

// EventConfig selects where attempt and answer events go.
type EventConfig struct {
	Enabled      bool
	Publisher    string // kafka or mock
	KafkaBrokers string
	Topic        string
}

func (c *EventConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CreateEventPublisher returns the Kafka publisher when events are enabled
// and configured for it. Everything else gets the in-memory publisher.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled || c.Publisher != "kafka" {
		logger.Info("Using in-memory event publisher", "enabled", c.Enabled, "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}

	brokers := c.Brokers()
	if len(brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required when EVENTS_PUBLISHER=kafka")
	}
	logger.Info("Creating Kafka event publisher", "brokers", brokers, "topic", c.Topic)
	return events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: brokers,
		TopicName:    c.Topic,
		Logger:       logger,
	})
}
