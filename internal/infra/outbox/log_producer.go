package outbox

import (
	"context"
	"log/slog"
)

// LogProducer stands in for Kafka when no brokers are configured: events are
// written to the log and count as delivered.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.Logger != nil {
		p.Logger.Info("event published", "topic", topic, "key", key, "bytes", len(payload))
	}
	return nil
}
