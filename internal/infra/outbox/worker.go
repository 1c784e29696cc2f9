package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker polls a Store and publishes due records as CloudEvents.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	// BatchSize caps how many records one tick publishes.
	BatchSize int
	Logger    *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil && w.Logger != nil {
				w.Logger.Warn("outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes due records until none is left, the batch is full or a
// publish fails, and returns how many were published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	published := 0
	for published < w.batchSize() {
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return published, err
		}
		published++
	}
	return published, nil
}

// processOnce reports whether a record was claimed and published.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	msg, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || msg == nil {
		return false, err
	}
	topic := w.topicFor(msg.Name)
	payload, headers, err := w.formatPayload(msg)
	if err != nil {
		return false, w.Store.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), err.Error())
	}
	if err := w.Producer.Publish(ctx, topic, msg.Aggregate, payload, headers); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event", msg.Name, "id", msg.ID, "attempts", msg.Attempts+1, "error", err)
		}
		return false, w.Store.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), err.Error())
	}
	return true, w.Store.MarkSent(ctx, msg.ID)
}

func (w *Worker) formatPayload(msg *Message) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              msg.ID,
		"type":            msg.Name + ".v1",
		"source":          w.source(),
		"subject":         msg.Aggregate,
		"time":            msg.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := msg.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "calendar.saved" to "calendar.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-worker"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://staycal"
}
