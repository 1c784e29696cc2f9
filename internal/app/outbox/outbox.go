package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"staycal/internal/domain/shared/events"
)

// EventRecord is a domain event serialized for later publication.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
	// Headers are copied onto every record, e.g. the property name.
	Headers map[string]string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = v
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

type requestIDKey struct{}

// ContextWithRequestID lets RecordDomainEvents stamp records with the HTTP
// request that produced them.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if requestID != "" {
			if rec.Headers == nil {
				rec.Headers = map[string]string{}
			}
			rec.Headers["request_id"] = requestID
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
