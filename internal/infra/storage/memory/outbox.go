package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "staycal/internal/app/outbox"
	infraoutbox "staycal/internal/infra/outbox"
)

type outboxEntry struct {
	msg       infraoutbox.Message
	state     string
	nextTry   time.Time
	lastError string
}

// Outbox keeps pending events in memory for the publishing worker. It is
// used when no MongoDB is configured; pending events do not survive restarts.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, &outboxEntry{
		msg: infraoutbox.Message{
			ID:         record.ID,
			Name:       record.Name,
			Payload:    append([]byte(nil), record.Payload...),
			OccurredAt: record.OccurredAt,
			Aggregate:  record.Aggregate,
			Headers:    record.Headers,
		},
		state:   infraoutbox.StateNew,
		nextTry: o.now(),
	})
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.entries {
		if e.state != infraoutbox.StateNew && e.state != infraoutbox.StateFailed {
			continue
		}
		if e.nextTry.After(now) {
			continue
		}
		e.state = infraoutbox.StateClaimed
		msg := e.msg
		return &msg, nil
	}
	return nil, nil
}

// MarkSent drops the entry; sent events are not kept in memory.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e.msg.ID == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.msg.ID == id {
			e.state = infraoutbox.StateFailed
			e.nextTry = next
			e.lastError = errMsg
			e.msg.Attempts++
			return nil
		}
	}
	return nil
}

// Pending reports how many events are waiting to be published.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
