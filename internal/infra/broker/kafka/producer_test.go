package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama/mocks"
)

func TestPublishSendsHeadersAndKey(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"ok":true}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	p := newProducerWith(mock)
	defer p.Close()

	err := p.Publish(context.Background(), "calendar.events.v1", "casa", []byte(`{"ok":true}`), map[string]string{"b": "2", "a": "1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestPublishHonorsCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := newProducerWith(mock)
	defer p.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, "t", "k", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRecordHeadersSorted(t *testing.T) {
	hs := recordHeaders(map[string]string{"z": "1", "a": "2"})
	if len(hs) != 2 || string(hs[0].Key) != "a" || string(hs[1].Key) != "z" {
		t.Fatalf("unexpected headers %v", hs)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(nil, "staycal"); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
}
