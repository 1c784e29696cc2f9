package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/domain/availability"
)

const PublishKey = "calendar.publish"

var ErrPublisherMissing = errors.New("admin: no publisher configured")

// Publisher stores a document where the static backend can fetch it.
type Publisher interface {
	Publish(ctx context.Context, key string, body []byte) (string, error)
}

// PublishCommand republishes the saved occupied set as a static document.
type PublishCommand struct{}

func (PublishCommand) Key() string         { return PublishKey }
func (PublishCommand) RequiresAdmin() bool { return true }

type PublishHandler struct {
	Backend   availability.Backend
	Publisher Publisher
	ObjectKey string
	Logger    *slog.Logger
}

func (h *PublishHandler) Handle(ctx context.Context, _ PublishCommand) (dto.PublishResult, error) {
	if h.Publisher == nil {
		return dto.PublishResult{}, ErrPublisherMissing
	}
	store := availability.NewStore(h.Backend, availability.StoreOptions{Logger: h.Logger})
	set, err := store.Load(ctx)
	if err != nil {
		// An empty document would wipe the published calendar.
		return dto.PublishResult{}, fmt.Errorf("publish: %w", err)
	}
	body, err := json.Marshal(set.Strings())
	if err != nil {
		return dto.PublishResult{}, err
	}
	url, err := h.Publisher.Publish(ctx, h.objectKey(), body)
	if err != nil {
		return dto.PublishResult{}, &availability.TransportError{Backend: "publisher", Op: "publish", Err: err}
	}
	if h.Logger != nil {
		h.Logger.Info("occupied dates published", "url", url, "count", set.Len())
	}
	return dto.PublishResult{URL: url, Count: set.Len()}, nil
}

func (h *PublishHandler) objectKey() string {
	if h.ObjectKey != "" {
		return h.ObjectKey
	}
	return "occupied-dates.json"
}

var _ commands.Handler[PublishCommand, dto.PublishResult] = (*PublishHandler)(nil)
