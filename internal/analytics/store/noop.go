package store

import (
	"context"

	"github.com/serroba/shortlinks/internal/analytics"
	"go.uber.org/zap"
)

// Noop is an analytics.Store that only logs the events it receives.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new logging analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created",
		zap.Int64("link_id", event.LinkID),
		zap.String("code", event.Code),
		zap.Int64("owner_id", event.OwnerID),
		zap.String("long_url", event.LongURL),
		zap.Bool("vanity", event.Vanity),
		zap.Time("created_at", event.CreatedAt),
	)

	return nil
}

var _ analytics.Store = (*Noop)(nil)
