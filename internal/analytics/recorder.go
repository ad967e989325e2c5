package analytics

import (
	"context"
	"errors"

	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/shortener"
)

// NewVisitRecorder returns a recorder that publishes visits as LinkVisitedEvents.
func NewVisitRecorder(publish messaging.Publish[LinkVisitedEvent]) shortener.VisitRecorder {
	return func(ctx context.Context, visit *shortener.Visit) error {
		return publish(ctx, &LinkVisitedEvent{
			LinkID:     visit.ShortLinkID,
			Code:       visit.Code,
			VisitedAt:  visit.VisitedAt,
			RemoteAddr: visit.RemoteAddr,
			RemotePort: visit.RemotePort,
		})
	}
}

// HandleLinkVisited persists visit events as visit records. Visits of links
// that no longer exist are dropped.
func HandleLinkVisited(store shortener.VisitStore) messaging.Handler[LinkVisitedEvent] {
	return func(ctx context.Context, event *LinkVisitedEvent) error {
		err := store.AppendVisit(ctx, &shortener.Visit{
			ShortLinkID: event.LinkID,
			Code:        event.Code,
			VisitedAt:   event.VisitedAt,
			RemoteAddr:  event.RemoteAddr,
			RemotePort:  event.RemotePort,
		})
		if errors.Is(err, shortener.ErrNotFound) {
			return nil
		}

		return err
	}
}

// HandleLinkCreated hands creation events to store.
func HandleLinkCreated(store Store) messaging.Handler[LinkCreatedEvent] {
	return store.SaveLinkCreated
}
