package analytics

import "context"

// Store persists link creation events.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
}
