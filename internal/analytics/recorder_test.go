package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVisitStore struct {
	visits    []*shortener.Visit
	appendErr error
}

func (m *mockVisitStore) AppendVisit(_ context.Context, visit *shortener.Visit) error {
	if m.appendErr != nil {
		return m.appendErr
	}

	m.visits = append(m.visits, visit)

	return nil
}

type mockCreatedStore struct {
	events []*analytics.LinkCreatedEvent
}

func (m *mockCreatedStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	m.events = append(m.events, event)

	return nil
}

func TestNewVisitRecorder(t *testing.T) {
	visitedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("publishes the visit as an event", func(t *testing.T) {
		var published []*analytics.LinkVisitedEvent

		record := analytics.NewVisitRecorder(func(_ context.Context, e *analytics.LinkVisitedEvent) error {
			published = append(published, e)

			return nil
		})

		err := record(context.Background(), &shortener.Visit{
			ShortLinkID: 3,
			Code:        "abc123",
			VisitedAt:   visitedAt,
			RemoteAddr:  "10.0.0.1",
			RemotePort:  "51000",
		})

		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.Equal(t, analytics.LinkVisitedEvent{
			LinkID:     3,
			Code:       "abc123",
			VisitedAt:  visitedAt,
			RemoteAddr: "10.0.0.1",
			RemotePort: "51000",
		}, *published[0])
	})

	t.Run("returns publish errors", func(t *testing.T) {
		record := analytics.NewVisitRecorder(func(_ context.Context, _ *analytics.LinkVisitedEvent) error {
			return errors.New("broker down")
		})

		err := record(context.Background(), &shortener.Visit{ShortLinkID: 1})

		assert.Error(t, err)
	})
}

func TestHandleLinkVisited(t *testing.T) {
	t.Run("appends a visit record", func(t *testing.T) {
		store := &mockVisitStore{}
		handle := analytics.HandleLinkVisited(store)

		err := handle(context.Background(), &analytics.LinkVisitedEvent{
			LinkID:     9,
			Code:       "xyz",
			RemoteAddr: "127.0.0.1",
			RemotePort: "8080",
		})

		require.NoError(t, err)
		require.Len(t, store.visits, 1)
		assert.Equal(t, int64(9), store.visits[0].ShortLinkID)
		assert.Equal(t, "8080", store.visits[0].RemotePort)
	})

	t.Run("drops visits of missing links", func(t *testing.T) {
		handle := analytics.HandleLinkVisited(&mockVisitStore{appendErr: shortener.ErrNotFound})

		assert.NoError(t, handle(context.Background(), &analytics.LinkVisitedEvent{LinkID: 1}))
	})

	t.Run("returns other store errors for redelivery", func(t *testing.T) {
		handle := analytics.HandleLinkVisited(&mockVisitStore{appendErr: errors.New("db down")})

		assert.Error(t, handle(context.Background(), &analytics.LinkVisitedEvent{LinkID: 1}))
	})
}

func TestHandleLinkCreated(t *testing.T) {
	store := &mockCreatedStore{}
	handle := analytics.HandleLinkCreated(store)

	err := handle(context.Background(), &analytics.LinkCreatedEvent{Code: "abc"})

	require.NoError(t, err)
	require.Len(t, store.events, 1)
	assert.Equal(t, "abc", store.events[0].Code)
}
