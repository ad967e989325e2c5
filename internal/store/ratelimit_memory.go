package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlinks/internal/ratelimit"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.requests[key] = append(prune(s.requests[key], now.Add(-window)), now)

	return int64(len(s.requests[key])), nil
}

// Sweep drops keys whose newest request is older than maxAge.
func (s *RateLimitMemoryStore) Sweep(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)

	for key, timestamps := range s.requests {
		if len(prune(timestamps, cutoff)) == 0 {
			delete(s.requests, key)
		}
	}
}

// StartSweeping runs Sweep(maxAge) every interval until Shutdown is called.
func (s *RateLimitMemoryStore) StartSweeping(interval, maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Sweep(maxAge)
			}
		}
	}(s.stop, s.done)
}

// Shutdown stops the sweeper started by StartSweeping.
func (s *RateLimitMemoryStore) Shutdown() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}

	close(stop)
	<-done

	return nil
}

// Len returns the number of tracked keys.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

// prune drops timestamps at or before cutoff. Timestamps are in ascending order.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && !timestamps[i].After(cutoff) {
		i++
	}

	return timestamps[i:]
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
