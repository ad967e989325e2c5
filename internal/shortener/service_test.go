package shortener_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice int64 = 101
	bob   int64 = 102
)

// sequenceGenerator returns its codes in order, repeating the last one.
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *sequenceGenerator) Generate(_ int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := min(g.calls, len(g.codes)-1)
	g.calls++

	return g.codes[i], nil
}

type mockInvalidator struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (m *mockInvalidator) Invalidate(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codes = append(m.codes, link.Code)

	return m.err
}

type fixture struct {
	store       *store.MemoryStore
	service     *shortener.Service
	resolver    *shortener.Resolver
	invalidator *mockInvalidator
}

func newFixture(t *testing.T, generator shortener.CodeGenerator, maxAttempts int) *fixture {
	t.Helper()

	if generator == nil {
		generator = shortener.NewGenerator(shortener.DefaultCodeLength)
	}

	s := store.NewMemoryStore()
	inv := &mockInvalidator{}

	return &fixture{
		store:       s,
		service:     shortener.NewService(s, generator, inv, maxAttempts, zap.NewNop()),
		resolver:    shortener.NewResolver(s, s, s.AppendVisit, zap.NewNop()),
		invalidator: inv,
	}
}

// conflictingStore fails the next inserts with the queued constraint errors, the
// way a concurrent transaction committing the same rows would.
type conflictingStore struct {
	*store.MemoryStore

	mu          sync.Mutex
	longURLErrs []error
	linkErrs    []error
}

func (s *conflictingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx shortener.Tx) error) error {
	return s.MemoryStore.WithinTx(ctx, func(ctx context.Context, tx shortener.Tx) error {
		return fn(ctx, &conflictingTx{Tx: tx, store: s})
	})
}

func (s *conflictingStore) next(queue *[]error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(*queue) == 0 {
		return nil
	}

	err := (*queue)[0]
	*queue = (*queue)[1:]

	return err
}

type conflictingTx struct {
	shortener.Tx

	store *conflictingStore
}

func (tx *conflictingTx) CreateLongURL(ctx context.Context, longURL *shortener.LongURL) error {
	if err := tx.store.next(&tx.store.longURLErrs); err != nil {
		return err
	}

	return tx.Tx.CreateLongURL(ctx, longURL)
}

func (tx *conflictingTx) CreateShortLink(ctx context.Context, link *shortener.ShortLink) error {
	if err := tx.store.next(&tx.store.linkErrs); err != nil {
		return err
	}

	return tx.Tx.CreateShortLink(ctx, link)
}

func newConflictFixture(t *testing.T, generator shortener.CodeGenerator, maxAttempts int) (*fixture, *conflictingStore) {
	t.Helper()

	if generator == nil {
		generator = shortener.NewGenerator(shortener.DefaultCodeLength)
	}

	s := &conflictingStore{MemoryStore: store.NewMemoryStore()}

	return &fixture{
		store:       s.MemoryStore,
		service:     shortener.NewService(s, generator, nil, maxAttempts, zap.NewNop()),
		resolver:    shortener.NewResolver(s, s, s.AppendVisit, zap.NewNop()),
		invalidator: &mockInvalidator{},
	}, s
}

func (f *fixture) shorten(t *testing.T, caller shortener.Caller, url string) *shortener.ShortLink {
	t.Helper()

	result, err := f.service.Shorten(context.Background(), caller, shortener.ShortenRequest{URL: url})
	require.NoError(t, err)

	return result.Link
}

func (f *fixture) longURLs(t *testing.T) []string {
	t.Helper()

	urls, err := f.store.ListLongURLs(context.Background(), 0)
	require.NoError(t, err)

	names := make([]string, 0, len(urls))
	for _, u := range urls {
		names = append(names, u.Name)
	}

	return names
}

func TestService_Shorten(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller gets a six character code", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		result, err := f.service.Shorten(ctx, shortener.Anonymous(), shortener.ShortenRequest{URL: "https://example.com"})

		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, shortener.MessageShortened, result.Message)
		assert.Len(t, result.Link.Code, 6)
		assert.True(t, result.Link.IsActive)
		assert.False(t, result.Link.Deleted)
		assert.NotZero(t, result.Link.OwnerID, "anonymous links belong to the sentinel user")
	})

	t.Run("honours the requested length", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
			URL:    "https://example.com",
			Length: 10,
		})

		require.NoError(t, err)
		assert.Len(t, result.Link.Code, 10)
	})

	t.Run("rejects lengths beyond the maximum", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		_, err := f.service.Shorten(ctx, shortener.Anonymous(), shortener.ShortenRequest{
			URL:    "https://example.com",
			Length: shortener.MaxCodeLength + 1,
		})

		require.ErrorIs(t, err, shortener.ErrValidation)
		assert.Empty(t, f.longURLs(t))

		result, err := f.service.Shorten(ctx, shortener.Anonymous(), shortener.ShortenRequest{
			URL:    "https://example.com",
			Length: shortener.MaxCodeLength,
		})

		require.NoError(t, err)
		assert.Len(t, result.Link.Code, shortener.MaxCodeLength)
	})

	t.Run("negative lengths fall back to the default", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		result, err := f.service.Shorten(ctx, shortener.Anonymous(), shortener.ShortenRequest{
			URL:    "https://example.com",
			Length: -3,
		})

		require.NoError(t, err)
		assert.Len(t, result.Link.Code, shortener.DefaultCodeLength)
	})

	t.Run("skips generated codes that shadow routes", func(t *testing.T) {
		gen := &sequenceGenerator{codes: []string{"health", "Token", "fresh1"}}
		f := newFixture(t, gen, 0)

		link := f.shorten(t, shortener.Anonymous(), "https://example.com")

		assert.Equal(t, "fresh1", link.Code)
	})

	t.Run("rejects invalid urls", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "example.com"})

		assert.ErrorIs(t, err, shortener.ErrURLValidation)
	})

	t.Run("is idempotent per caller and url", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		first := f.shorten(t, shortener.Registered(alice), "https://example.com/page")

		again, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "HTTPS://EXAMPLE.COM/page/"})

		require.NoError(t, err)
		assert.False(t, again.Created)
		assert.Equal(t, shortener.MessageAlreadyShortened, again.Message)
		assert.Equal(t, first.ID, again.Link.ID)
		assert.Len(t, f.longURLs(t), 1)

		links, err := f.store.ListShortLinks(ctx, shortener.ListQuery{})
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})

	t.Run("shares the long url between owners", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		a := f.shorten(t, shortener.Registered(alice), "https://example.com")
		b := f.shorten(t, shortener.Registered(bob), "https://example.com")

		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, a.Code, b.Code)
		assert.Equal(t, a.LongURLID, b.LongURLID)
		assert.Len(t, f.longURLs(t), 1)
	})

	t.Run("anonymous callers share the sentinel link", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		first := f.shorten(t, shortener.Anonymous(), "https://example.com")
		second := f.shorten(t, shortener.Anonymous(), "https://example.com")

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("retries taken codes", func(t *testing.T) {
		gen := &sequenceGenerator{codes: []string{"taken1", "taken1", "fresh1"}}
		f := newFixture(t, gen, 0)

		_, err := f.service.Shorten(ctx, shortener.Registered(bob), shortener.ShortenRequest{
			URL:          "https://other.example",
			VanityString: "taken1",
		})
		require.NoError(t, err)

		link := f.shorten(t, shortener.Registered(alice), "https://example.com")

		assert.Equal(t, "fresh1", link.Code)
		assert.Equal(t, 3, gen.calls)
	})

	t.Run("fails with a server error when attempts run out", func(t *testing.T) {
		gen := &sequenceGenerator{codes: []string{"taken1"}}
		f := newFixture(t, gen, 5)

		_, err := f.service.Shorten(ctx, shortener.Registered(bob), shortener.ShortenRequest{
			URL:          "https://other.example",
			VanityString: "taken1",
		})
		require.NoError(t, err)

		_, err = f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})

		require.ErrorIs(t, err, shortener.ErrServer)
		assert.Equal(t, 5, gen.calls)
		assert.Len(t, f.longURLs(t), 1, "the failed attempt must not leave a long url behind")
	})

	t.Run("concurrent calls create one link", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		var wg sync.WaitGroup

		ids := make(chan int64, 20)

		for range 20 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})
				if assert.NoError(t, err) {
					ids <- result.Link.ID
				}
			}()
		}

		wg.Wait()
		close(ids)

		unique := map[int64]struct{}{}
		for id := range ids {
			unique[id] = struct{}{}
		}

		assert.Len(t, unique, 1)
	})
}

func TestService_ShortenVanity(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the vanity string as code", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "ex1",
		})

		require.NoError(t, err)
		assert.Equal(t, "ex1", result.Link.Code)
	})

	t.Run("rejects a vanity string already in use", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "ex1",
		})
		require.NoError(t, err)

		_, err = f.service.Shorten(ctx, shortener.Registered(bob), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "ex1",
		})

		require.ErrorIs(t, err, shortener.ErrValidation)
		assert.Contains(t, err.Error(), "already in use")
	})

	t.Run("deleted links keep their code", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "keep",
		})
		require.NoError(t, err)

		_, err = f.service.Delete(ctx, shortener.Registered(alice), result.Link.ID)
		require.NoError(t, err)

		_, err = f.service.Shorten(ctx, shortener.Registered(bob), shortener.ShortenRequest{
			URL:          "https://other.example",
			VanityString: "keep",
		})

		assert.ErrorIs(t, err, shortener.ErrValidation)
	})

	t.Run("anonymous callers cannot use vanity strings", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		_, err := f.service.Shorten(ctx, shortener.Anonymous(), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "mine",
		})

		require.ErrorIs(t, err, shortener.ErrValidation)
		assert.Contains(t, err.Error(), "Only registered users")
	})

	t.Run("rejects characters outside the code alphabet", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		for _, vanity := range []string{"a/b", "a?b", "a#b", "caf\u00e9", "50%"} {
			_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
				URL:          "https://example.com",
				VanityString: vanity,
			})

			assert.ErrorIs(t, err, shortener.ErrValidation, vanity)
		}

		assert.Empty(t, f.longURLs(t))
	})

	t.Run("rejects route segments", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		for _, vanity := range []string{"health", "URLS", "shorten-url", "docs"} {
			_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
				URL:          "https://example.com",
				VanityString: vanity,
			})

			require.ErrorIs(t, err, shortener.ErrValidation, vanity)
			assert.Contains(t, err.Error(), "reserved", vanity)
		}
	})

	t.Run("accepts dashes and underscores", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "my-link_2",
		})

		require.NoError(t, err)
		assert.Equal(t, "my-link_2", result.Link.Code)
	})

	t.Run("rejects whitespace", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		for _, vanity := range []string{"my link", "tab\there", "new\nline"} {
			_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
				URL:          "https://example.com",
				VanityString: vanity,
			})

			assert.ErrorIs(t, err, shortener.ErrValidation, vanity)
		}
	})
}

func TestService_ShortenConstraintRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries when the long url was inserted concurrently", func(t *testing.T) {
		f, s := newConflictFixture(t, nil, 0)
		s.longURLErrs = []error{shortener.ErrLongURLExists}

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})

		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, []string{"https://example.com"}, f.longURLs(t))
	})

	t.Run("retries when the generated code is taken at insert", func(t *testing.T) {
		gen := &sequenceGenerator{codes: []string{"first1", "second"}}
		f, s := newConflictFixture(t, gen, 0)
		s.linkErrs = []error{shortener.ErrCodeTaken}

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})

		require.NoError(t, err)
		assert.Equal(t, "second", result.Link.Code)
		assert.Equal(t, []string{"https://example.com"}, f.longURLs(t), "the rolled back attempt must not leave a row")

		_, err = f.store.LookupByCode(ctx, "first1")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("retries when the owner link appeared concurrently", func(t *testing.T) {
		f, s := newConflictFixture(t, nil, 0)
		s.linkErrs = []error{shortener.ErrLinkExists}

		result, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})

		require.NoError(t, err)
		assert.True(t, result.Created)

		again, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})

		require.NoError(t, err)
		assert.False(t, again.Created)
		assert.Equal(t, result.Link.ID, again.Link.ID)
	})

	t.Run("a vanity string taken at insert is not retried", func(t *testing.T) {
		f, s := newConflictFixture(t, nil, 0)
		s.linkErrs = []error{shortener.ErrCodeTaken}

		_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{
			URL:          "https://example.com",
			VanityString: "mine",
		})

		require.ErrorIs(t, err, shortener.ErrValidation)
		assert.Contains(t, err.Error(), "already in use")
		assert.Empty(t, f.longURLs(t))
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		f, s := newConflictFixture(t, nil, 3)
		s.linkErrs = []error{shortener.ErrLinkExists, shortener.ErrLinkExists, shortener.ErrLinkExists}

		_, err := f.service.Shorten(ctx, shortener.Registered(alice), shortener.ShortenRequest{URL: "https://example.com"})

		require.ErrorIs(t, err, shortener.ErrServer)
		assert.Empty(t, f.longURLs(t))
	})
}

func TestService_UpdateTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("renames a solely owned long url in place", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, shortener.Registered(alice), "http://a.com")

		updated, target, err := f.service.UpdateTarget(ctx, shortener.Registered(alice), link.ID, "http://b.com")

		require.NoError(t, err)
		assert.Equal(t, link.LongURLID, updated.LongURLID)
		assert.Equal(t, "http://b.com", target.Name)
		assert.Equal(t, []string{"http://b.com"}, f.longURLs(t))
		assert.Contains(t, f.invalidator.codes, link.Code)

		resolved, err := f.resolver.ResolveByCode(ctx, link.Code, shortener.Origin{})
		require.NoError(t, err)
		assert.Equal(t, "http://b.com", resolved.Name)
	})

	t.Run("repoints to an existing url owned by someone else", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, shortener.Registered(alice), "http://a.com")
		other := f.shorten(t, shortener.Registered(bob), "http://b.com")

		updated, target, err := f.service.UpdateTarget(ctx, shortener.Registered(alice), link.ID, "http://b.com")

		require.NoError(t, err)
		assert.Equal(t, other.LongURLID, updated.LongURLID)
		assert.Equal(t, other.LongURLID, target.ID)
		assert.Equal(t, []string{"http://b.com"}, f.longURLs(t), "orphaned a.com must be removed")

		owned, err := f.store.ListLongURLs(ctx, alice)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, "http://b.com", owned[0].Name)
	})

	t.Run("creates a new row when the old url is shared", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, shortener.Registered(alice), "http://a.com")
		f.shorten(t, shortener.Registered(bob), "http://a.com")

		updated, target, err := f.service.UpdateTarget(ctx, shortener.Registered(alice), link.ID, "http://c.com")

		require.NoError(t, err)
		assert.NotEqual(t, link.LongURLID, updated.LongURLID)
		assert.Equal(t, "http://c.com", target.Name)
		assert.ElementsMatch(t, []string{"http://a.com", "http://c.com"}, f.longURLs(t))

		owned, err := f.store.ListLongURLs(ctx, alice)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, "http://c.com", owned[0].Name)
	})

	t.Run("rejects a url the caller already shortened", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, shortener.Registered(alice), "http://a.com")
		f.shorten(t, shortener.Registered(alice), "http://b.com")

		_, _, err := f.service.UpdateTarget(ctx, shortener.Registered(alice), link.ID, "http://b.com")

		require.ErrorIs(t, err, shortener.ErrValidation)
		assert.Contains(t, err.Error(), "You already have a shorten url for the proposed long url")
	})

	t.Run("rejects the current url", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, shortener.Registered(alice), "http://a.com")

		_, _, err := f.service.UpdateTarget(ctx, shortener.Registered(alice), link.ID, "HTTP://A.COM")

		assert.ErrorIs(t, err, shortener.ErrValidation)
	})

	t.Run("validates the url before anything else", func(t *testing.T) {
		f := newFixture(t, nil, 0)

		_, _, err := f.service.UpdateTarget(ctx, shortener.Registered(alice), 999, "not a url")

		assert.ErrorIs(t, err, shortener.ErrURLValidation)
	})
}

func TestService_OwnershipBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, 0)
	link := f.shorten(t, shortener.Registered(alice), "https://example.com")
	anon := f.shorten(t, shortener.Anonymous(), "https://anon.example")

	mutations := map[string]func(caller shortener.Caller, id int64) error{
		"activate": func(c shortener.Caller, id int64) error {
			_, err := f.service.Activate(ctx, c, id)

			return err
		},
		"deactivate": func(c shortener.Caller, id int64) error {
			_, err := f.service.Deactivate(ctx, c, id)

			return err
		},
		"delete": func(c shortener.Caller, id int64) error {
			_, err := f.service.Delete(ctx, c, id)

			return err
		},
		"restore": func(c shortener.Caller, id int64) error {
			_, err := f.service.Restore(ctx, c, id)

			return err
		},
		"update target": func(c shortener.Caller, id int64) error {
			_, _, err := f.service.UpdateTarget(ctx, c, id, "https://new.example")

			return err
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, mutate(shortener.Registered(bob), link.ID), shortener.ErrNotFound, "other owner")
			assert.ErrorIs(t, mutate(shortener.Registered(bob), 99999), shortener.ErrNotFound, "missing link")
			assert.ErrorIs(t, mutate(shortener.Anonymous(), anon.ID), shortener.ErrNotFound, "anonymous caller")
		})
	}
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	caller := shortener.Registered(alice)

	t.Run("round trips", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, caller, "https://example.com")

		l, err := f.service.Deactivate(ctx, caller, link.ID)
		require.NoError(t, err)
		assert.False(t, l.IsActive)

		l, err = f.service.Activate(ctx, caller, link.ID)
		require.NoError(t, err)
		assert.True(t, l.IsActive)

		l, err = f.service.Delete(ctx, caller, link.ID)
		require.NoError(t, err)
		assert.True(t, l.Deleted)
		assert.True(t, l.IsActive, "delete leaves the active flag alone")

		l, err = f.service.Restore(ctx, caller, link.ID)
		require.NoError(t, err)
		assert.False(t, l.Deleted)

		assert.Len(t, f.invalidator.codes, 4)
	})

	t.Run("repeated transitions conflict", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		link := f.shorten(t, caller, "https://example.com")

		_, err := f.service.Activate(ctx, caller, link.ID)
		require.ErrorIs(t, err, shortener.ErrConflict)
		assert.Contains(t, err.Error(), "currently active")

		_, err = f.service.Restore(ctx, caller, link.ID)
		assert.ErrorIs(t, err, shortener.ErrConflict)

		_, err = f.service.Deactivate(ctx, caller, link.ID)
		require.NoError(t, err)
		_, err = f.service.Deactivate(ctx, caller, link.ID)
		assert.ErrorIs(t, err, shortener.ErrConflict)

		_, err = f.service.Delete(ctx, caller, link.ID)
		require.NoError(t, err)
		_, err = f.service.Delete(ctx, caller, link.ID)
		assert.ErrorIs(t, err, shortener.ErrConflict)
	})

	t.Run("invalidation failures do not fail the transition", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		f.invalidator.err = errors.New("cache down")
		link := f.shorten(t, caller, "https://example.com")

		_, err := f.service.Deactivate(ctx, caller, link.ID)

		assert.NoError(t, err)
	})
}

func TestShortLink_Transitions(t *testing.T) {
	link := shortener.ShortLink{IsActive: true}

	assert.True(t, link.Visible())
	require.NoError(t, link.Delete())
	assert.False(t, link.Visible())
	require.NoError(t, link.Deactivate())
	require.NoError(t, link.Restore())
	assert.False(t, link.Visible())
	require.NoError(t, link.Activate())
	assert.True(t, link.Visible())
}
