package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/shortener"
)

type ownership struct {
	longURLID int64
	userID    int64
}

// MemoryStore is an in-memory implementation of shortener.Store and
// accounts.Repository. Transactions are serialized by a single lock.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[int64]*accounts.User
	longURLs   map[int64]*shortener.LongURL
	links      map[int64]*shortener.ShortLink
	owners     map[ownership]struct{}
	visits     []shortener.Visit
	hashes     map[string]int64 // url hash -> long url id
	codes      map[string]int64 // code -> link id
	ownerLinks map[ownership]int64

	nextUserID    int64
	nextLongURLID int64
	nextLinkID    int64
	nextVisitID   int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]*accounts.User),
		longURLs:   make(map[int64]*shortener.LongURL),
		links:      make(map[int64]*shortener.ShortLink),
		owners:     make(map[ownership]struct{}),
		hashes:     make(map[string]int64),
		codes:      make(map[string]int64),
		ownerLinks: make(map[ownership]int64),
	}
}

// WithinTx runs fn under the store lock and undoes its writes if it fails.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx shortener.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m}

	if err := fn(ctx, tx); err != nil {
		tx.rollback()

		return err
	}

	return nil
}

func (m *MemoryStore) ResolveOwner(_ context.Context, caller shortener.Caller) (int64, error) {
	if id, ok := caller.UserID(); ok {
		return id, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.anonymousUser(nil), nil
}

// anonymousUser returns the sentinel user id, creating the row when missing.
func (m *MemoryStore) anonymousUser(tx *memoryTx) int64 {
	for id, u := range m.users {
		if u.Username == shortener.AnonymousUsername {
			return id
		}
	}

	m.nextUserID++
	id := m.nextUserID
	m.users[id] = &accounts.User{
		ID:        id,
		Username:  shortener.AnonymousUsername,
		FirstName: "anonymous",
		LastName:  "anonymous",
	}

	if tx != nil {
		tx.onRollback(func() { delete(m.users, id) })
	}

	return id
}

func (m *MemoryStore) LookupByCode(_ context.Context, code string) (*shortener.Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codes[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return m.resolution(id)
}

func (m *MemoryStore) LookupByID(_ context.Context, id int64) (*shortener.Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.resolution(id)
}

func (m *MemoryStore) resolution(linkID int64) (*shortener.Resolution, error) {
	link, ok := m.links[linkID]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	res := &shortener.Resolution{Link: *link}

	if target, ok := m.longURLs[link.LongURLID]; ok {
		t := *target
		res.Target = &t
	}

	return res, nil
}

func (m *MemoryStore) ListShortLinks(_ context.Context, query shortener.ListQuery) ([]shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int64]int64, len(m.links))
	for _, v := range m.visits {
		counts[v.ShortLinkID]++
	}

	links := make([]shortener.ShortLink, 0, len(m.links))

	for _, link := range m.links {
		if !link.Visible() {
			continue
		}

		if query.OwnerID != 0 && link.OwnerID != query.OwnerID {
			continue
		}

		l := *link
		l.Visits = counts[l.ID]
		links = append(links, l)
	}

	slices.SortFunc(links, func(a, b shortener.ShortLink) int {
		if query.Order == shortener.OrderPopular {
			if c := cmp.Compare(b.Visits, a.Visits); c != 0 {
				return c
			}
		}

		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return links, nil
}

func (m *MemoryStore) ListLongURLs(_ context.Context, ownerID int64) ([]shortener.LongURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	urls := make([]shortener.LongURL, 0, len(m.longURLs))

	for id, u := range m.longURLs {
		if ownerID != 0 {
			if _, ok := m.owners[ownership{longURLID: id, userID: ownerID}]; !ok {
				continue
			}
		}

		urls = append(urls, *u)
	}

	slices.SortFunc(urls, func(a, b shortener.LongURL) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return urls, nil
}

func (m *MemoryStore) AppendVisit(_ context.Context, visit *shortener.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[visit.ShortLinkID]; !ok {
		return shortener.ErrNotFound
	}

	m.nextVisitID++
	visit.ID = m.nextVisitID
	m.visits = append(m.visits, *visit)

	return nil
}

// Visits returns the visit records of a link in insertion order.
func (m *MemoryStore) Visits(linkID int64) []shortener.Visit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shortener.Visit

	for _, v := range m.visits {
		if v.ShortLinkID == linkID {
			out = append(out, v)
		}
	}

	return out
}

func (m *MemoryStore) CreateUser(_ context.Context, user *accounts.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, user.Username) {
			return accounts.ErrUsernameTaken
		}

		if u.Email != "" && strings.EqualFold(u.Email, user.Email) {
			return accounts.ErrEmailTaken
		}
	}

	m.nextUserID++
	user.ID = m.nextUserID
	stored := *user
	m.users[user.ID] = &stored

	return nil
}

func (m *MemoryStore) UserByID(_ context.Context, id int64) (*accounts.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}

	user := *u

	return &user, nil
}

func (m *MemoryStore) UserByUsername(_ context.Context, username string) (*accounts.User, error) {
	return m.findUser(func(u *accounts.User) bool { return u.Username == username })
}

func (m *MemoryStore) UserByEmail(_ context.Context, email string) (*accounts.User, error) {
	return m.findUser(func(u *accounts.User) bool { return u.Email != "" && strings.EqualFold(u.Email, email) })
}

func (m *MemoryStore) findUser(match func(*accounts.User) bool) (*accounts.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			user := *u

			return &user, nil
		}
	}

	return nil, accounts.ErrNotFound
}

// Compile-time checks.
var (
	_ shortener.Store     = (*MemoryStore)(nil)
	_ accounts.Repository = (*MemoryStore)(nil)
)
