package store

import (
	"context"

	"github.com/serroba/shortlinks/internal/shortener"
)

// memoryTx operates on the store maps while the store lock is held. Every
// write registers an undo step so a failed transaction leaves no trace.
type memoryTx struct {
	store *MemoryStore
	undo  []func()
}

func (t *memoryTx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}

	t.undo = nil
}

func (t *memoryTx) ResolveOwner(_ context.Context, caller shortener.Caller) (int64, error) {
	if id, ok := caller.UserID(); ok {
		return id, nil
	}

	return t.store.anonymousUser(t), nil
}

func (t *memoryTx) LongURL(_ context.Context, id int64) (*shortener.LongURL, error) {
	u, ok := t.store.longURLs[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	longURL := *u

	return &longURL, nil
}

func (t *memoryTx) LongURLByHash(ctx context.Context, hash string) (*shortener.LongURL, error) {
	id, ok := t.store.hashes[hash]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return t.LongURL(ctx, id)
}

func (t *memoryTx) CreateLongURL(_ context.Context, longURL *shortener.LongURL) error {
	m := t.store

	if _, ok := m.hashes[longURL.Hash]; ok {
		return shortener.ErrLongURLExists
	}

	m.nextLongURLID++
	longURL.ID = m.nextLongURLID

	stored := *longURL
	m.longURLs[stored.ID] = &stored
	m.hashes[stored.Hash] = stored.ID

	t.onRollback(func() {
		delete(m.longURLs, stored.ID)
		delete(m.hashes, stored.Hash)
	})

	return nil
}

func (t *memoryTx) RenameLongURL(_ context.Context, longURL *shortener.LongURL) error {
	m := t.store

	prev, ok := m.longURLs[longURL.ID]
	if !ok {
		return shortener.ErrNotFound
	}

	if id, taken := m.hashes[longURL.Hash]; taken && id != longURL.ID {
		return shortener.ErrLongURLExists
	}

	old := *prev
	delete(m.hashes, old.Hash)

	prev.Name = longURL.Name
	prev.Hash = longURL.Hash
	m.hashes[prev.Hash] = prev.ID

	t.onRollback(func() {
		delete(m.hashes, prev.Hash)
		*prev = old
		m.hashes[old.Hash] = old.ID
	})

	return nil
}

func (t *memoryTx) DeleteLongURL(_ context.Context, id int64) error {
	m := t.store

	prev, ok := m.longURLs[id]
	if !ok {
		return nil
	}

	delete(m.longURLs, id)
	delete(m.hashes, prev.Hash)

	t.onRollback(func() {
		m.longURLs[id] = prev
		m.hashes[prev.Hash] = id
	})

	return nil
}

func (t *memoryTx) LongURLInUse(_ context.Context, id int64) (bool, error) {
	for o := range t.store.owners {
		if o.longURLID == id {
			return true, nil
		}
	}

	for _, link := range t.store.links {
		if link.LongURLID == id {
			return true, nil
		}
	}

	return false, nil
}

func (t *memoryTx) AddOwnership(_ context.Context, longURLID, userID int64) error {
	key := ownership{longURLID: longURLID, userID: userID}

	if _, ok := t.store.owners[key]; ok {
		return nil
	}

	t.store.owners[key] = struct{}{}
	t.onRollback(func() { delete(t.store.owners, key) })

	return nil
}

func (t *memoryTx) RemoveOwnership(_ context.Context, longURLID, userID int64) error {
	key := ownership{longURLID: longURLID, userID: userID}

	if _, ok := t.store.owners[key]; !ok {
		return nil
	}

	delete(t.store.owners, key)
	t.onRollback(func() { t.store.owners[key] = struct{}{} })

	return nil
}

func (t *memoryTx) IsOwner(_ context.Context, longURLID, userID int64) (bool, error) {
	_, ok := t.store.owners[ownership{longURLID: longURLID, userID: userID}]

	return ok, nil
}

func (t *memoryTx) CountOwners(_ context.Context, longURLID int64) (int, error) {
	count := 0

	for o := range t.store.owners {
		if o.longURLID == longURLID {
			count++
		}
	}

	return count, nil
}

func (t *memoryTx) ShortLink(_ context.Context, id int64) (*shortener.ShortLink, error) {
	l, ok := t.store.links[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	link := *l

	return &link, nil
}

func (t *memoryTx) ShortLinkByOwner(ctx context.Context, ownerID, longURLID int64) (*shortener.ShortLink, error) {
	id, ok := t.store.ownerLinks[ownership{longURLID: longURLID, userID: ownerID}]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return t.ShortLink(ctx, id)
}

func (t *memoryTx) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := t.store.codes[code]

	return ok, nil
}

func (t *memoryTx) CreateShortLink(_ context.Context, link *shortener.ShortLink) error {
	m := t.store

	if _, ok := m.codes[link.Code]; ok {
		return shortener.ErrCodeTaken
	}

	key := ownership{longURLID: link.LongURLID, userID: link.OwnerID}
	if _, ok := m.ownerLinks[key]; ok {
		return shortener.ErrLinkExists
	}

	m.nextLinkID++
	link.ID = m.nextLinkID

	stored := *link
	m.links[stored.ID] = &stored
	m.codes[stored.Code] = stored.ID
	m.ownerLinks[key] = stored.ID

	t.onRollback(func() {
		delete(m.links, stored.ID)
		delete(m.codes, stored.Code)
		delete(m.ownerLinks, key)
	})

	return nil
}

func (t *memoryTx) UpdateShortLink(_ context.Context, link *shortener.ShortLink) error {
	m := t.store

	prev, ok := m.links[link.ID]
	if !ok {
		return shortener.ErrNotFound
	}

	oldKey := ownership{longURLID: prev.LongURLID, userID: prev.OwnerID}
	newKey := ownership{longURLID: link.LongURLID, userID: link.OwnerID}

	if id, taken := m.ownerLinks[newKey]; taken && id != link.ID {
		return shortener.ErrLinkExists
	}

	old := *prev

	*prev = *link
	prev.Visits = 0

	delete(m.ownerLinks, oldKey)
	m.ownerLinks[newKey] = link.ID

	t.onRollback(func() {
		delete(m.ownerLinks, newKey)
		*prev = old
		m.ownerLinks[oldKey] = old.ID
	})

	return nil
}

var _ shortener.Tx = (*memoryTx)(nil)
