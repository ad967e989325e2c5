package shortener

import "context"

// Order selects how short link listings are sorted.
type Order int

const (
	// OrderRecent sorts by creation time, newest first.
	OrderRecent Order = iota
	// OrderPopular sorts by visit count, then newest first, then id ascending.
	OrderPopular
)

// ListQuery filters a short link listing. Only active, non-deleted links are returned.
type ListQuery struct {
	// OwnerID restricts the listing to one user when non-zero.
	OwnerID int64
	Order   Order
}

// Tx is the set of operations available inside one store transaction.
// Finders return ErrNotFound when no row matches.
type Tx interface {
	// ResolveOwner maps a caller to a user id, creating the anonymous sentinel on first use.
	ResolveOwner(ctx context.Context, caller Caller) (int64, error)

	LongURL(ctx context.Context, id int64) (*LongURL, error)
	LongURLByHash(ctx context.Context, hash string) (*LongURL, error)
	// CreateLongURL inserts the row and sets its ID. Returns ErrLongURLExists on a hash collision.
	CreateLongURL(ctx context.Context, longURL *LongURL) error
	// RenameLongURL rewrites Name and Hash of an existing row in place.
	RenameLongURL(ctx context.Context, longURL *LongURL) error
	DeleteLongURL(ctx context.Context, id int64) error
	// LongURLInUse reports whether any owner or short link still references the row.
	LongURLInUse(ctx context.Context, id int64) (bool, error)

	AddOwnership(ctx context.Context, longURLID, userID int64) error
	RemoveOwnership(ctx context.Context, longURLID, userID int64) error
	IsOwner(ctx context.Context, longURLID, userID int64) (bool, error)
	CountOwners(ctx context.Context, longURLID int64) (int, error)

	// ShortLink loads a link for update.
	ShortLink(ctx context.Context, id int64) (*ShortLink, error)
	ShortLinkByOwner(ctx context.Context, ownerID, longURLID int64) (*ShortLink, error)
	// CodeExists checks every link, deleted ones included.
	CodeExists(ctx context.Context, code string) (bool, error)
	// CreateShortLink inserts the link and sets its ID. Returns ErrCodeTaken or
	// ErrLinkExists when a unique constraint rejects the row.
	CreateShortLink(ctx context.Context, link *ShortLink) error
	UpdateShortLink(ctx context.Context, link *ShortLink) error
}

// Lookup reads a short link together with its target.
type Lookup interface {
	LookupByCode(ctx context.Context, code string) (*Resolution, error)
	LookupByID(ctx context.Context, id int64) (*Resolution, error)
}

// Catalog serves listing queries.
type Catalog interface {
	ResolveOwner(ctx context.Context, caller Caller) (int64, error)
	ListShortLinks(ctx context.Context, query ListQuery) ([]ShortLink, error)
	// ListLongURLs returns long URLs newest first, restricted to one owner when ownerID is non-zero.
	ListLongURLs(ctx context.Context, ownerID int64) ([]LongURL, error)
}

// VisitStore persists visit records.
type VisitStore interface {
	AppendVisit(ctx context.Context, visit *Visit) error
}

// Store is the relational store backing the shortener.
type Store interface {
	Lookup
	Catalog
	VisitStore

	// WithinTx runs fn in one transaction. fn's error rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Invalidator drops cached resolutions after a link changes.
type Invalidator interface {
	Invalidate(ctx context.Context, link *ShortLink) error
}

// VisitRecorder records a visit. It may be asynchronous and lossy.
type VisitRecorder func(ctx context.Context, visit *Visit) error
