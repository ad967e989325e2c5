package shortener

import "time"

// Caller identifies who is performing an operation: a registered user or the
// anonymous caller. Anonymous maps to a persisted sentinel user only inside the store.
type Caller struct {
	userID    int64
	anonymous bool
}

// Registered returns the identity of a registered user.
func Registered(userID int64) Caller {
	return Caller{userID: userID}
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Caller {
	return Caller{anonymous: true}
}

// IsAnonymous reports whether the caller is unauthenticated.
func (c Caller) IsAnonymous() bool {
	return c.anonymous || c.userID == 0
}

// UserID returns the registered user id and false for anonymous callers.
func (c Caller) UserID() (int64, bool) {
	if c.IsAnonymous() {
		return 0, false
	}

	return c.userID, true
}

// AnonymousUsername is the username of the persisted anonymous sentinel user.
const AnonymousUsername = "Anonymous"

// LongURL is a normalized target address shared by every owner that shortened it.
type LongURL struct {
	ID        int64
	Name      string
	Hash      string
	CreatedAt time.Time
}

// ShortLink maps a short code owned by one user to its current LongURL.
type ShortLink struct {
	ID        int64
	Code      string
	OwnerID   int64
	LongURLID int64
	IsActive  bool
	Deleted   bool
	CreatedAt time.Time
	// Visits is filled by listing queries only.
	Visits int64
}

// Visit is an append-only record of a successful resolution.
type Visit struct {
	ID          int64
	ShortLinkID int64
	Code        string
	VisitedAt   time.Time
	RemoteAddr  string
	RemotePort  string
}

// Origin describes where a resolution request came from.
type Origin struct {
	RemoteAddr string
	RemotePort string
}

// Resolution is a short link together with its target, as read by the resolver.
// Target is nil when the referenced long URL row is missing.
type Resolution struct {
	Link   ShortLink
	Target *LongURL
}
