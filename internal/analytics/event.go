package analytics

import "time"

// Topics events are published to.
const (
	TopicLinkCreated = "links.created"
	TopicLinkVisited = "links.visited"
)

// LinkCreatedEvent is emitted when a short link is created.
type LinkCreatedEvent struct {
	LinkID    int64     `json:"linkId"`
	Code      string    `json:"code"`
	OwnerID   int64     `json:"ownerId"`
	LongURL   string    `json:"longUrl"`
	Vanity    bool      `json:"vanity"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkVisitedEvent is emitted each time a link resolves to its target.
type LinkVisitedEvent struct {
	LinkID     int64     `json:"linkId"`
	Code       string    `json:"code"`
	VisitedAt  time.Time `json:"visitedAt"`
	RemoteAddr string    `json:"remoteAddr"`
	RemotePort string    `json:"remotePort"`
}
