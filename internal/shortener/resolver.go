package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Resolver turns short codes and ids into live targets and serves listings.
type Resolver struct {
	lookup      Lookup
	catalog     Catalog
	recordVisit VisitRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewResolver creates a new resolver. recordVisit may be nil.
func NewResolver(lookup Lookup, catalog Catalog, recordVisit VisitRecorder, logger *zap.Logger) *Resolver {
	return &Resolver{
		lookup:      lookup,
		catalog:     catalog,
		recordVisit: recordVisit,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ResolveByCode returns the target of the link with the given code.
func (r *Resolver) ResolveByCode(ctx context.Context, code string, origin Origin) (*LongURL, error) {
	resolution, err := r.lookup.LookupByCode(ctx, code)

	return r.resolve(ctx, resolution, err, origin)
}

// ResolveByID returns the target of the link with the given id.
func (r *Resolver) ResolveByID(ctx context.Context, id int64, origin Origin) (*LongURL, error) {
	resolution, err := r.lookup.LookupByID(ctx, id)

	return r.resolve(ctx, resolution, err, origin)
}

func (r *Resolver) resolve(ctx context.Context, resolution *Resolution, err error, origin Origin) (*LongURL, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("Requested resource was not found")
		}

		return nil, classify(err)
	}

	link := resolution.Link

	if link.Deleted {
		return nil, conflictError("The shorten url has been deleted", StatusDeleted)
	}

	if !link.IsActive {
		return nil, conflictError("The shorten url has been deactivated", StatusInactive)
	}

	if resolution.Target == nil {
		return nil, notFoundError("Requested resource was not found")
	}

	r.visit(ctx, &link, origin)

	return resolution.Target, nil
}

func (r *Resolver) visit(ctx context.Context, link *ShortLink, origin Origin) {
	if r.recordVisit == nil {
		return
	}

	visit := &Visit{
		ShortLinkID: link.ID,
		Code:        link.Code,
		VisitedAt:   r.now(),
		RemoteAddr:  origin.RemoteAddr,
		RemotePort:  origin.RemotePort,
	}

	if err := r.recordVisit(ctx, visit); err != nil {
		r.logger.Warn("failed to record visit",
			zap.String("code", link.Code),
			zap.Error(err),
		)
	}
}

// AllByRecency lists every visible link, newest first.
func (r *Resolver) AllByRecency(ctx context.Context) ([]ShortLink, error) {
	return r.list(ctx, ListQuery{Order: OrderRecent})
}

// AllByPopularity lists every visible link, most visited first.
func (r *Resolver) AllByPopularity(ctx context.Context) ([]ShortLink, error) {
	return r.list(ctx, ListQuery{Order: OrderPopular})
}

// OwnedBy lists the caller's visible links in the given order.
func (r *Resolver) OwnedBy(ctx context.Context, caller Caller, order Order) ([]ShortLink, error) {
	ownerID, err := r.catalog.ResolveOwner(ctx, caller)
	if err != nil {
		return nil, classify(err)
	}

	return r.list(ctx, ListQuery{OwnerID: ownerID, Order: order})
}

// AllLongURLs lists every long URL, newest first.
func (r *Resolver) AllLongURLs(ctx context.Context) ([]LongURL, error) {
	urls, err := r.catalog.ListLongURLs(ctx, 0)

	return urls, classify(err)
}

// LongURLsOwnedBy lists the long URLs the caller has shortened, newest first.
func (r *Resolver) LongURLsOwnedBy(ctx context.Context, caller Caller) ([]LongURL, error) {
	ownerID, err := r.catalog.ResolveOwner(ctx, caller)
	if err != nil {
		return nil, classify(err)
	}

	urls, err := r.catalog.ListLongURLs(ctx, ownerID)

	return urls, classify(err)
}

func (r *Resolver) list(ctx context.Context, query ListQuery) ([]ShortLink, error) {
	links, err := r.catalog.ListShortLinks(ctx, query)

	return links, classify(err)
}
