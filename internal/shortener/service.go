package shortener

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// DefaultMaxCodeAttempts caps code generation and conflict retries per request.
const DefaultMaxCodeAttempts = 1000

// reservedCodes are first path segments served by other routes, so a link
// named after one of them could never be resolved.
var reservedCodes = map[string]struct{}{
	"docs":         {},
	"schemas":      {},
	"openapi":      {},
	"health":       {},
	"register":     {},
	"token":        {},
	"user":         {},
	"url":          {},
	"urls":         {},
	"shorten-url":  {},
	"shorten-urls": {},
}

var vanityPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsReservedCode reports whether code collides with a route segment.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]

	return ok
}

// Shorten outcome messages.
const (
	MessageShortened        = "Url successfully shortened"
	MessageAlreadyShortened = "Shorten URL already exists for this long URL"
)

// ShortenRequest is the input of Service.Shorten.
type ShortenRequest struct {
	URL          string
	VanityString string
	// Length of a generated code. Non-positive means the generator default.
	Length int
}

// ShortenResult is the outcome of Service.Shorten.
type ShortenResult struct {
	Message string
	Link    *ShortLink
	// Created is false when an existing link was returned.
	Created bool
}

// Service creates and updates short links and enforces their lifecycle.
type Service struct {
	store       Store
	generator   CodeGenerator
	invalidator Invalidator
	logger      *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// NewService creates a new link service. invalidator may be nil.
func NewService(
	store Store,
	generator CodeGenerator,
	invalidator Invalidator,
	maxAttempts int,
	logger *zap.Logger,
) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCodeAttempts
	}

	return &Service{
		store:       store,
		generator:   generator,
		invalidator: invalidator,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Shorten returns the caller's short link for req.URL, creating the long URL
// row, the ownership and the link as needed.
func (s *Service) Shorten(ctx context.Context, caller Caller, req ShortenRequest) (*ShortenResult, error) {
	normalized, err := ValidateURL(req.URL)
	if err != nil {
		return nil, err
	}

	if err = validateVanity(caller, req.VanityString); err != nil {
		return nil, err
	}

	if req.Length > MaxCodeLength {
		return nil, validationError(fmt.Sprintf("Shorten url length can't be greater than %d", MaxCodeLength))
	}

	attempts := 0

	for {
		var result *ShortenResult

		err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error

			result, err = s.shorten(ctx, tx, caller, normalized, req, &attempts)

			return err
		})

		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, ErrCodeTaken) && req.VanityString != "":
			return nil, vanityTakenError(req.VanityString)
		case errors.Is(err, ErrCodeTaken), errors.Is(err, ErrLinkExists), errors.Is(err, ErrLongURLExists):
			// Lost a race with a concurrent request; the next attempt observes its rows.
			attempts++
			s.logger.Debug("retrying shorten after conflict",
				zap.Int("attempt", attempts),
				zap.Error(err),
			)

			if attempts >= s.maxAttempts {
				return nil, serverError("Could not allocate a unique short url", err)
			}
		default:
			return nil, classify(err)
		}
	}
}

func (s *Service) shorten(
	ctx context.Context,
	tx Tx,
	caller Caller,
	normalized string,
	req ShortenRequest,
	attempts *int,
) (*ShortenResult, error) {
	ownerID, err := tx.ResolveOwner(ctx, caller)
	if err != nil {
		return nil, err
	}

	if req.VanityString != "" {
		taken, err := tx.CodeExists(ctx, req.VanityString)
		if err != nil {
			return nil, err
		}

		if taken {
			return nil, vanityTakenError(req.VanityString)
		}
	}

	longURL, err := tx.LongURLByHash(ctx, HashURL(normalized))

	switch {
	case err == nil:
		owned, err := tx.IsOwner(ctx, longURL.ID, ownerID)
		if err != nil {
			return nil, err
		}

		if owned {
			existing, err := tx.ShortLinkByOwner(ctx, ownerID, longURL.ID)
			if err == nil {
				return &ShortenResult{Message: MessageAlreadyShortened, Link: existing}, nil
			}

			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		} else if err = tx.AddOwnership(ctx, longURL.ID, ownerID); err != nil {
			return nil, err
		}
	case errors.Is(err, ErrNotFound):
		longURL = &LongURL{
			Name:      normalized,
			Hash:      HashURL(normalized),
			CreatedAt: s.now(),
		}

		if err = tx.CreateLongURL(ctx, longURL); err != nil {
			return nil, err
		}

		if err = tx.AddOwnership(ctx, longURL.ID, ownerID); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	code := req.VanityString
	if code == "" {
		if code, err = s.freeCode(ctx, tx, req.Length, attempts); err != nil {
			return nil, err
		}
	}

	link := &ShortLink{
		Code:      code,
		OwnerID:   ownerID,
		LongURLID: longURL.ID,
		IsActive:  true,
		Deleted:   false,
		CreatedAt: s.now(),
	}

	if err = tx.CreateShortLink(ctx, link); err != nil {
		return nil, err
	}

	return &ShortenResult{Message: MessageShortened, Link: link, Created: true}, nil
}

// freeCode generates candidates until one is not used by any link. The final
// insert still relies on the unique constraint, since another transaction may
// take the same code in between.
func (s *Service) freeCode(ctx context.Context, tx Tx, length int, attempts *int) (string, error) {
	for ; *attempts < s.maxAttempts; *attempts++ {
		code, err := s.generator.Generate(length)
		if err != nil {
			return "", serverError("Could not generate a short url", err)
		}

		taken, err := tx.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}

		if !taken && !IsReservedCode(code) {
			return code, nil
		}
	}

	return "", serverError("Could not allocate a unique short url", nil)
}

// UpdateTarget re-points a link owned by the caller to newURL.
func (s *Service) UpdateTarget(
	ctx context.Context,
	caller Caller,
	linkID int64,
	newURL string,
) (*ShortLink, *LongURL, error) {
	normalized, err := ValidateURL(newURL)
	if err != nil {
		return nil, nil, err
	}

	var (
		link   *ShortLink
		target *LongURL
	)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error

		link, err = s.ownedLink(ctx, tx, caller, linkID)
		if err != nil {
			return err
		}

		target, err = s.retarget(ctx, tx, link, normalized)

		return err
	})
	if err != nil {
		if errors.Is(err, ErrLongURLExists) {
			return nil, nil, conflictError("The proposed long url was shortened concurrently. Please retry", "")
		}

		return nil, nil, classify(err)
	}

	s.invalidate(ctx, link)

	return link, target, nil
}

func (s *Service) retarget(ctx context.Context, tx Tx, link *ShortLink, normalized string) (*LongURL, error) {
	ownerID := link.OwnerID

	current, err := tx.LongURL(ctx, link.LongURLID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("Requested resource was not found")
		}

		return nil, err
	}

	hash := HashURL(normalized)

	existing, err := tx.LongURLByHash(ctx, hash)

	switch {
	case err == nil:
		owned, err := tx.IsOwner(ctx, existing.ID, ownerID)
		if err != nil {
			return nil, err
		}

		if owned || existing.ID == current.ID {
			return nil, validationError("You already have a shorten url for the proposed long url. Therefore the update failed")
		}

		if err = s.repoint(ctx, tx, link, current, existing); err != nil {
			return nil, err
		}

		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	soleOwner, err := s.soleOwner(ctx, tx, current.ID, ownerID)
	if err != nil {
		return nil, err
	}

	if soleOwner {
		current.Name = normalized
		current.Hash = hash

		if err = tx.RenameLongURL(ctx, current); err != nil {
			return nil, err
		}

		return current, nil
	}

	created := &LongURL{
		Name:      normalized,
		Hash:      hash,
		CreatedAt: s.now(),
	}

	if err = tx.CreateLongURL(ctx, created); err != nil {
		return nil, err
	}

	if err = s.repoint(ctx, tx, link, current, created); err != nil {
		return nil, err
	}

	return created, nil
}

// repoint moves link and its owner's ownership from one long URL to another,
// deleting the old row once nothing references it.
func (s *Service) repoint(ctx context.Context, tx Tx, link *ShortLink, from, to *LongURL) error {
	if err := tx.AddOwnership(ctx, to.ID, link.OwnerID); err != nil {
		return err
	}

	link.LongURLID = to.ID
	if err := tx.UpdateShortLink(ctx, link); err != nil {
		return err
	}

	if err := tx.RemoveOwnership(ctx, from.ID, link.OwnerID); err != nil {
		return err
	}

	inUse, err := tx.LongURLInUse(ctx, from.ID)
	if err != nil {
		return err
	}

	if inUse {
		return nil
	}

	s.logger.Debug("deleting orphaned long url", zap.Int64("long_url_id", from.ID))

	return tx.DeleteLongURL(ctx, from.ID)
}

func (s *Service) soleOwner(ctx context.Context, tx Tx, longURLID, userID int64) (bool, error) {
	count, err := tx.CountOwners(ctx, longURLID)
	if err != nil || count != 1 {
		return false, err
	}

	return tx.IsOwner(ctx, longURLID, userID)
}

func (s *Service) invalidate(ctx context.Context, link *ShortLink) {
	if s.invalidator == nil || link == nil {
		return
	}

	if err := s.invalidator.Invalidate(ctx, link); err != nil {
		s.logger.Warn("failed to invalidate cached link",
			zap.String("code", link.Code),
			zap.Error(err),
		)
	}
}

func validateVanity(caller Caller, vanity string) error {
	if vanity == "" {
		return nil
	}

	if caller.IsAnonymous() {
		return validationError("Only registered users are liable to use vanity string")
	}

	if strings.IndexFunc(vanity, unicode.IsSpace) >= 0 {
		return validationError("Vanity string cannot contain spaces")
	}

	if len(vanity) > MaxCodeLength {
		return validationError(fmt.Sprintf("Vanity string can't be longer than %d characters", MaxCodeLength))
	}

	if !vanityPattern.MatchString(vanity) {
		return validationError("Vanity string may only contain letters, digits, '-' and '_'")
	}

	if IsReservedCode(vanity) {
		return validationError(fmt.Sprintf("The vanity string '%s' is reserved. Please input another vanity string", vanity))
	}

	return nil
}

func vanityTakenError(vanity string) error {
	return validationError(fmt.Sprintf("The vanity string '%s' is already in use. Please input another vanity string", vanity))
}
