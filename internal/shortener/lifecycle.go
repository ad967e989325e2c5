package shortener

import (
	"context"
	"errors"
)

// Lifecycle messages returned on successful transitions.
const (
	MessageActivated   = "Successfully activated"
	MessageDeactivated = "Successfully deactivated"
	MessageDeleted     = "Successfully deleted"
	MessageRestored    = "Successfully restored"
)

// Activate moves an inactive link to active.
func (l *ShortLink) Activate() error {
	if l.IsActive {
		return conflictError("The shorten url is currently active", "")
	}

	l.IsActive = true

	return nil
}

// Deactivate moves an active link to inactive.
func (l *ShortLink) Deactivate() error {
	if !l.IsActive {
		return conflictError("The shorten url is currently not active", "")
	}

	l.IsActive = false

	return nil
}

// Delete soft-deletes the link. The active flag is left untouched.
func (l *ShortLink) Delete() error {
	if l.Deleted {
		return conflictError("The shorten url has already been deleted", "")
	}

	l.Deleted = true

	return nil
}

// Restore reverts a soft delete.
func (l *ShortLink) Restore() error {
	if !l.Deleted {
		return conflictError("The shorten url is not deleted", "")
	}

	l.Deleted = false

	return nil
}

// Visible reports whether the link may appear in listings and resolve.
func (l *ShortLink) Visible() bool {
	return l.IsActive && !l.Deleted
}

// Activate re-enables a link owned by the caller.
func (s *Service) Activate(ctx context.Context, caller Caller, linkID int64) (*ShortLink, error) {
	return s.transition(ctx, caller, linkID, (*ShortLink).Activate)
}

// Deactivate disables a link owned by the caller.
func (s *Service) Deactivate(ctx context.Context, caller Caller, linkID int64) (*ShortLink, error) {
	return s.transition(ctx, caller, linkID, (*ShortLink).Deactivate)
}

// Delete soft-deletes a link owned by the caller.
func (s *Service) Delete(ctx context.Context, caller Caller, linkID int64) (*ShortLink, error) {
	return s.transition(ctx, caller, linkID, (*ShortLink).Delete)
}

// Restore reverts the soft delete of a link owned by the caller.
func (s *Service) Restore(ctx context.Context, caller Caller, linkID int64) (*ShortLink, error) {
	return s.transition(ctx, caller, linkID, (*ShortLink).Restore)
}

func (s *Service) transition(
	ctx context.Context,
	caller Caller,
	linkID int64,
	apply func(*ShortLink) error,
) (*ShortLink, error) {
	var link *ShortLink

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error

		link, err = s.ownedLink(ctx, tx, caller, linkID)
		if err != nil {
			return err
		}

		if err = apply(link); err != nil {
			return err
		}

		return tx.UpdateShortLink(ctx, link)
	})
	if err != nil {
		return nil, classify(err)
	}

	s.invalidate(ctx, link)

	return link, nil
}

// ownedLink loads a link and confirms the caller owns it. Missing links and
// links owned by someone else are reported identically.
func (s *Service) ownedLink(ctx context.Context, tx Tx, caller Caller, linkID int64) (*ShortLink, error) {
	link, err := tx.ShortLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("Requested resource was not found")
		}

		return nil, err
	}

	if !confirmOwner(caller, link) {
		return nil, notFoundError("Requested resource was not found")
	}

	return link, nil
}

func confirmOwner(caller Caller, link *ShortLink) bool {
	userID, ok := caller.UserID()

	return ok && userID == link.OwnerID
}
