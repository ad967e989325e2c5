package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/serroba/shortlinks/internal/shortener"
)

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) ResolveOwner(ctx context.Context, caller shortener.Caller) (int64, error) {
	if id, ok := caller.UserID(); ok {
		return id, nil
	}

	return anonymousUserID(ctx, t.tx)
}

func (t *postgresTx) LongURL(ctx context.Context, id int64) (*shortener.LongURL, error) {
	return t.longURL(ctx, `id = $1`, id)
}

func (t *postgresTx) LongURLByHash(ctx context.Context, hash string) (*shortener.LongURL, error) {
	return t.longURL(ctx, `url_hash = $1`, hash)
}

func (t *postgresTx) longURL(ctx context.Context, where string, arg any) (*shortener.LongURL, error) {
	var u shortener.LongURL

	err := t.tx.QueryRow(ctx, `SELECT id, url, url_hash, created_at FROM long_urls WHERE `+where, arg).
		Scan(&u.ID, &u.Name, &u.Hash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

func (t *postgresTx) CreateLongURL(ctx context.Context, longURL *shortener.LongURL) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO long_urls (url, url_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, longURL.Name, longURL.Hash, longURL.CreatedAt).Scan(&longURL.ID)

	return uniqueViolation(err)
}

func (t *postgresTx) RenameLongURL(ctx context.Context, longURL *shortener.LongURL) error {
	tag, err := t.tx.Exec(ctx, `UPDATE long_urls SET url = $2, url_hash = $3 WHERE id = $1`,
		longURL.ID, longURL.Name, longURL.Hash)
	if err != nil {
		return uniqueViolation(err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (t *postgresTx) DeleteLongURL(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM long_urls WHERE id = $1`, id)

	return err
}

func (t *postgresTx) LongURLInUse(ctx context.Context, id int64) (bool, error) {
	var inUse bool

	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_long_urls WHERE long_url_id = $1)
			OR EXISTS (SELECT 1 FROM short_links WHERE long_url_id = $1)
	`, id).Scan(&inUse)

	return inUse, err
}

func (t *postgresTx) AddOwnership(ctx context.Context, longURLID, userID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_long_urls (user_id, long_url_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, longURLID)

	return err
}

func (t *postgresTx) RemoveOwnership(ctx context.Context, longURLID, userID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM user_long_urls WHERE user_id = $1 AND long_url_id = $2`,
		userID, longURLID)

	return err
}

func (t *postgresTx) IsOwner(ctx context.Context, longURLID, userID int64) (bool, error) {
	var owned bool

	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_long_urls WHERE user_id = $1 AND long_url_id = $2)
	`, userID, longURLID).Scan(&owned)

	return owned, err
}

func (t *postgresTx) CountOwners(ctx context.Context, longURLID int64) (int, error) {
	var count int

	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM user_long_urls WHERE long_url_id = $1`, longURLID).
		Scan(&count)

	return count, err
}

func (t *postgresTx) ShortLink(ctx context.Context, id int64) (*shortener.ShortLink, error) {
	return t.shortLink(ctx, `s.id = $1 FOR UPDATE`, id)
}

func (t *postgresTx) ShortLinkByOwner(ctx context.Context, ownerID, longURLID int64) (*shortener.ShortLink, error) {
	return t.shortLink(ctx, `s.owner_id = $1 AND s.long_url_id = $2`, ownerID, longURLID)
}

func (t *postgresTx) shortLink(ctx context.Context, where string, args ...any) (*shortener.ShortLink, error) {
	var (
		link      shortener.ShortLink
		longURLID *int64
	)

	err := t.tx.QueryRow(ctx, `SELECT `+linkColumns+` FROM short_links s WHERE `+where, args...).Scan(
		&link.ID,
		&link.Code,
		&link.OwnerID,
		&longURLID,
		&link.IsActive,
		&link.Deleted,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	if longURLID != nil {
		link.LongURLID = *longURLID
	}

	return &link, nil
}

func (t *postgresTx) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM short_links WHERE code = $1)`, code).Scan(&exists)

	return exists, err
}

func (t *postgresTx) CreateShortLink(ctx context.Context, link *shortener.ShortLink) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO short_links (code, owner_id, long_url_id, is_active, deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		link.Code,
		link.OwnerID,
		link.LongURLID,
		link.IsActive,
		link.Deleted,
		link.CreatedAt,
	).Scan(&link.ID)

	return uniqueViolation(err)
}

func (t *postgresTx) UpdateShortLink(ctx context.Context, link *shortener.ShortLink) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE short_links
		SET long_url_id = $2, is_active = $3, deleted = $4
		WHERE id = $1
	`, link.ID, link.LongURLID, link.IsActive, link.Deleted)
	if err != nil {
		return uniqueViolation(err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

var _ shortener.Tx = (*postgresTx)(nil)
