package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/shortener"
)

const pgErrCodeUniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	email         TEXT,
	password_hash BYTEA,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE users ALTER COLUMN email DROP NOT NULL;
UPDATE users SET email = NULL WHERE username = 'Anonymous' AND password_hash IS NULL AND email = 'anonymous';
CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (lower(username));
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));

CREATE TABLE IF NOT EXISTS long_urls (
	id         BIGSERIAL PRIMARY KEY,
	url        TEXT NOT NULL,
	url_hash   TEXT NOT NULL CONSTRAINT long_urls_url_hash_key UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_long_urls (
	user_id     BIGINT NOT NULL REFERENCES users (id),
	long_url_id BIGINT NOT NULL REFERENCES long_urls (id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, long_url_id)
);

CREATE TABLE IF NOT EXISTS short_links (
	id          BIGSERIAL PRIMARY KEY,
	code        TEXT NOT NULL CONSTRAINT short_links_code_key UNIQUE,
	owner_id    BIGINT NOT NULL REFERENCES users (id),
	long_url_id BIGINT REFERENCES long_urls (id) ON DELETE SET NULL,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	deleted     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL,
	CONSTRAINT short_links_owner_long_url_key UNIQUE (owner_id, long_url_id)
);

CREATE TABLE IF NOT EXISTS visits (
	id            BIGSERIAL PRIMARY KEY,
	short_link_id BIGINT NOT NULL REFERENCES short_links (id) ON DELETE CASCADE,
	code          TEXT NOT NULL,
	visited_at    TIMESTAMPTZ NOT NULL,
	remote_addr   TEXT NOT NULL DEFAULT '',
	remote_port   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS visits_short_link_id_idx ON visits (short_link_id);
`

const linkColumns = `s.id, s.code, s.owner_id, s.long_url_id, s.is_active, s.deleted, s.created_at`

// PostgresStore is a PostgreSQL implementation of shortener.Store and accounts.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables and indexes when they do not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// WithinTx runs fn in a read-committed transaction. Unique constraints settle
// races between concurrent transactions.
func (p *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx shortener.Tx) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(ctx, &postgresTx{tx: tx})
	})
}

func (p *PostgresStore) ResolveOwner(ctx context.Context, caller shortener.Caller) (int64, error) {
	if id, ok := caller.UserID(); ok {
		return id, nil
	}

	return anonymousUserID(ctx, p.pool)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// anonymousUserID returns the sentinel owner of anonymous links, inserting it on
// first use. The sentinel has no email, so only the username index can conflict.
func anonymousUserID(ctx context.Context, q querier) (int64, error) {
	_, err := q.Exec(ctx, `
		INSERT INTO users (username, first_name, last_name)
		VALUES ($1, 'anonymous', 'anonymous')
		ON CONFLICT ((lower(username))) DO NOTHING
	`, shortener.AnonymousUsername)
	if err != nil {
		return 0, fmt.Errorf("insert anonymous user: %w", err)
	}

	var id int64

	err = q.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, shortener.AnonymousUsername).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("anonymous user %q is shadowed by another account: %w", shortener.AnonymousUsername, err)
	}

	return id, err
}

func (p *PostgresStore) LookupByCode(ctx context.Context, code string) (*shortener.Resolution, error) {
	return p.lookup(ctx, `s.code = $1`, code)
}

func (p *PostgresStore) LookupByID(ctx context.Context, id int64) (*shortener.Resolution, error) {
	return p.lookup(ctx, `s.id = $1`, id)
}

func (p *PostgresStore) lookup(ctx context.Context, where string, arg any) (*shortener.Resolution, error) {
	query := `
		SELECT ` + linkColumns + `, l.id, l.url, l.url_hash, l.created_at
		FROM short_links s
		LEFT JOIN long_urls l ON l.id = s.long_url_id
		WHERE ` + where

	var (
		res       shortener.Resolution
		longURLID *int64
		targetID  *int64
		name      *string
		hash      *string
		targetAt  *time.Time
	)

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&res.Link.ID,
		&res.Link.Code,
		&res.Link.OwnerID,
		&longURLID,
		&res.Link.IsActive,
		&res.Link.Deleted,
		&res.Link.CreatedAt,
		&targetID,
		&name,
		&hash,
		&targetAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	if longURLID != nil {
		res.Link.LongURLID = *longURLID
	}

	if targetID != nil && name != nil && hash != nil && targetAt != nil {
		res.Target = &shortener.LongURL{
			ID:        *targetID,
			Name:      *name,
			Hash:      *hash,
			CreatedAt: *targetAt,
		}
	}

	return &res, nil
}

func (p *PostgresStore) ListShortLinks(ctx context.Context, query shortener.ListQuery) ([]shortener.ShortLink, error) {
	order := `s.created_at DESC, s.id ASC`
	if query.Order == shortener.OrderPopular {
		order = `visits DESC, s.created_at DESC, s.id ASC`
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+linkColumns+`, COUNT(v.id) AS visits
		FROM short_links s
		LEFT JOIN visits v ON v.short_link_id = s.id
		WHERE s.is_active AND NOT s.deleted AND ($1::BIGINT = 0 OR s.owner_id = $1)
		GROUP BY s.id
		ORDER BY `+order, query.OwnerID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (shortener.ShortLink, error) {
		var (
			link      shortener.ShortLink
			longURLID *int64
		)

		err := row.Scan(
			&link.ID,
			&link.Code,
			&link.OwnerID,
			&longURLID,
			&link.IsActive,
			&link.Deleted,
			&link.CreatedAt,
			&link.Visits,
		)
		if longURLID != nil {
			link.LongURLID = *longURLID
		}

		return link, err
	})
}

func (p *PostgresStore) ListLongURLs(ctx context.Context, ownerID int64) ([]shortener.LongURL, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT l.id, l.url, l.url_hash, l.created_at
		FROM long_urls l
		WHERE $1::BIGINT = 0
			OR EXISTS (SELECT 1 FROM user_long_urls o WHERE o.long_url_id = l.id AND o.user_id = $1)
		ORDER BY l.created_at DESC, l.id ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanLongURL)
}

func scanLongURL(row pgx.CollectableRow) (shortener.LongURL, error) {
	var u shortener.LongURL

	err := row.Scan(&u.ID, &u.Name, &u.Hash, &u.CreatedAt)

	return u, err
}

func (p *PostgresStore) AppendVisit(ctx context.Context, visit *shortener.Visit) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO visits (short_link_id, code, visited_at, remote_addr, remote_port)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		visit.ShortLinkID,
		visit.Code,
		visit.VisitedAt,
		visit.RemoteAddr,
		visit.RemotePort,
	).Scan(&visit.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shortener.ErrNotFound
		}

		return err
	}

	return nil
}

func (p *PostgresStore) CreateUser(ctx context.Context, user *accounts.User) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO users (username, first_name, last_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return accounts.ErrUsernameTaken
			case "users_email_key":
				return accounts.ErrEmailTaken
			}
		}

		return err
	}

	return nil
}

func (p *PostgresStore) UserByID(ctx context.Context, id int64) (*accounts.User, error) {
	return p.user(ctx, `id = $1`, id)
}

func (p *PostgresStore) UserByUsername(ctx context.Context, username string) (*accounts.User, error) {
	return p.user(ctx, `username = $1`, username)
}

func (p *PostgresStore) UserByEmail(ctx context.Context, email string) (*accounts.User, error) {
	return p.user(ctx, `lower(email) = lower($1)`, email)
}

func (p *PostgresStore) user(ctx context.Context, where string, arg any) (*accounts.User, error) {
	var u accounts.User

	err := p.pool.QueryRow(ctx, `
		SELECT id, username, first_name, last_name, COALESCE(email, ''), password_hash, created_at
		FROM users
		WHERE `+where, arg).Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounts.ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// uniqueViolation maps constraint names to the store sentinels the service retries on.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrCodeUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case "short_links_code_key":
		return shortener.ErrCodeTaken
	case "short_links_owner_long_url_key":
		return shortener.ErrLinkExists
	case "long_urls_url_hash_key":
		return shortener.ErrLongURLExists
	default:
		return err
	}
}

// Compile-time checks.
var (
	_ shortener.Store     = (*PostgresStore)(nil)
	_ accounts.Repository = (*PostgresStore)(nil)
)
