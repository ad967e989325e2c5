package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jaevor/go-nanoid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the lifetime of issued bearer tokens.
const DefaultTokenTTL = time.Hour

// reservedUsername belongs to the anonymous sentinel user.
const reservedUsername = "anonymous"

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// RegisterRequest holds the fields needed to create an account.
type RegisterRequest struct {
	Username        string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Email           string
}

// Service registers users and issues and verifies their tokens.
type Service struct {
	repo     Repository
	secret   []byte
	ttl      time.Duration
	newJTI   func() string
	now      func() time.Time
	hashCost int
}

// NewService creates a new accounts service signing tokens with secret.
func NewService(repo Repository, secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	newJTI, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("token id generator: %w", err)
	}

	return &Service{
		repo:     repo,
		secret:   []byte(secret),
		ttl:      ttl,
		newJTI:   newJTI,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}, nil
}

// Register validates req and stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	fields := map[string]string{
		"username":         req.Username,
		"password":         req.Password,
		"confirm_password": req.ConfirmPassword,
		"firstname":        req.FirstName,
		"lastname":         req.LastName,
		"email":            req.Email,
	}

	for _, name := range []string{"username", "password", "confirm_password", "firstname", "lastname", "email"} {
		if strings.TrimSpace(fields[name]) == "" {
			return nil, detail(ErrInvalidInput, "%s can't be empty", name)
		}
	}

	if req.Password != req.ConfirmPassword {
		return nil, detail(ErrInvalidInput, "Passwords don't match")
	}

	if len(req.Password) > MaxPasswordBytes {
		return nil, detail(ErrInvalidInput, "password can't be longer than %d bytes", MaxPasswordBytes)
	}

	if strings.EqualFold(req.Username, reservedUsername) {
		return nil, detail(ErrUsernameTaken, "The username '%s' already exist", req.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, detail(ErrInvalidInput, "password can't be longer than %d bytes", MaxPasswordBytes)
		}

		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err = s.repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			return nil, detail(ErrUsernameTaken, "The username '%s' already exist", req.Username)
		case errors.Is(err, ErrEmailTaken):
			return nil, detail(ErrEmailTaken, "The email '%s' already exist", req.Email)
		default:
			return nil, err
		}
	}

	return user, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if len(user.PasswordHash) == 0 {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken signs a bearer token for user.
func (s *Service) IssueToken(user *User) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        s.newJTI(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken returns the user a bearer token was issued to.
func (s *Service) VerifyToken(ctx context.Context, token string) (*User, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, ErrInvalidCredentials
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	return user, nil
}

// TokenValid reports whether token is well-formed, unexpired and names an existing user.
func (s *Service) TokenValid(ctx context.Context, token string) bool {
	_, err := s.VerifyToken(ctx, token)

	return err == nil
}
