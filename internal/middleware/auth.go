package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// Authenticator resolves credentials to users.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*accounts.User, error)
	VerifyToken(ctx context.Context, token string) (*accounts.User, error)
}

// Auth is a middleware that resolves the request principal from the
// Authorization header. Requests without credentials, or with basic
// credentials naming no user, are anonymous. Basic credentials with an empty
// password carry a token in the username.
func Auth(api huma.API, auth Authenticator, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		principal, err := resolvePrincipal(ctx.Context(), auth, ctx.Header("Authorization"))
		if err != nil {
			msg := "Invalid Credentials"
			if errors.Is(err, accounts.ErrTokenExpired) {
				msg = "Token has expired"
			}

			if !errors.Is(err, accounts.ErrInvalidCredentials) && !errors.Is(err, accounts.ErrTokenExpired) {
				logger.Error("authentication failed", zap.Error(err))
				_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

				return
			}

			ctx.SetHeader("WWW-Authenticate", "Unauthorized")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)

			return
		}

		next(huma.WithContext(ctx, handlers.ContextWithPrincipal(ctx.Context(), principal)))
	}
}

func resolvePrincipal(ctx context.Context, auth Authenticator, header string) (handlers.Principal, error) {
	anonymous := handlers.Principal{Caller: shortener.Anonymous()}

	scheme, credentials, _ := strings.Cut(strings.TrimSpace(header), " ")
	credentials = strings.TrimSpace(credentials)

	switch {
	case header == "":
		return anonymous, nil
	case strings.EqualFold(scheme, "Bearer"):
		return verify(ctx, auth, credentials)
	case strings.EqualFold(scheme, "Basic"):
		username, password, err := decodeBasic(credentials)
		if err != nil {
			return handlers.Principal{}, accounts.ErrInvalidCredentials
		}

		if username == "" {
			return anonymous, nil
		}

		if password == "" {
			return verify(ctx, auth, username)
		}

		user, err := auth.Authenticate(ctx, username, password)
		if err != nil {
			return handlers.Principal{}, err
		}

		return handlers.Principal{Caller: shortener.Registered(user.ID), User: user}, nil
	default:
		return handlers.Principal{}, accounts.ErrInvalidCredentials
	}
}

func verify(ctx context.Context, auth Authenticator, token string) (handlers.Principal, error) {
	user, err := auth.VerifyToken(ctx, token)
	if err != nil {
		return handlers.Principal{}, err
	}

	return handlers.Principal{Caller: shortener.Registered(user.ID), User: user, ViaToken: true}, nil
}

func decodeBasic(credentials string) (username, password string, err error) {
	raw, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		return "", "", err
	}

	username, password, _ = strings.Cut(string(raw), ":")

	return username, password, nil
}
