package handlers

import (
	"context"

	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/shortener"
)

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for visit records and analytics.
type RequestMeta struct {
	ClientIP   string
	ClientPort string
	UserAgent  string
	Referrer   string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

type principalKey struct{}

// Principal is the authenticated identity of a request.
type Principal struct {
	Caller shortener.Caller
	// User is nil for anonymous requests.
	User *accounts.User
	// ViaToken is set when the credentials were a bearer token.
	ViaToken bool
}

// ContextWithPrincipal adds the request principal to context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the request principal, anonymous when unset.
func PrincipalFromContext(ctx context.Context) Principal {
	if v, ok := ctx.Value(principalKey{}).(Principal); ok {
		return v
	}

	return Principal{Caller: shortener.Anonymous()}
}

func callerFrom(ctx context.Context) shortener.Caller {
	return PrincipalFromContext(ctx).Caller
}

func originFrom(ctx context.Context) shortener.Origin {
	meta := RequestMetaFromContext(ctx)

	return shortener.Origin{RemoteAddr: meta.ClientIP, RemotePort: meta.ClientPort}
}
