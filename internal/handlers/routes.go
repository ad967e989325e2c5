package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

func authScope() map[string]any {
	return map[string]any{
		ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeAuth},
	}
}

// RegisterRoutes registers all shortener and account routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, links *LinkHandler, accts *AccountHandler) {
	registerAccountRoutes(api, accts)
	registerLinkRoutes(api, links)
	registerListingRoutes(api, links)
}

func registerAccountRoutes(api huma.API, h *AccountHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/register",
		Summary:       "Register a user",
		Tags:          []string{"Accounts"},
		DefaultStatus: http.StatusCreated,
		Metadata:      authScope(),
	}, h.Register)

	huma.Register(api, huma.Operation{
		OperationID: "get-token",
		Method:      http.MethodPost,
		Path:        "/token",
		Summary:     "Issue a bearer token",
		Description: "Exchanges basic credentials for a bearer token valid for one hour.",
		Tags:        []string{"Accounts"},
		Metadata:    authScope(),
	}, h.Token)

	huma.Register(api, huma.Operation{
		OperationID: "token-expiration",
		Method:      http.MethodGet,
		Path:        "/token/{token}/expiration",
		Summary:     "Check whether a token is still valid",
		Tags:        []string{"Accounts"},
	}, h.TokenExpiration)

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodGet,
		Path:        "/token/refresh",
		Summary:     "Refresh a bearer token",
		Tags:        []string{"Accounts"},
		Metadata:    authScope(),
	}, h.Refresh)

	huma.Register(api, huma.Operation{
		OperationID: "user-profile",
		Method:      http.MethodGet,
		Path:        "/user/profile",
		Summary:     "Current user profile",
		Tags:        []string{"Accounts"},
	}, h.Profile)
}

func registerLinkRoutes(api huma.API, h *LinkHandler) {
	// Stricter limits for link creation
	huma.Register(api, huma.Operation{
		OperationID:   "shorten-url",
		Method:        http.MethodPost,
		Path:          "/url/shorten",
		Summary:       "Create short URL",
		Description:   "Shortens a URL for the caller, returning the existing short URL when the caller already shortened it.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, h.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-by-id",
		Method:      http.MethodGet,
		Path:        "/shorten-urls/{id}/url",
		Summary:     "Long URL of a short URL id",
		Tags:        []string{"URLs"},
	}, h.ResolveByID)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-by-code",
		Method:      http.MethodGet,
		Path:        "/shorten-url/{code}/url",
		Summary:     "Long URL of a short code",
		Tags:        []string{"URLs"},
	}, h.ResolveByCode)

	huma.Register(api, huma.Operation{
		OperationID: "update-target",
		Method:      http.MethodPut,
		Path:        "/shorten-urls/{id}/url/update",
		Summary:     "Re-point a short URL",
		Tags:        []string{"URLs"},
	}, h.UpdateTarget)

	huma.Register(api, huma.Operation{
		OperationID: "activate",
		Method:      http.MethodPut,
		Path:        "/shorten-urls/{id}/activate",
		Summary:     "Activate a short URL",
		Tags:        []string{"URLs"},
	}, h.Activate)

	huma.Register(api, huma.Operation{
		OperationID: "deactivate",
		Method:      http.MethodPut,
		Path:        "/shorten-urls/{id}/deactivate",
		Summary:     "Deactivate a short URL",
		Tags:        []string{"URLs"},
	}, h.Deactivate)

	huma.Register(api, huma.Operation{
		OperationID: "delete",
		Method:      http.MethodDelete,
		Path:        "/shorten-urls/{id}/delete",
		Summary:     "Soft-delete a short URL",
		Tags:        []string{"URLs"},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "restore",
		Method:      http.MethodPut,
		Path:        "/shorten-urls/{id}/restore",
		Summary:     "Restore a deleted short URL",
		Tags:        []string{"URLs"},
	}, h.Restore)

	// Relaxed limits for high-traffic redirects
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.Redirect)
}

func registerListingRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-urls",
		Method:      http.MethodGet,
		Path:        "/urls",
		Summary:     "All long URLs, newest first",
		Tags:        []string{"Listings"},
	}, h.AllLongURLs)

	huma.Register(api, huma.Operation{
		OperationID: "list-shorten-urls",
		Method:      http.MethodGet,
		Path:        "/shorten-urls",
		Summary:     "All short URLs, newest first",
		Tags:        []string{"Listings"},
	}, h.AllByRecency)

	huma.Register(api, huma.Operation{
		OperationID: "list-shorten-urls-popularity",
		Method:      http.MethodGet,
		Path:        "/shorten-urls/popularity",
		Summary:     "All short URLs, most visited first",
		Tags:        []string{"Listings"},
	}, h.AllByPopularity)

	huma.Register(api, huma.Operation{
		OperationID: "user-urls",
		Method:      http.MethodGet,
		Path:        "/user/urls",
		Summary:     "Long URLs of the caller",
		Tags:        []string{"Listings"},
	}, h.OwnedLongURLs)

	huma.Register(api, huma.Operation{
		OperationID: "user-shorten-urls",
		Method:      http.MethodGet,
		Path:        "/user/shorten-urls",
		Summary:     "Short URLs of the caller, newest first",
		Tags:        []string{"Listings"},
	}, h.OwnedByRecency)

	huma.Register(api, huma.Operation{
		OperationID: "user-shorten-urls-popularity",
		Method:      http.MethodGet,
		Path:        "/user/shorten-urls/popularity",
		Summary:     "Short URLs of the caller, most visited first",
		Tags:        []string{"Listings"},
	}, h.OwnedByPopularity)

	huma.Register(api, huma.Operation{
		OperationID: "user-urls-total",
		Method:      http.MethodGet,
		Path:        "/user/urls/total",
		Summary:     "Number of long URLs of the caller",
		Tags:        []string{"Listings"},
	}, h.TotalLongURLs)

	huma.Register(api, huma.Operation{
		OperationID: "user-shorten-urls-total",
		Method:      http.MethodGet,
		Path:        "/user/shorten-urls/total",
		Summary:     "Number of short URLs of the caller",
		Tags:        []string{"Listings"},
	}, h.TotalShortLinks)
}
