package container

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/health"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"go.uber.org/zap"
)

const (
	sweepInterval = time.Minute
	sweepMaxAge   = 24 * time.Hour
)

// lookup returns the read path for resolutions and, when caching is enabled,
// the cache that must be invalidated on writes.
func lookup(i *do.Injector) (shortener.Lookup, *store.RedisLinkCache, error) {
	opts := do.MustInvoke[*Options](i)

	if !opts.cacheEnabled() {
		repo, err := do.Invoke[Repository](i)

		return repo, nil, err
	}

	cache, err := do.Invoke[*store.RedisLinkCache](i)
	if err != nil {
		return nil, nil, err
	}

	return cache, cache, nil
}

func ServicesPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[Repository](i)
		if err != nil {
			return nil, err
		}

		_, cache, err := lookup(i)
		if err != nil {
			return nil, err
		}

		var invalidator shortener.Invalidator
		if cache != nil {
			invalidator = cache
		}

		generator := shortener.NewGenerator(opts.CodeLength)

		return shortener.NewService(repo, generator, invalidator, opts.MaxCodeAttempts, logger), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[Repository](i)
		if err != nil {
			return nil, err
		}

		links, _, err := lookup(i)
		if err != nil {
			return nil, err
		}

		publishers, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		publishVisit := messaging.NewPublishFunc[analytics.LinkVisitedEvent](
			publishers.Publisher(),
			analytics.TopicLinkVisited,
		)

		return shortener.NewResolver(links, repo, analytics.NewVisitRecorder(publishVisit), logger), nil
	})

	do.Provide(i, func(i *do.Injector) (*accounts.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[Repository](i)
		if err != nil {
			return nil, err
		}

		secret := opts.TokenSecret
		if secret == "" {
			logger.Warn("no token secret configured, issued tokens will not survive a restart")

			secret = uuid.NewString()
		}

		return accounts.NewService(repo, secret, time.Duration(opts.TokenTTLSeconds)*time.Second)
	})
}

// RateLimitPackage keeps request windows in Redis when it is configured and in
// process memory otherwise.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.RedisAddr != "" {
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			return store.NewRateLimitRedisStore(client.Client), nil
		}

		s := store.NewRateLimitMemoryStore()
		s.StartSweeping(sweepInterval, sweepMaxAge)

		return s, nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		s, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		return ratelimit.NewPolicyLimiter(s, ratelimit.DefaultPolicy()), nil
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		links, err := do.Invoke[*shortener.Service](i)
		if err != nil {
			return nil, err
		}

		resolver, err := do.Invoke[*shortener.Resolver](i)
		if err != nil {
			return nil, err
		}

		accts, err := do.Invoke[*accounts.Service](i)
		if err != nil {
			return nil, err
		}

		limiter, err := do.Invoke[*ratelimit.PolicyLimiter](i)
		if err != nil {
			return nil, err
		}

		publishers, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		huma.NewError = handlers.NewError

		api := humachi.New(router, huma.DefaultConfig("Shortlinks", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.Auth(api, accts, logger),
			middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), logger),
		)

		publishCreated := messaging.NewPublishFunc[analytics.LinkCreatedEvent](
			publishers.Publisher(),
			analytics.TopicLinkCreated,
		)

		handlers.RegisterRoutes(
			api,
			handlers.NewLinkHandler(links, resolver, opts.PublicBaseURL(), publishCreated, logger),
			handlers.NewAccountHandler(accts, logger),
		)

		checkers, err := healthCheckers(i)
		if err != nil {
			return nil, err
		}

		health.RegisterRoutes(api, health.NewHandler(checkers))

		return api, nil
	})
}

func healthCheckers(i *do.Injector) (map[string]health.Checker, error) {
	opts := do.MustInvoke[*Options](i)
	checkers := map[string]health.Checker{}

	repo, err := do.Invoke[Repository](i)
	if err != nil {
		return nil, err
	}

	if pinger, ok := repo.(health.Checker); ok {
		checkers["postgres"] = pinger
	}

	if opts.RedisAddr != "" {
		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, err
		}

		checkers["redis"] = health.NewRedisChecker(client.Client)
	}

	return checkers, nil
}
