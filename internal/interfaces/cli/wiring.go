package cli

import (
	appsearch "github.com/ipsentinel/ipsentinel/internal/application/search"
	apptracking "github.com/ipsentinel/ipsentinel/internal/application/tracking"
	"github.com/ipsentinel/ipsentinel/internal/config"
	"github.com/ipsentinel/ipsentinel/internal/domain/subscription"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/cache"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/database/postgres"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/providers"
)

// buildDispatcher assembles the search path with a fresh cache registry. The
// CLI is a short-lived process so the caches only serve to coalesce repeated
// lookups within one invocation.
func buildDispatcher(cfg *config.Config, logger logging.Logger) *appsearch.Dispatcher {
	registry := providers.BuildRegistry(cfg.Providers, logger)
	caches := cache.NewRegistry()
	return appsearch.NewDispatcher(registry, caches, logger,
		appsearch.WithFanoutLimit(cfg.Search.FanoutLimit),
		appsearch.WithCallTimeout(cfg.Search.CallTimeout))
}

// trackingStack is the database-backed service set behind the track and
// subscribe commands.
type trackingStack struct {
	conn     *postgres.Connection
	assets   *postgres.TrackedAssetRepository
	subs     *subscription.Service
	tracking *apptracking.Service
}

func openTrackingStack(cfg *config.Config, logger logging.Logger) (*trackingStack, error) {
	conn, err := postgres.NewConnection(cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	assets := postgres.NewTrackedAssetRepository(conn)
	subRepo := postgres.NewSubscriptionRepository(conn)
	subs := subscription.NewService(subRepo, assets, logger)
	dispatcher := buildDispatcher(cfg, logger)
	return &trackingStack{
		conn:     conn,
		assets:   assets,
		subs:     subs,
		tracking: apptracking.NewService(assets, subs, dispatcher, logger),
	}, nil
}

func (s *trackingStack) Close() error { return s.conn.Close() }
