// Package providers assembles the upstream source clients into a registry.
package providers

import (
	"github.com/ipsentinel/ipsentinel/internal/config"
	"github.com/ipsentinel/ipsentinel/internal/domain/search"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/providers/epo"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/providers/tmview"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/providers/uspto"
)

// BuildRegistry registers every enabled provider. Registration order follows
// the field order of ProvidersConfig, which fixes the merge order of
// aggregate search results.
func BuildRegistry(cfg config.ProvidersConfig, logger logging.Logger) *search.Registry {
	registry := search.NewRegistry()
	if cfg.EPO.Enabled {
		var opts []epo.Option
		if cfg.EPO.BaseURL != "" {
			opts = append(opts, epo.WithBaseURL(cfg.EPO.BaseURL))
		}
		if cfg.EPO.APIKey != "" {
			opts = append(opts, epo.WithAPIKey(cfg.EPO.APIKey))
		}
		registry.MustRegister(epo.NewClient(logger, opts...))
	}
	if cfg.USPTO.Enabled {
		var opts []uspto.Option
		if cfg.USPTO.BaseURL != "" {
			opts = append(opts, uspto.WithBaseURL(cfg.USPTO.BaseURL))
		}
		if cfg.USPTO.APIKey != "" {
			opts = append(opts, uspto.WithAPIKey(cfg.USPTO.APIKey))
		}
		registry.MustRegister(uspto.NewClient(logger, opts...))
	}
	if cfg.TMview.Enabled {
		var opts []tmview.Option
		if cfg.TMview.BaseURL != "" {
			opts = append(opts, tmview.WithBaseURL(cfg.TMview.BaseURL))
		}
		registry.MustRegister(tmview.NewClient(logger, opts...))
	}
	return registry
}
