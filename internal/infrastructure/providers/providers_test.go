package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsentinel/ipsentinel/internal/config"
)

func TestBuildRegistry_Order(t *testing.T) {
	cfg := config.ProvidersConfig{
		EPO:    config.ProviderConfig{Enabled: true},
		USPTO:  config.ProviderConfig{Enabled: true},
		TMview: config.ProviderConfig{Enabled: true},
	}

	registry := BuildRegistry(cfg, nil)
	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "EPO", all[0].SourceID())
	assert.Equal(t, "USPTO", all[1].SourceID())
	assert.Equal(t, "TMVIEW", all[2].SourceID())
}

func TestBuildRegistry_DisabledSkipped(t *testing.T) {
	cfg := config.ProvidersConfig{USPTO: config.ProviderConfig{Enabled: true}}

	registry := BuildRegistry(cfg, nil)
	all := registry.All()
	require.Len(t, all, 1)
	assert.Equal(t, "USPTO", all[0].SourceID())
}

func TestBuildRegistry_AppliesOptions(t *testing.T) {
	cfg := config.ProvidersConfig{
		EPO: config.ProviderConfig{Enabled: true, BaseURL: "http://epo.local", APIKey: "k"},
	}

	registry := BuildRegistry(cfg, nil)
	_, ok := registry.ByID("EPO")
	assert.True(t, ok)
}
