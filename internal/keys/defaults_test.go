package keys

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/store"
	"github.com/orgkeys/orgkeys/internal/store/memory"
)

func listByType() store.ListComponentsOptions {
	return store.ListComponentsOptions{ProviderType: ProviderType}
}

func newTestBootstrap(t *testing.T, cfg DefaultsConfig) (*DefaultProviders, *memory.ComponentStore) {
	t.Helper()

	registry := provider.NewRegistry()
	providers := Register(registry, RSAProvider{}, ECDSAProvider{}, HMACProvider{})
	components := memory.NewComponentStore(registry)
	return NewDefaultProviders(components, providers, cfg), components
}

func TestDefaultProvidersCreate(t *testing.T) {
	ctx := context.Background()
	org := testOrg()

	bootstrap, components := newTestBootstrap(t, DefaultsConfig{})

	err := bootstrap.Create(ctx, org)
	require.NoError(t, err)

	created, err := components.List(ctx, org, listByType())
	require.NoError(t, err)
	require.Len(t, created, 2)

	byProvider := map[string]bool{}
	for _, component := range created {
		byProvider[component.ProviderID] = true
		require.Equal(t, component.ProviderID, component.Name)
		require.Equal(t, org.ID, component.ParentID)
		require.Equal(t, "100", component.Config.First(OptionPriority))
	}
	require.True(t, byProvider[RSAProviderID])
	require.True(t, byProvider[HMACProviderID])

	t.Run("material is generated up front", func(t *testing.T) {
		for _, component := range created {
			switch component.ProviderID {
			case RSAProviderID:
				require.NotEmpty(t, component.Config.First(OptionPrivateKey))
				require.NotEmpty(t, component.Config.First(OptionCertificate))
			case HMACProviderID:
				require.NotEmpty(t, component.Config.First(OptionSecret))
			}
		}
	})

	t.Run("second invocation is a no-op", func(t *testing.T) {
		require.NoError(t, bootstrap.Create(ctx, org))

		after, err := components.List(ctx, org, listByType())
		require.NoError(t, err)
		require.Len(t, after, 2)
		for i, component := range after {
			require.Equal(t, created[i].ID, component.ID)
		}
	})
}

func TestDefaultProvidersCreateWithECDSA(t *testing.T) {
	ctx := context.Background()
	org := testOrg()

	bootstrap, components := newTestBootstrap(t, DefaultsConfig{ECDSACurve: "P-256"})

	require.NoError(t, bootstrap.Create(ctx, org))

	created, err := components.List(ctx, org, listByType())
	require.NoError(t, err)
	require.Len(t, created, 3)
}

func TestLoadDefaultsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	err := os.WriteFile(path, []byte("priority: 25\nrsaAlgorithm: PS256\necdsaCurve: P-384\n"), 0o600)
	require.NoError(t, err)

	cfg, err := LoadDefaultsConfig(path)
	require.NoError(t, err)

	require.Equal(t, int64(25), cfg.Priority)
	require.Equal(t, "PS256", cfg.RSAAlgorithm)
	require.Equal(t, "P-384", cfg.ECDSACurve)

	// Unset fields take defaults.
	require.Equal(t, defaultRSAKeySize, cfg.RSAKeySize)
	require.Equal(t, "HS256", cfg.HMACAlgorithm)
	require.Equal(t, defaultHMACSecretSize, cfg.HMACSecretSize)
}
