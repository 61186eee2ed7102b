package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orgkeys/orgkeys/internal/keys"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/store"
	"github.com/orgkeys/orgkeys/internal/store/memory"
)

type fixture struct {
	registry      *Registry
	organizations *memory.OrganizationStore
	components    *memory.ComponentStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	providerRegistry := provider.NewRegistry()
	providers := keys.Register(providerRegistry, keys.RSAProvider{}, keys.ECDSAProvider{}, keys.HMACProvider{})

	organizations := memory.NewOrganizationStore()
	components := memory.NewComponentStore(providerRegistry)
	defaults := keys.NewDefaultProviders(components, providers, keys.DefaultsConfig{})

	return &fixture{
		registry:      New(organizations, components, defaults),
		organizations: organizations,
		components:    components,
	}
}

func (f *fixture) seedMaster(t *testing.T) *models.Organization {
	t.Helper()

	master := &models.Organization{
		ID:   models.MasterID,
		Name: "master",
		Type: models.OrganizationTypeMaster,
	}
	require.NoError(t, f.organizations.Create(context.Background(), master))
	return master
}

func TestCreateOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	org, err := f.registry.CreateOrganization(ctx, "acme", "Acme Corp", "")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, org.ID)
	require.Equal(t, models.OrganizationTypeCommon, org.Type)

	t.Run("default key providers are provisioned", func(t *testing.T) {
		components, err := f.components.List(ctx, org, store.ListComponentsOptions{
			ProviderType: keys.ProviderType,
		})
		require.NoError(t, err)
		require.Len(t, components, 2)
		for _, component := range components {
			require.Equal(t, component.ProviderID, component.Name)
		}
	})

	t.Run("duplicate name leaves the registry unchanged", func(t *testing.T) {
		_, err := f.registry.CreateOrganization(ctx, "acme", "second", "")
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)

		count, err := f.organizations.Count(ctx, "")
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})
}

func TestSearchOrganizations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, name := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		_, err := f.registry.CreateOrganization(ctx, name, "", "")
		require.NoError(t, err)
	}

	t.Run("total counts every match, not the page", func(t *testing.T) {
		results, err := f.registry.SearchOrganizations(ctx, "", 0, 2)
		require.NoError(t, err)
		require.Equal(t, 5, results.TotalSize)
		require.Len(t, results.Models, 2)
	})

	t.Run("pages do not overlap", func(t *testing.T) {
		first, err := f.registry.SearchOrganizations(ctx, "", 0, 3)
		require.NoError(t, err)
		second, err := f.registry.SearchOrganizations(ctx, "", 1, 3)
		require.NoError(t, err)

		require.Len(t, first.Models, 3)
		require.Len(t, second.Models, 2)
		for _, a := range first.Models {
			for _, b := range second.Models {
				require.NotEqual(t, a.ID, b.ID)
			}
		}
	})

	t.Run("negative page and zero size fall back to defaults", func(t *testing.T) {
		results, err := f.registry.SearchOrganizations(ctx, "", -3, 0)
		require.NoError(t, err)
		require.Equal(t, 5, results.TotalSize)
		require.Len(t, results.Models, 5)
	})
}

func TestDeleteOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("delete cascades to components", func(t *testing.T) {
		f := newFixture(t)

		org, err := f.registry.CreateOrganization(ctx, "acme", "", "")
		require.NoError(t, err)

		require.NoError(t, f.registry.DeleteOrganization(ctx, org.ID))

		_, err = f.registry.GetOrganization(ctx, org.ID)
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)

		remaining, err := f.components.List(ctx, org, store.ListComponentsOptions{})
		require.NoError(t, err)
		require.Empty(t, remaining)
	})

	t.Run("master organization is deletion-protected", func(t *testing.T) {
		f := newFixture(t)
		master := f.seedMaster(t)

		err := f.registry.DeleteOrganization(ctx, master.ID)
		require.ErrorIs(t, err, ErrMasterImmutable)

		got, err := f.registry.GetOrganization(ctx, master.ID)
		require.NoError(t, err)
		require.True(t, got.IsMaster())
	})

	t.Run("delete missing organization", func(t *testing.T) {
		f := newFixture(t)

		err := f.registry.DeleteOrganization(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})
}

func TestGetOrganizationByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	org, err := f.registry.CreateOrganization(ctx, "acme", "", "")
	require.NoError(t, err)

	got, err := f.registry.GetOrganizationByName(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, org.ID, got.ID)

	_, err = f.registry.GetOrganizationByName(ctx, "nope")
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
}
