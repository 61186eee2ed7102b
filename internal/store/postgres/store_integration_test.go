//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/orgkeys/orgkeys/internal/keys"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/store"
)

type integrationFixture struct {
	connString    string
	organizations *OrganizationStore
	components    *ComponentStore
	providers     map[string]keys.Provider
}

func setupPostgresContainer(t *testing.T, ctx context.Context) (*integrationFixture, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString:  connString,
		AutoMigrate: true,
	})
	require.NoError(t, err)

	schemas := provider.NewRegistry()
	providers := keys.Register(schemas, keys.RSAProvider{}, keys.ECDSAProvider{}, keys.HMACProvider{})

	fixture := &integrationFixture{
		connString:    connString,
		organizations: NewOrganizationStore(pool),
		components:    NewComponentStore(pool, schemas),
		providers:     providers,
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return fixture, cleanup
}

func newIntegrationOrg(name string) *models.Organization {
	return &models.Organization{
		ID:   uuid.Must(uuid.NewV7()),
		Name: name,
		Type: models.OrganizationTypeCommon,
	}
}

func TestIntegration_OrganizationLifecycle(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("migration seeds the master organization", func(t *testing.T) {
		master, err := f.organizations.Get(ctx, models.MasterID)
		require.NoError(t, err)
		require.True(t, master.IsMaster())
		require.Equal(t, models.OrganizationTypeMaster, master.Type)
	})

	org := newIntegrationOrg("acme")
	org.Description = "Acme Corp"

	t.Run("create and get", func(t *testing.T) {
		require.NoError(t, f.organizations.Create(ctx, org))

		got, err := f.organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "acme", got.Name)
		require.Equal(t, "Acme Corp", got.Description)
	})

	t.Run("duplicate name maps to the conflict sentinel", func(t *testing.T) {
		err := f.organizations.Create(ctx, newIntegrationOrg("acme"))
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("get by name", func(t *testing.T) {
		got, err := f.organizations.GetByName(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, org.ID, got.ID)
	})

	t.Run("list and count with filter", func(t *testing.T) {
		require.NoError(t, f.organizations.Create(ctx, newIntegrationOrg("globex")))

		matched, err := f.organizations.List(ctx, store.ListOrganizationsOptions{
			FilterText: "glob",
			Offset:     0,
			Limit:      10,
		})
		require.NoError(t, err)
		require.Len(t, matched, 1)
		require.Equal(t, "globex", matched[0].Name)

		count, err := f.organizations.Count(ctx, "glob")
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("update", func(t *testing.T) {
		org.Description = "updated"
		require.NoError(t, f.organizations.Update(ctx, org))

		got, err := f.organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "updated", got.Description)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.organizations.Delete(ctx, org.ID))

		_, err := f.organizations.Get(ctx, org.ID)
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})
}

func TestIntegration_ComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	org := newIntegrationOrg("acme")
	require.NoError(t, f.organizations.Create(ctx, org))

	newKeyComponent := func(t *testing.T, name string) *models.Component {
		t.Helper()

		config, err := f.providers[keys.HMACProviderID].Generate(org, models.ComponentConfig{
			keys.OptionAlgorithm: {"HS256"},
		})
		require.NoError(t, err)

		return &models.Component{
			Name:         name,
			ProviderID:   keys.HMACProviderID,
			ProviderType: keys.ProviderType,
			Config:       config,
		}
	}

	t.Run("create round trips JSONB config", func(t *testing.T) {
		created, err := f.components.Create(ctx, org, newKeyComponent(t, "signing"))
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.ID)

		got, err := f.components.Get(ctx, org, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.Config, got.Config)
		require.Equal(t, org.ID, got.ParentID)
	})

	t.Run("default bootstrap duplicates hit the partial unique index", func(t *testing.T) {
		// Components named after their provider id are the bootstrap
		// defaults; a second insert simulates the losing side of a
		// concurrent bootstrap.
		first := newKeyComponent(t, keys.HMACProviderID)
		_, err := f.components.Create(ctx, org, first)
		require.NoError(t, err)

		_, err = f.components.Create(ctx, org, newKeyComponent(t, keys.HMACProviderID))
		require.ErrorIs(t, err, store.ErrComponentExists)
	})

	t.Run("non-default names may repeat", func(t *testing.T) {
		_, err := f.components.Create(ctx, org, newKeyComponent(t, "rotation"))
		require.NoError(t, err)
		_, err = f.components.Create(ctx, org, newKeyComponent(t, "rotation"))
		require.NoError(t, err)
	})

	t.Run("update replaces config wholesale", func(t *testing.T) {
		created, err := f.components.Create(ctx, org, newKeyComponent(t, "replace-me"))
		require.NoError(t, err)

		update := *created
		update.Config = created.Config.Clone()
		update.Config.Set(keys.OptionPriority, "500")

		require.NoError(t, f.components.Update(ctx, org, &update))

		got, err := f.components.Get(ctx, org, created.ID)
		require.NoError(t, err)
		require.Equal(t, "500", got.Config.First(keys.OptionPriority))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		created, err := f.components.Create(ctx, org, newKeyComponent(t, "short-lived"))
		require.NoError(t, err)

		require.NoError(t, f.components.Delete(ctx, org, created.ID))
		require.NoError(t, f.components.Delete(ctx, org, created.ID))

		_, err = f.components.Get(ctx, org, created.ID)
		require.ErrorIs(t, err, store.ErrComponentNotFound)
	})

	t.Run("deleting the organization cascades", func(t *testing.T) {
		doomed := newIntegrationOrg("doomed")
		require.NoError(t, f.organizations.Create(ctx, doomed))

		config, err := f.providers[keys.HMACProviderID].Generate(doomed, models.ComponentConfig{})
		require.NoError(t, err)
		_, err = f.components.Create(ctx, doomed, &models.Component{
			Name:         "orphan-to-be",
			ProviderID:   keys.HMACProviderID,
			ProviderType: keys.ProviderType,
			Config:       config,
		})
		require.NoError(t, err)

		require.NoError(t, f.organizations.Delete(ctx, doomed.ID))

		remaining, err := f.components.List(ctx, doomed, store.ListComponentsOptions{})
		require.NoError(t, err)
		require.Empty(t, remaining)
	})
}

func TestIntegration_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	// A second auto-migrating pool against the same database must see
	// the recorded schema version and change nothing.
	count, err := f.organizations.Count(ctx, "")
	require.NoError(t, err)

	pool2, err := NewPool(ctx, &PoolConfig{
		ConnString:  f.connString,
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer pool2.Close()

	after, err := NewOrganizationStore(pool2).Count(ctx, "")
	require.NoError(t, err)
	require.Equal(t, count, after)
}
