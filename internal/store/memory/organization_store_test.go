package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

func newOrg(name string) *models.Organization {
	return &models.Organization{
		ID:   uuid.Must(uuid.NewV7()),
		Name: name,
		Type: models.OrganizationTypeCommon,
	}
}

func TestOrganizationStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get back", func(t *testing.T) {
		st := NewOrganizationStore()

		org := newOrg("acme")
		org.Description = "Acme Corp"
		require.NoError(t, st.Create(ctx, org))

		got, err := st.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "acme", got.Name)
		require.Equal(t, "Acme Corp", got.Description)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		st := NewOrganizationStore()

		require.NoError(t, st.Create(ctx, newOrg("acme")))

		err := st.Create(ctx, newOrg("acme"))
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)

		count, err := st.Count(ctx, "")
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("returned clone is isolated from the caller", func(t *testing.T) {
		st := NewOrganizationStore()

		org := newOrg("acme")
		require.NoError(t, st.Create(ctx, org))

		org.Name = "mutated"

		got, err := st.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "acme", got.Name)
	})
}

func TestOrganizationStore_GetByName(t *testing.T) {
	ctx := context.Background()
	st := NewOrganizationStore()

	org := newOrg("acme")
	require.NoError(t, st.Create(ctx, org))

	got, err := st.GetByName(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, org.ID, got.ID)

	_, err = st.GetByName(ctx, "ACME")
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
}

func TestOrganizationStore_List(t *testing.T) {
	ctx := context.Background()
	st := NewOrganizationStore()

	names := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for i, name := range names {
		org := newOrg(name)
		org.CreatedAt = time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC)
		require.NoError(t, st.Create(ctx, org))
	}

	t.Run("pages are disjoint and ordered", func(t *testing.T) {
		first, err := st.List(ctx, store.ListOrganizationsOptions{Offset: 0, Limit: 3})
		require.NoError(t, err)
		require.Len(t, first, 3)

		second, err := st.List(ctx, store.ListOrganizationsOptions{Offset: 3, Limit: 3})
		require.NoError(t, err)
		require.Len(t, second, 2)

		seen := map[uuid.UUID]bool{}
		for _, org := range append(first, second...) {
			require.False(t, seen[org.ID])
			seen[org.ID] = true
		}
		require.Equal(t, "alpha", first[0].Name)
		require.Equal(t, "epsilon", second[1].Name)
	})

	t.Run("offset past the end yields an empty page", func(t *testing.T) {
		page, err := st.List(ctx, store.ListOrganizationsOptions{Offset: 10, Limit: 3})
		require.NoError(t, err)
		require.Empty(t, page)
	})

	t.Run("list all", func(t *testing.T) {
		all, err := st.List(ctx, store.ListOrganizationsOptions{Offset: store.ListAll, Limit: store.ListAll})
		require.NoError(t, err)
		require.Len(t, all, 5)
	})

	t.Run("filter matches name and description case-insensitively", func(t *testing.T) {
		org := newOrg("zeta")
		org.Description = "the LAST one"
		require.NoError(t, st.Create(ctx, org))

		matched, err := st.List(ctx, store.ListOrganizationsOptions{FilterText: "last", Offset: 0, Limit: 10})
		require.NoError(t, err)
		require.Len(t, matched, 1)
		require.Equal(t, "zeta", matched[0].Name)

		count, err := st.Count(ctx, "ZET")
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})
}

func TestOrganizationStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("update preserves creation time", func(t *testing.T) {
		st := NewOrganizationStore()

		org := newOrg("acme")
		require.NoError(t, st.Create(ctx, org))

		created, err := st.Get(ctx, org.ID)
		require.NoError(t, err)

		org.Description = "updated"
		require.NoError(t, st.Update(ctx, org))

		got, err := st.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "updated", got.Description)
		require.Equal(t, created.CreatedAt, got.CreatedAt)
	})

	t.Run("rename onto an existing name is rejected", func(t *testing.T) {
		st := NewOrganizationStore()

		require.NoError(t, st.Create(ctx, newOrg("acme")))
		other := newOrg("globex")
		require.NoError(t, st.Create(ctx, other))

		other.Name = "acme"
		err := st.Update(ctx, other)
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("update missing organization", func(t *testing.T) {
		st := NewOrganizationStore()

		err := st.Update(ctx, newOrg("ghost"))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})
}

func TestOrganizationStore_Delete(t *testing.T) {
	ctx := context.Background()
	st := NewOrganizationStore()

	org := newOrg("acme")
	require.NoError(t, st.Create(ctx, org))

	require.NoError(t, st.Delete(ctx, org.ID))

	_, err := st.Get(ctx, org.ID)
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)

	err = st.Delete(ctx, org.ID)
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
}
