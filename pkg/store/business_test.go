package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBusiness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("returns the API key exactly once", func(t *testing.T) {
		business, key, err := st.CreateBusiness(ctx, CreateBusinessRequest{
			OwnerID:      "owner-1",
			BusinessName: "Acme Dental",
		})
		require.NoError(t, err)
		require.NotEmpty(t, business.ID)
		require.Len(t, key, 64)

		found, err := st.LookupBusinessByKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, business.ID, found.ID)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, _, err := st.CreateBusiness(ctx, CreateBusinessRequest{
			OwnerID:      "owner-2",
			BusinessName: "Acme Dental",
		})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, _, err := st.CreateBusiness(ctx, CreateBusinessRequest{OwnerID: "owner-3"})
		assert.True(t, IsValidationError(err))
	})
}

func TestLookupBusinessByKey(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedBusiness(t, st, "Lookup Co")

	_, err := st.LookupBusinessByKey(ctx, "not-a-key")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.LookupBusinessByKey(ctx, "")
	assert.Error(t, err)
}

func TestPlatformBindings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Binding Co")

	t.Run("binds and resolves", func(t *testing.T) {
		_, err := st.BindPlatformAccount(ctx, business.ID, "messenger", "page-123")
		require.NoError(t, err)

		found, err := st.LookupBusinessByPlatformAccount(ctx, "messenger", "page-123")
		require.NoError(t, err)
		assert.Equal(t, business.ID, found.ID)
	})

	t.Run("account is unique per platform", func(t *testing.T) {
		other := seedBusiness(t, st, "Binding Rival")
		_, err := st.BindPlatformAccount(ctx, other.ID, "messenger", "page-123")
		assert.ErrorIs(t, err, ErrAlreadyExists)

		// Same account ID on another platform is a different binding.
		_, err = st.BindPlatformAccount(ctx, other.ID, "whatsapp", "page-123")
		assert.NoError(t, err)
	})

	t.Run("rejects unknown platforms", func(t *testing.T) {
		_, err := st.BindPlatformAccount(ctx, business.ID, "telegraph", "x")
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown account is not found", func(t *testing.T) {
		_, err := st.LookupBusinessByPlatformAccount(ctx, "messenger", "page-999")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEnsureUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("creates an unknown user", func(t *testing.T) {
		user, err := st.EnsureUser(ctx, "visitor-1")
		require.NoError(t, err)
		assert.Equal(t, "visitor-1", user.ID)
		assert.Equal(t, "Guest", user.FullName())
	})

	t.Run("returns the existing user on repeat", func(t *testing.T) {
		first, err := st.EnsureUser(ctx, "visitor-2")
		require.NoError(t, err)
		again, err := st.EnsureUser(ctx, "visitor-2")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("assigns an ID when none is given", func(t *testing.T) {
		user, err := st.EnsureUser(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
	})
}

func TestUpdateUserProfile(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.EnsureUser(ctx, "visitor-3")
	require.NoError(t, err)

	user, err := st.UpdateUserProfile(ctx, "visitor-3", "Ada", "Lovelace", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.FullName())
	assert.Equal(t, "ada@example.com", user.Email)
}
