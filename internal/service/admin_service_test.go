package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/repository/postgres"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_KickAndUnban(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	admin := service.NewAdminService(store)
	ctx := context.Background()

	adminIdentity, _ := testutil.NewIdentityBuilder().
		WithRole(domain.RoleAdmin).
		Build(t, testDB.DB)
	target, _ := testutil.NewIdentityBuilder().Build(t, testDB.DB)
	bystander, _ := testutil.NewIdentityBuilder().Build(t, testDB.DB)

	t.Run("non-admin cannot kick", func(t *testing.T) {
		_, err := admin.Kick(ctx, bystander.Key, target.Key, 10*time.Minute)
		assert.ErrorIs(t, err, domain.ErrNotAdmin)
	})

	t.Run("kick sets the unlock time", func(t *testing.T) {
		kicked, err := admin.Kick(ctx, adminIdentity.Key, target.Key, 10*time.Minute)
		require.NoError(t, err)
		require.NotNil(t, kicked.BannedUntil)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *kicked.BannedUntil, 5*time.Second)
		assert.True(t, kicked.Banned(time.Now()))
	})

	t.Run("kick unknown target", func(t *testing.T) {
		_, err := admin.Kick(ctx, adminIdentity.Key, "🐙🐙🐙", 10*time.Minute)
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	})

	t.Run("unban clears the ban entirely", func(t *testing.T) {
		unbanned, err := admin.Unban(ctx, adminIdentity.Key, target.Key)
		require.NoError(t, err)
		assert.Nil(t, unbanned.BannedUntil)
		assert.False(t, unbanned.Banned(time.Now()))
	})
}

func TestAdminService_Rename(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	admin := service.NewAdminService(store)
	ctx := context.Background()

	adminIdentity, _ := testutil.NewIdentityBuilder().
		WithRole(domain.RoleAdmin).
		Build(t, testDB.DB)
	user, _ := testutil.NewIdentityBuilder().Build(t, testDB.DB)
	testutil.SeedSystemConfig(t, testDB.DB, adminIdentity.Key)

	_, err := admin.Rename(ctx, user.Key, "Hijacked")
	assert.ErrorIs(t, err, domain.ErrNotAdmin)

	cfg, err := admin.Rename(ctx, adminIdentity.Key, "Critter Cave")
	require.NoError(t, err)
	assert.Equal(t, "Critter Cave", cfg.AppName)

	stored, err := store.SystemConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Critter Cave", stored.AppName)
}
