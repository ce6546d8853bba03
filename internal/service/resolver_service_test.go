package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/repository/postgres"
	"github.com/mlhuang/critterchat/internal/service"
	"github.com/mlhuang/critterchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverService_Resolve_NewAccounts(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	resolver := service.NewResolverService(store)
	ctx := context.Background()

	// First account ever created becomes admin and provisions the room.
	first, err := resolver.Resolve(ctx, service.ResolveInput{
		Symbols:     []string{"🐶", "🐱", "🦊"},
		PIN:         "1234",
		DisplayName: "Rex",
		SessionID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, first.IsNewAccount)
	assert.Equal(t, domain.RoleAdmin, first.Identity.Role)

	cfg, err := store.SystemConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.Initialized)
	assert.Equal(t, first.Identity.Key, cfg.AdminKey)

	channel, err := store.GetChannel(ctx, domain.DefaultChannelID)
	require.NoError(t, err)
	assert.Equal(t, first.Identity.Key, channel.CreatedBy)

	// Every later account is a plain user.
	second, err := resolver.Resolve(ctx, service.ResolveInput{
		Symbols:     []string{"🐼", "🐼", "🐙"},
		PIN:         "5678",
		DisplayName: "Bamboo",
		SessionID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, second.IsNewAccount)
	assert.Equal(t, domain.RoleUser, second.Identity.Role)
}

func TestResolverService_Resolve_Validation(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	resolver := service.NewResolverService(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.ResolveInput
		wantErr error
	}{
		{
			name: "short symbol list",
			input: service.ResolveInput{
				Symbols: []string{"🐶", "🐱"},
				PIN:     "1234",
			},
			wantErr: domain.ErrInvalidKey,
		},
		{
			name: "foreign symbol",
			input: service.ResolveInput{
				Symbols: []string{"🐶", "🐱", "🍕"},
				PIN:     "1234",
			},
			wantErr: domain.ErrInvalidKey,
		},
		{
			name: "malformed pin",
			input: service.ResolveInput{
				Symbols: []string{"🐶", "🐱", "🦊"},
				PIN:     "12",
			},
			wantErr: domain.ErrInvalidPIN,
		},
		{
			name: "new key without display name",
			input: service.ResolveInput{
				Symbols:     []string{"🐶", "🐱", "🦊"},
				PIN:         "1234",
				DisplayName: "   ",
			},
			wantErr: domain.ErrDisplayNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.SessionID = uuid.New()
			_, err := resolver.Resolve(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolverService_Resolve_ExistingAccount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	resolver := service.NewResolverService(store)
	ctx := context.Background()

	symbols := []string{"🐰", "🐸", "🦄"}
	oldSession := uuid.New()
	identity, pin := testutil.NewIdentityBuilder().
		WithSymbols(symbols).
		WithPIN("4321").
		WithSessionID(oldSession).
		Build(t, testDB.DB)

	t.Run("correct pin rebinds the session", func(t *testing.T) {
		newSession := uuid.New()
		result, err := resolver.Resolve(ctx, service.ResolveInput{
			Symbols:   symbols,
			PIN:       pin,
			SessionID: newSession,
		})
		require.NoError(t, err)
		assert.False(t, result.IsNewAccount)
		assert.Equal(t, newSession, result.Identity.SessionID)
		assert.NotNil(t, result.Identity.LastLoginAt)
		assert.NotNil(t, result.Identity.LastSeenAt)
	})

	t.Run("wrong pin mutates nothing", func(t *testing.T) {
		before, err := store.GetIdentity(ctx, identity.Key)
		require.NoError(t, err)

		_, err = resolver.Resolve(ctx, service.ResolveInput{
			Symbols:   symbols,
			PIN:       "0000",
			SessionID: uuid.New(),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)

		after, err := store.GetIdentity(ctx, identity.Key)
		require.NoError(t, err)
		assert.Equal(t, before.SessionID, after.SessionID)
	})
}

func TestResolverService_Resolve_Banned(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	resolver := service.NewResolverService(store)
	ctx := context.Background()

	symbols := []string{"🐻", "🐯", "🐧"}
	until := time.Now().Add(10 * time.Minute)
	oldSession := uuid.New()
	identity, pin := testutil.NewIdentityBuilder().
		WithSymbols(symbols).
		WithSessionID(oldSession).
		WithBannedUntil(until).
		Build(t, testDB.DB)

	// A banned identity cannot be rebound even with the right PIN.
	_, err := resolver.Resolve(ctx, service.ResolveInput{
		Symbols:   symbols,
		PIN:       pin,
		SessionID: uuid.New(),
	})

	var banned *domain.BannedError
	require.ErrorAs(t, err, &banned)
	assert.WithinDuration(t, until, banned.Until, time.Second)

	after, err := store.GetIdentity(ctx, identity.Key)
	require.NoError(t, err)
	assert.Equal(t, oldSession, after.SessionID)

	// Once the ban lapses, login works again.
	expired := time.Now().Add(-time.Minute)
	_, err = store.PatchIdentity(ctx, identity.Key, domain.IdentityPatch{BannedUntil: &expired})
	require.NoError(t, err)

	result, err := resolver.Resolve(ctx, service.ResolveInput{
		Symbols:   symbols,
		PIN:       pin,
		SessionID: uuid.New(),
	})
	require.NoError(t, err)
	assert.False(t, result.IsNewAccount)
}

func TestResolverService_Resume(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	store := directory.NewStore(repos)
	t.Cleanup(store.Close)
	resolver := service.NewResolverService(store)
	ctx := context.Background()

	sessionID := uuid.New()
	identity, _ := testutil.NewIdentityBuilder().
		WithSessionID(sessionID).
		Build(t, testDB.DB)

	t.Run("own session resumes silently", func(t *testing.T) {
		got, err := resolver.Resume(ctx, identity.Key, sessionID)
		require.NoError(t, err)
		assert.Equal(t, identity.Key, got.Key)
	})

	t.Run("foreign session is rejected", func(t *testing.T) {
		_, err := resolver.Resume(ctx, identity.Key, uuid.New())
		assert.ErrorIs(t, err, domain.ErrSessionSuperseded)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := resolver.Resume(ctx, "🐙🐙🐙", sessionID)
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	})
}
