package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentityService(t *testing.T) *IdentityService {
	t.Helper()
	svc := NewIdentityService(testdb.Open(t))
	svc.now = newTestClock().Now
	return svc
}

func countUsers(t *testing.T, svc *IdentityService) int64 {
	t.Helper()
	var n int64
	require.NoError(t, svc.db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestResolveByProvider_CreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdentityService(t)

	first, err := svc.ResolveByProvider(ctx, ProviderIdentity{
		ProviderUserID: "1001",
		Email:          "Ivan@Example.com",
		DisplayName:    "Ivan Petrov",
		AvatarURL:      "https://vk.test/a.jpg",
	})
	require.NoError(t, err)
	require.NotNil(t, first.VKID)
	assert.Equal(t, "1001", *first.VKID)
	require.NotNil(t, first.Email)
	assert.Equal(t, "ivan@example.com", *first.Email)
	assert.Equal(t, "Ivan Petrov", first.Name)
	assert.True(t, first.EmailVerified)
	require.NotNil(t, first.LastLoginAt)

	second, err := svc.ResolveByProvider(ctx, ProviderIdentity{
		ProviderUserID: "1001",
		DisplayName:    "Ivan P.",
		AvatarURL:      "https://vk.test/b.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ivan P.", second.Name)
	require.NotNil(t, second.AvatarURL)
	assert.Equal(t, "https://vk.test/b.jpg", *second.AvatarURL)
	require.NotNil(t, second.Email)
	assert.Equal(t, "ivan@example.com", *second.Email)

	assert.Equal(t, int64(1), countUsers(t, svc))
}

func TestResolveByProvider_RequiresID(t *testing.T) {
	svc := newTestIdentityService(t)
	_, err := svc.ResolveByProvider(context.Background(), ProviderIdentity{DisplayName: "x"})
	assert.Error(t, err)
	assert.Equal(t, int64(0), countUsers(t, svc))
}

func TestResolveByProvider_LinksEmailAccount(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdentityService(t)

	emailUser, err := svc.ResolveByEmail(ctx, "olga@example.com", "Olga", "secret-pass")
	require.NoError(t, err)

	linked, err := svc.ResolveByProvider(ctx, ProviderIdentity{
		ProviderUserID: "2002",
		Email:          "olga@example.com",
		DisplayName:    "Olga S",
	})
	require.NoError(t, err)
	assert.Equal(t, emailUser.ID, linked.ID)
	require.NotNil(t, linked.VKID)
	assert.Equal(t, "2002", *linked.VKID)
	assert.NotEmpty(t, linked.PasswordHash)
	assert.Equal(t, int64(1), countUsers(t, svc))
}

func TestResolveByProvider_EmailOwnedByOtherVKAccount(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdentityService(t)

	owner, err := svc.ResolveByProvider(ctx, ProviderIdentity{ProviderUserID: "3003", Email: "shared@example.com", DisplayName: "A"})
	require.NoError(t, err)

	other, err := svc.ResolveByProvider(ctx, ProviderIdentity{ProviderUserID: "3004", Email: "shared@example.com", DisplayName: "B"})
	require.NoError(t, err)

	assert.NotEqual(t, owner.ID, other.ID)
	assert.Nil(t, other.Email)
	assert.Equal(t, int64(2), countUsers(t, svc))
}

func TestResolveByEmail_CreatesAndChecksPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdentityService(t)

	created, err := svc.ResolveByEmail(ctx, "max@example.com", "Max", "correct horse")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEqual(t, "correct horse", created.PasswordHash)
	assert.True(t, created.EmailVerified)

	again, err := svc.ResolveByEmail(ctx, "max@example.com", "Ignored", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Max", again.Name)

	_, err = svc.ResolveByEmail(ctx, "max@example.com", "Max", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, int64(1), countUsers(t, svc))
}

func TestResolveByEmail_AdoptsPasswordForProviderAccount(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdentityService(t)

	vkUser, err := svc.ResolveByProvider(ctx, ProviderIdentity{ProviderUserID: "4004", Email: "nina@example.com", DisplayName: "Nina"})
	require.NoError(t, err)
	assert.Empty(t, vkUser.PasswordHash)

	user, err := svc.ResolveByEmail(ctx, "nina@example.com", "", "first-password")
	require.NoError(t, err)
	assert.Equal(t, vkUser.ID, user.ID)

	_, err = svc.ResolveByEmail(ctx, "nina@example.com", "", "other-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc := newTestIdentityService(t)

	_, err := svc.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := svc.ResolveByEmail(ctx, "paul@example.com", "Paul", "pw")
	require.NoError(t, err)
	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paul", got.Name)
}
