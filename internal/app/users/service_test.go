package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundshelf/internal/apperr"
	"soundshelf/internal/auth"
	"soundshelf/internal/models"
	"soundshelf/internal/store"
	"soundshelf/internal/store/memstore"
)

type fixture struct {
	svc    Service
	tokens *auth.Tokens
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour, "soundshelf-test")
	return fixture{
		svc:    New(memstore.New(), auth.NewCredentials(auth.MinCost), tokens),
		tokens: tokens,
	}
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, models.RoleAdmin, alice.Role)

	bob, err := f.svc.Register(ctx, "bob", "password2", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, bob.Role)

	identity, err := f.tokens.Verify(bob.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, identity.Role)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "alice", "password1", "alice2@example.com")
	require.ErrorIs(t, err, store.ErrUserExists)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	users, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		email    string
	}{
		{name: "short username", username: "al", password: "password1", email: "alice@example.com"},
		{name: "short password", username: "alice", password: "pass", email: "alice@example.com"},
		{name: "short email", username: "alice", password: "password1", email: "a@b.c"},
		{name: "email without at", username: "alice", password: "password1", email: "alice.example.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Register(context.Background(), tc.username, tc.password, tc.email)
			assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
		})
	}
}

func TestLoginRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Username)

	want, err := f.tokens.Verify(registered.Token)
	require.NoError(t, err)
	got, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "alice@example.com", "password2")
	_, unknownEmail := f.svc.Login(ctx, "nobody@example.com", "password1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(wrongPassword))
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)
	bob, err := f.svc.Register(ctx, "bob", "password2", "bob@example.com")
	require.NoError(t, err)
	identity, err := f.tokens.Verify(bob.Token)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "bob", refreshed.Username)

	require.NoError(t, f.svc.Delete(ctx, identity.UserID))
	_, err = f.svc.Refresh(ctx, identity.UserID)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, "bob", "password2", "bob@example.com")
	require.NoError(t, err)
	bob, err := f.svc.ByUsername(ctx, "bob")
	require.NoError(t, err)

	updated, err := f.svc.UpdateRole(ctx, bob.ID, models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, updated.Role)

	_, err = f.svc.UpdateRole(ctx, bob.ID, models.RoleAdmin)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	_, err = f.svc.UpdateRole(ctx, 404, models.RoleBanned)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAdminCannotBeDemotedOrDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)
	alice, err := f.svc.ByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, alice.Role)

	for _, role := range []models.Role{models.RoleUser, models.RoleEditor, models.RoleBanned} {
		_, err = f.svc.UpdateRole(ctx, alice.ID, role)
		assert.ErrorIs(t, err, ErrAdminProtected, "role %s", role)
	}
	err = f.svc.Delete(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrAdminProtected)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	still, err := f.svc.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, still.Role)

	err = f.svc.Delete(ctx, 404)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	require.NoError(t, err)
	alice, err := f.svc.ByUsername(ctx, "alice")
	require.NoError(t, err)

	err = f.svc.UpdatePassword(ctx, alice.ID, "wrong-password", "password-new")
	require.ErrorIs(t, err, ErrWrongPassword)
	_, err = f.svc.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err, "credential must be unchanged after a failed update")

	require.NoError(t, f.svc.UpdatePassword(ctx, alice.ID, "password1", "password-new"))

	_, err = f.svc.Login(ctx, "alice@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice@example.com", "password-new")
	assert.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Register(ctx, "alice", "password1", "alice@example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
