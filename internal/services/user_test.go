package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService() (*UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing at", "ana.example.com", "secret1"},
		{"missing tld", "ana@example", "secret1"},
		{"empty email", "", "secret1"},
		{"space in local part", "ana maria@example.com", "secret1"},
		{"symbol in domain", "ana@exa$mple.com", "secret1"},
		{"short password", "ana@example.com", "12345"},
		{"password over bcrypt limit", "ana@example.com", strings.Repeat("p", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegister_AcceptsNonASCIIEmails(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	for _, email := range []string{"josé@example.com", "müller@web.de", "ana@correo.es", "李@例え.jp", "a_b-c.d@x-y.com"} {
		t.Run(email, func(t *testing.T) {
			assert.NoError(t, svc.Register(ctx, email, "secret1"))
		})
	}
}

func TestRegister_PasswordLengthCountsCharacters(t *testing.T) {
	svc, _ := newTestUserService()

	// five runes, ten bytes
	assert.ErrorIs(t, svc.Register(context.Background(), "u@example.com", "ñññññ"), ErrInvalidInput)
	assert.NoError(t, svc.Register(context.Background(), "u@example.com", "ññññññ"))
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, repo := newTestUserService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ana@example.com", "secret1"))

	stored, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	id, ok, err := svc.Authenticate(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stored.ID, id)

	id, ok, err = svc.Authenticate(ctx, "ana@example.com", "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)

	_, ok, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "dup@example.com", "secret1"))
	assert.ErrorIs(t, svc.Register(ctx, "dup@example.com", "secret2"), ErrDuplicateUser)
}

func TestAuthenticate_RepositoryError(t *testing.T) {
	svc, repo := newTestUserService()
	repo.failGet = errBoom

	_, ok, err := svc.Authenticate(context.Background(), "ana@example.com", "secret1")
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, ok)
}

func TestGetProfile(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ana@example.com", "secret1"))
	id, _, err := svc.Authenticate(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.False(t, profile.RegisteredAt.IsZero())

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ana@example.com", "secret1"))
	id, _, err := svc.Authenticate(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	// too-short new password wins over every other failure
	assert.ErrorIs(t, svc.ChangePassword(ctx, 999, "wrong", "123"), ErrInvalidInput)
	assert.ErrorIs(t, svc.ChangePassword(ctx, 999, "secret1", "secret2"), ErrNotFound)
	assert.ErrorIs(t, svc.ChangePassword(ctx, id, "wrong", "secret2"), ErrUnauthorized)

	require.NoError(t, svc.ChangePassword(ctx, id, "secret1", "secret2"))

	_, ok, err := svc.Authenticate(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Authenticate(ctx, "ana@example.com", "secret2")
	require.NoError(t, err)
	assert.True(t, ok)
}
