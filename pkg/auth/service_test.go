package auth

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjecz/hercules-api/pkg/observability"
)

type fakeUserStore struct {
	users map[string]*Identity
	errs  map[string]error
}

func (f *fakeUserStore) GetActiveUserByEmail(ctx context.Context, email string) (*Identity, error) {
	if err, ok := f.errs[email]; ok {
		return nil, err
	}
	if identity, ok := f.users[email]; ok {
		return identity, nil
	}
	return nil, ErrUserNotFound
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewService(store, NewTokenSigner("test-secret"), logger)
}

func seededStore(t *testing.T, password string) *fakeUserStore {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &fakeUserStore{
		users: map[string]*Identity{
			"actuario@pjecz.gob.mx": {
				ID:           7,
				Email:        "actuario@pjecz.gob.mx",
				Nombres:      "Maria",
				PasswordHash: hash,
			},
		},
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	identity, err := service.Authenticate(context.Background(), "  ACTUARIO@pjecz.gob.mx ", "Abcdef12")

	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.ID)
	assert.Equal(t, "actuario@pjecz.gob.mx", identity.Email)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	_, err := service.Authenticate(context.Background(), "actuario@pjecz.gob.mx", "Abcdef13")

	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestAuthenticateInvalidEmail(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	_, err := service.Authenticate(context.Background(), "not-an-email", "Abcdef12")

	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAuthenticateWeakPasswordRejectedBeforeVerify(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	_, err := service.Authenticate(context.Background(), "actuario@pjecz.gob.mx", "short")

	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	_, err := service.Authenticate(context.Background(), "nadie@pjecz.gob.mx", "Abcdef12")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	store := seededStore(t, "Abcdef12")
	store.errs = map[string]error{"baja@pjecz.gob.mx": ErrUserDeleted}
	service := newTestService(t, store)

	_, err := service.Authenticate(context.Background(), "baja@pjecz.gob.mx", "Abcdef12")

	assert.ErrorIs(t, err, ErrUserDeleted)
}

func TestAuthenticateEmptyStoredHash(t *testing.T) {
	store := &fakeUserStore{
		users: map[string]*Identity{
			"sinclave@pjecz.gob.mx": {ID: 9, Email: "sinclave@pjecz.gob.mx"},
		},
	}
	service := newTestService(t, store)

	_, err := service.Authenticate(context.Background(), "sinclave@pjecz.gob.mx", "Abcdef12")

	assert.ErrorIs(t, err, ErrMissingHash)
}

func TestIssueAndValidateToken(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	identity, err := service.Authenticate(context.Background(), "actuario@pjecz.gob.mx", "Abcdef12")
	require.NoError(t, err)

	token, err := service.IssueToken(identity)
	require.NoError(t, err)

	resolved, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, identity.Email, resolved.Email)
	assert.Equal(t, 3600, service.TokenTTLSeconds())
}

func TestValidateTokenUserDeactivatedAfterIssue(t *testing.T) {
	store := seededStore(t, "Abcdef12")
	service := newTestService(t, store)

	identity, err := service.Authenticate(context.Background(), "actuario@pjecz.gob.mx", "Abcdef12")
	require.NoError(t, err)

	token, err := service.IssueToken(identity)
	require.NoError(t, err)

	// deactivate between issue and use
	store.errs = map[string]error{"actuario@pjecz.gob.mx": ErrUserDeleted}

	_, err = service.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserDeleted)
}

func TestValidateTokenGarbage(t *testing.T) {
	service := newTestService(t, seededStore(t, "Abcdef12"))

	_, err := service.ValidateToken(context.Background(), "garbage")
	assert.True(t, IsCode(err, CodeAuthentication))
}
