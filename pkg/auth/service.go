package auth

import (
	"context"

	"github.com/pjecz/hercules-api/pkg/observability"
)

// Service is the credential and token core: it authenticates email and
// password pairs, mints access tokens, and resolves bearer tokens back
// to identities
type Service struct {
	store  UserStore
	signer *TokenSigner
	logger *observability.Logger
}

// NewService creates the credential service
func NewService(store UserStore, signer *TokenSigner, logger *observability.Logger) *Service {
	return &Service{
		store:  store,
		signer: signer,
		logger: logger,
	}
}

// Authenticate verifies an email and password pair and returns the
// resolved identity. Every failure is classified; callers at the HTTP
// boundary collapse all of them to a single 401 response.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.GetActiveUserByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if identity.PasswordHash == "" {
		return nil, ErrMissingHash
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	if err := VerifyPassword(password, identity.PasswordHash); err != nil {
		return nil, err
	}

	return identity, nil
}

// IssueToken mints an access token for the identity
func (s *Service) IssueToken(identity *Identity) (string, error) {
	return s.signer.Sign(identity.Email)
}

// TokenTTLSeconds returns the token lifetime for the token endpoint response
func (s *Service) TokenTTLSeconds() int {
	return s.signer.TTLSeconds()
}

// ValidateToken verifies a bearer token and re-resolves the identity it
// names. The user lookup repeats the active-user check, so a deactivated
// user's outstanding tokens stop working immediately.
func (s *Service) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	username, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizeEmail(username)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.GetActiveUserByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}

	return identity, nil
}
