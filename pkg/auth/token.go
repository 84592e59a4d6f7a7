package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL is the lifetime of issued access tokens
const TokenTTL = 3600 * time.Second

// Claims is the JWT payload: the username (email) and an absolute expiry
// in unix seconds. Expiry is carried in a custom claim rather than the
// registered exp claim, so validation happens in Valid.
type Claims struct {
	Username  string  `json:"username"`
	ExpiresAt float64 `json:"expires_at"`
}

// Valid implements jwt.Claims. The token is valid while expires_at is
// strictly in the future.
func (c Claims) Valid() error {
	if c.Username == "" {
		return ErrInvalidToken
	}
	if float64(time.Now().Unix()) >= c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}

// TokenSigner mints and verifies HS256 access tokens
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner creates a signer with the given HMAC secret
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// Sign mints a token for the given username
func (s *TokenSigner) Sign(username string) (string, error) {
	claims := Claims{
		Username:  username,
		ExpiresAt: float64(s.now().Add(s.ttl).Unix()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", WrapError(CodeAuthentication, "failed to sign token", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded username
func (s *TokenSigner) Verify(tokenString string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if IsCode(err, CodeAuthentication) {
			return "", err
		}
		return "", WrapError(CodeAuthentication, "invalid token", err)
	}
	return claims.Username, nil
}

// TTLSeconds returns the token lifetime in whole seconds for the token
// endpoint response
func (s *TokenSigner) TTLSeconds() int {
	return int(s.ttl / time.Second)
}
