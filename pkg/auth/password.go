package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Prefix identifies the modern hash scheme in stored hashes
	pbkdf2Prefix = "$pbkdf2-sha256$"
	// pbkdf2Rounds is the iteration count for newly created hashes
	pbkdf2Rounds = 29000
	// pbkdf2SaltSize is the salt length in bytes for newly created hashes
	pbkdf2SaltSize = 16
	// pbkdf2KeySize is the derived key length for HMAC-SHA256
	pbkdf2KeySize = 32
)

var emailRegexp = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// NormalizeEmail trims whitespace, lowercases, and validates the address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegexp.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidatePassword enforces the password policy: 8 to 24 characters,
// letters and digits only, with at least one lowercase letter, one
// uppercase letter, and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 24 {
		return ErrInvalidPassword
	}
	var hasLower, hasUpper, hasDigit bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			return ErrInvalidPassword
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return ErrInvalidPassword
	}
	return nil
}

// ab64Encode encodes bytes in the adapted base64 alphabet used by stored
// hashes: standard base64 with "+" replaced by "." and padding omitted
func ab64Encode(data []byte) string {
	encoded := base64.RawStdEncoding.EncodeToString(data)
	return strings.ReplaceAll(encoded, "+", ".")
}

// ab64Decode reverses ab64Encode
func ab64Decode(data string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(data, ".", "+"))
}

// HashPassword derives a PBKDF2-HMAC-SHA256 hash in the stored format
// $pbkdf2-sha256$rounds$salt$key with a fresh random salt
func HashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, pbkdf2KeySize, sha256.New)
	return fmt.Sprintf("%s%d$%s$%s", pbkdf2Prefix, pbkdf2Rounds, ab64Encode(salt), ab64Encode(key)), nil
}

// VerifyPassword checks a plaintext password against a stored hash.
// The scheme is dispatched on the hash prefix; hashes in any scheme other
// than pbkdf2-sha256 fail verification.
func VerifyPassword(password, hash string) error {
	if !strings.HasPrefix(hash, pbkdf2Prefix) {
		return WrapError(CodeAuthentication, "unsupported hash scheme", nil)
	}

	// $pbkdf2-sha256$rounds$salt$key
	parts := strings.Split(hash, "$")
	if len(parts) != 5 {
		return WrapError(CodeAuthentication, "malformed hash", nil)
	}

	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return WrapError(CodeAuthentication, "malformed hash rounds", err)
	}

	salt, err := ab64Decode(parts[3])
	if err != nil {
		return WrapError(CodeAuthentication, "malformed hash salt", err)
	}

	expected, err := ab64Decode(parts[4])
	if err != nil || len(expected) == 0 {
		return WrapError(CodeAuthentication, "malformed hash key", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, rounds, len(expected), sha256.New)
	if !hmac.Equal(derived, expected) {
		return ErrWrongPassword
	}
	return nil
}
