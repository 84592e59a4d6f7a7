package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "actuario@pjecz.gob.mx", "actuario@pjecz.gob.mx", false},
		{"uppercase", "ACTUARIO@PJECZ.GOB.MX", "actuario@pjecz.gob.mx", false},
		{"whitespace", "  actuario@pjecz.gob.mx \n", "actuario@pjecz.gob.mx", false},
		{"dots and dashes", "juan.perez-lopez@poder-judicial.gob.mx", "juan.perez-lopez@poder-judicial.gob.mx", false},
		{"missing at", "actuariopjecz.gob.mx", "", true},
		{"missing tld", "actuario@pjecz", "", true},
		{"empty", "", "", true},
		{"spaces inside", "actu ario@pjecz.gob.mx", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeEmail(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abcdef12", false},
		{"valid long", "Abcdefghijklmnopqrst1234", false},
		{"too short", "Abc1234", true},
		{"too long", "Abcdefghijklmnopqrst12345", true},
		{"no uppercase", "abcdef12", true},
		{"no lowercase", "ABCDEF12", true},
		{"no digit", "Abcdefgh", true},
		{"symbol", "Abcdef12!", true},
		{"space", "Abcdef 12", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Abcdef12")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$pbkdf2-sha256$29000$"))
	assert.NotContains(t, hash, "+")
	assert.NotContains(t, hash, "=")

	assert.NoError(t, VerifyPassword("Abcdef12", hash))
	assert.Error(t, VerifyPassword("Abcdef13", hash))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("Abcdef12")
	require.NoError(t, err)
	second, err := HashPassword("Abcdef12")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordEmptyKey(t *testing.T) {
	salt := []byte("0123456789abcdef")
	hash := "$pbkdf2-sha256$1000$" + ab64Encode(salt) + "$"
	assert.Error(t, VerifyPassword("Abcdef12", hash))
}

func TestVerifyPasswordUnsupportedScheme(t *testing.T) {
	err := VerifyPassword("Abcdef12", "ab0GcirhAMSB2")
	assert.True(t, IsCode(err, CodeAuthentication))

	err = VerifyPassword("Abcdef12", "$2b$12$abcdefghijklmnopqrstuv")
	assert.True(t, IsCode(err, CodeAuthentication))
}

func TestVerifyPasswordMalformed(t *testing.T) {
	cases := []string{
		"$pbkdf2-sha256$",
		"$pbkdf2-sha256$abc$salt$key",
		"$pbkdf2-sha256$0$salt$key",
		"$pbkdf2-sha256$29000$!!$key",
	}
	for _, hash := range cases {
		assert.Error(t, VerifyPassword("Abcdef12", hash), hash)
	}
}

func TestAb64RoundTrip(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x00, 0x01, 0x7e}
	encoded := ab64Encode(data)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "=")

	decoded, err := ab64Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
