package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_TokenPairRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "matrixtwin")

	access, refresh, err := svc.GenerateTokenPair("user-1", "pm@example.com", "pm", "user")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "pm@example.com", claims.Email)
	assert.Equal(t, "access", claims.TokenType)

	refreshClaims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
}

func TestJWTService_RejectsWrongTokenType(t *testing.T) {
	svc := NewJWTService("test-secret", "matrixtwin")

	access, refresh, err := svc.GenerateTokenPair("user-1", "pm@example.com", "pm", "user")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	access, _, err := NewJWTService("secret-a", "matrixtwin").GenerateTokenPair("u", "e", "n", "user")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", "matrixtwin").ValidateAccessToken(access)
	assert.Error(t, err)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("abc"))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "Ab1", ErrPasswordTooShort},
		{"only lowercase", "abcdefgh", ErrPasswordTooWeak},
		{"mixed case and digit", "Abcdefg1", nil},
		{"lower digit symbol", "abcdef1!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
