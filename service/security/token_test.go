package security

import (
	"testing"
	"time"

	"github.com/danglnh07/titan/util"
	"github.com/stretchr/testify/require"
)

func testService() *JWTService {
	return NewJWTService(&util.Config{
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Hour,
		RefreshTokenExpiration: time.Hour * 24,
	})
}

func TestToken(t *testing.T) {
	service := testService()

	for _, tokenType := range []TokenType{AccessToken, RefreshToken} {
		// Create token
		token, err := service.CreateToken("user-1", "ada", false, tokenType)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		// Verify token
		result, err := service.VerifyToken(token)
		require.NoError(t, err)
		require.NotEmpty(t, result)

		// Compare the test data with the extracted claims
		require.Equal(t, "user-1", result.ID)
		require.Equal(t, "ada", result.Nickname)
		require.False(t, result.IsAdmin)
		require.Equal(t, tokenType, result.TokenType)
	}
}

func TestTokenInvalidType(t *testing.T) {
	service := testService()

	_, err := service.CreateToken("user-1", "ada", false, TokenType("session"))
	require.Error(t, err)
}

func TestVerifyGarbageToken(t *testing.T) {
	service := testService()

	_, err := service.VerifyToken("not.a.token")
	require.Error(t, err)
}

func TestBcrypt(t *testing.T) {
	hash, err := BcryptHash("hunter22")
	require.NoError(t, err)
	require.True(t, BcryptCompare(hash, "hunter22"))
	require.False(t, BcryptCompare(hash, "hunter23"))
}
