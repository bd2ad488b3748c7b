package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

func setupTestManager() *Manager {
	return NewManager(&Config{
		Secret:            "test-secret-key-for-jwt-token-signing",
		AccessExpireTime:  15 * time.Minute,
		RefreshExpireTime: 7 * 24 * time.Hour,
		Issuer:            "test-issuer",
	})
}

func TestNewManagerFromConfig(t *testing.T) {
	m := NewManagerFromConfig(&config.JWTConfig{
		Secret:          "secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "hotel",
	})

	assert.Equal(t, time.Hour, m.cfg.AccessExpireTime)
	assert.Equal(t, 24*time.Hour, m.cfg.RefreshExpireTime)
	assert.Equal(t, "hotel", m.cfg.Issuer)
}

func TestManager_GenerateTokenPair(t *testing.T) {
	manager := setupTestManager()

	tests := []struct {
		name     string
		userID   int64
		userType string
		role     string
	}{
		{"普通用户", 12345, UserTypeUser, ""},
		{"管理员", 1, UserTypeAdmin, "super_admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := manager.GenerateTokenPair(tt.userID, tt.userType, tt.role)
			require.NoError(t, err)
			assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
			assert.InDelta(t, time.Now().Add(15*time.Minute).Unix(), pair.ExpiresAt, 5)

			access, err := manager.ParseAccessToken(pair.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, access.UserID)
			assert.Equal(t, tt.userType, access.UserType)
			assert.Equal(t, tt.role, access.Role)
			assert.Equal(t, TokenTypeAccess, access.TokenType)
			assert.Equal(t, "test-issuer", access.Issuer)

			refresh, err := manager.ParseToken(pair.RefreshToken)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
		})
	}
}

func TestClaims_IsOperator(t *testing.T) {
	assert.True(t, (&Claims{UserType: UserTypeAdmin}).IsOperator())
	assert.False(t, (&Claims{UserType: UserTypeUser}).IsOperator())
}

func TestManager_ParseToken_Invalid(t *testing.T) {
	manager := setupTestManager()

	tests := []struct {
		name  string
		token string
	}{
		{"空令牌", ""},
		{"格式错误", "not-a-jwt"},
		{"三段但内容无效", "aaa.bbb.ccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := manager.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestManager_ParseToken_WrongSecret(t *testing.T) {
	pair, err := setupTestManager().GenerateTokenPair(1, UserTypeUser, "")
	require.NoError(t, err)

	other := NewManager(&Config{Secret: "another-secret", AccessExpireTime: time.Minute})
	_, err = other.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_ParseToken_WrongIssuer(t *testing.T) {
	pair, err := setupTestManager().GenerateTokenPair(1, UserTypeUser, "")
	require.NoError(t, err)

	other := NewManager(&Config{Secret: "test-secret-key-for-jwt-token-signing", Issuer: "someone-else"})
	_, err = other.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_ParseToken_Expired(t *testing.T) {
	manager := NewManager(&Config{
		Secret:            "secret",
		AccessExpireTime:  -time.Minute,
		RefreshExpireTime: -time.Minute,
	})

	pair, err := manager.GenerateTokenPair(1, UserTypeUser, "")
	require.NoError(t, err)

	_, err = manager.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = manager.RefreshToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_ParseAccessToken_RejectsRefreshToken(t *testing.T) {
	manager := setupTestManager()
	pair, err := manager.GenerateTokenPair(7, UserTypeUser, "")
	require.NoError(t, err)

	_, err = manager.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenWrongType)
}

func TestManager_RefreshToken(t *testing.T) {
	manager := setupTestManager()
	pair, err := manager.GenerateTokenPair(42, UserTypeAdmin, "admin")
	require.NoError(t, err)

	t.Run("刷新令牌换取新令牌对", func(t *testing.T) {
		newPair, err := manager.RefreshToken(pair.RefreshToken)
		require.NoError(t, err)

		claims, err := manager.ParseAccessToken(newPair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("访问令牌不能用于刷新", func(t *testing.T) {
		_, err := manager.RefreshToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenWrongType)
	})

	t.Run("无效令牌", func(t *testing.T) {
		_, err := manager.RefreshToken(strings.Repeat("x", 20))
		assert.Error(t, err)
	})
}

func BenchmarkParseAccessToken(b *testing.B) {
	manager := setupTestManager()
	pair, _ := manager.GenerateTokenPair(1, UserTypeUser, "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = manager.ParseAccessToken(pair.AccessToken)
	}
}
