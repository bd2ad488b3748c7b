package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	SetBcryptCost(bcrypt.MinCost)
	defer SetBcryptCost(bcrypt.DefaultCost)

	hash, err := HashPassword("P@ssw0rd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	hash2, err := HashPassword("P@ssw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)

	t.Run("正确密码", func(t *testing.T) {
		assert.True(t, VerifyPassword("P@ssw0rd", hash))
	})
	t.Run("错误密码", func(t *testing.T) {
		assert.False(t, VerifyPassword("wrong", hash))
	})
	t.Run("无效哈希", func(t *testing.T) {
		assert.False(t, VerifyPassword("P@ssw0rd", "not-a-hash"))
	})
}

func TestSetBcryptCost(t *testing.T) {
	defer SetBcryptCost(bcrypt.DefaultCost)

	SetBcryptCost(bcrypt.MinCost)
	assert.Equal(t, bcrypt.MinCost, bcryptCost)

	SetBcryptCost(100)
	assert.Equal(t, bcrypt.DefaultCost, bcryptCost)

	SetBcryptCost(0)
	assert.Equal(t, bcrypt.DefaultCost, bcryptCost)
}

func TestNeedsRehash(t *testing.T) {
	SetBcryptCost(bcrypt.MinCost)
	defer SetBcryptCost(bcrypt.DefaultCost)

	hash, err := HashPassword("P@ssw0rd")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))

	SetBcryptCost(bcrypt.MinCost + 1)
	assert.True(t, NeedsRehash(hash))
	assert.False(t, NeedsRehash("not-a-hash"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "138****5678", MaskPhone("13812345678"))
	assert.Equal(t, "+86*******5678", MaskPhone("+8613812345678"))
	assert.Equal(t, "12345", MaskPhone("12345"))
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "al***@example.com"},
		{"ab@example.com", "ab@example.com"},
		{"no-at-sign", "no-at-sign"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.in))
		})
	}
}
