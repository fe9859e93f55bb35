package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, p := range []string{"secret123", "p", "пароль-с-юникодом", strings.Repeat("x", MaxPasswordBytes)} {
		hash, err := h.Hash(p)
		require.NoError(t, err)
		assert.True(t, h.Verify(p, hash), "password %q should verify", p)
		assert.False(t, h.Verify(p+"!", hash))
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("secret123", a))
	assert.True(t, h.Verify("secret123", b))
}

func TestBcryptHasher_WrongPassword(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("one")
	require.NoError(t, err)
	assert.False(t, h.Verify("two", hash))
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, bad := range []string{"", "fakehashedsecret", "$2a$10$short", "$9z$04$" + strings.Repeat("a", 53)} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("secret", bad))
		})
	}
}

func TestBcryptHasher_Length(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	hash, err := h.Hash(strings.Repeat("x", MaxPasswordBytes))
	require.NoError(t, err)
	assert.False(t, h.Verify(strings.Repeat("x", MaxPasswordBytes+1), hash))
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
