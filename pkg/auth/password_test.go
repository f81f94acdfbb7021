package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordHasher_Cost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).Cost())
	assert.Equal(t, 12, NewPasswordHasher(12).Cost())
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).Cost())
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(bcrypt.MaxCost+1).Cost())
}

func TestPasswordHasher_HashAndCompare(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret-pw")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.NoError(t, h.Compare(hash, "s3cret-pw"))
	assert.True(t, errors.Is(h.Compare(hash, "wrong-pw"), ErrInvalidCredentials))
}

func TestPasswordHasher_SaltedHashes(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	err := h.Compare("not-a-bcrypt-hash", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestPasswordHasher_CompareDummy(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	assert.NotPanics(t, func() {
		h.CompareDummy("anything")
		h.CompareDummy("again")
	})
	assert.NotEmpty(t, h.dummyHash)
}
