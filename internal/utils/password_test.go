package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", hash)
	assert.True(t, h.Verify(hash, "pw123456"))
	assert.False(t, h.Verify(hash, "pw1234567"))
	assert.False(t, h.Verify("not-a-hash", "pw123456"))
	h.Burn("anything")
}

func TestPasswordHasherCostFallback(t *testing.T) {
	h := NewPasswordHasher(99)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
	h = NewPasswordHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
