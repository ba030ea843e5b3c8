package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(string(hash), "s3cret"))
	assert.False(t, VerifyPassword(string(hash), "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}
