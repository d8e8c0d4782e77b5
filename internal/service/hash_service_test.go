package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := svc.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2HashService_SaltedHashesDiffer(t *testing.T) {
	svc := NewArgon2HashService()

	h1, err := svc.Hash("password")
	require.NoError(t, err)
	h2, err := svc.Hash("password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestArgon2HashService_RejectsMalformedHash(t *testing.T) {
	svc := NewArgon2HashService()

	for _, h := range []string{"", "plaintext", "$bcrypt$whatever$x$y$z", "$argon2id$v=19$m=bad$c2FsdA$aGFzaA"} {
		_, err := svc.Verify("password", h)
		assert.Error(t, err, h)
	}
}
