package authtoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sentinelguard/pkg/domainerrors"
)

func TestSecret_HashAndVerify(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	hash, err := HashSecret(secret)
	require.NoError(t, err)
	require.NotEqual(t, secret, hash)

	assert.NoError(t, VerifySecret(secret, hash))
}

func TestSecret_VerifyRejectsWrongSecret(t *testing.T) {
	hash, err := HashSecret("right-secret")
	require.NoError(t, err)

	err = VerifySecret("wrong-secret", hash)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestSecret_HashRejectsEmpty(t *testing.T) {
	_, err := HashSecret("")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestSecret_GenerateIsUnique(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
