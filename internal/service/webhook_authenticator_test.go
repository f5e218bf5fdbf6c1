package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedSecretAuthenticator(t *testing.T) {
	auth, err := NewSharedSecretAuthenticator("flw-verif-hash")
	require.NoError(t, err)

	assert.True(t, auth.Verify("flw-verif-hash"))
	assert.False(t, auth.Verify("flw-verif-has"))
	assert.False(t, auth.Verify("FLW-VERIF-HASH"))
	assert.False(t, auth.Verify(""))
}

func TestSharedSecretAuthenticator_EmptySecret(t *testing.T) {
	_, err := NewSharedSecretAuthenticator("")
	assert.Error(t, err)
}
