package keyring_test

import (
	"testing"

	"github.com/alkime/liftlog/internal/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func TestResolve(t *testing.T) {
	gokeyring.MockInit()

	t.Run("environment wins", func(t *testing.T) {
		require.NoError(t, keyring.Set(keyring.OpenAI, "from-keychain"))
		v, err := keyring.Resolve(keyring.OpenAI, "from-env")
		require.NoError(t, err)
		assert.Equal(t, "from-env", v)
	})

	t.Run("falls back to the keychain", func(t *testing.T) {
		require.NoError(t, keyring.Set(keyring.OpenAI, "from-keychain"))
		v, err := keyring.Resolve(keyring.OpenAI, "")
		require.NoError(t, err)
		assert.Equal(t, "from-keychain", v)
		assert.True(t, keyring.IsSet(keyring.OpenAI))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := keyring.Resolve(keyring.Anthropic, "")
		require.ErrorIs(t, err, keyring.ErrNoKey)
		assert.False(t, keyring.IsSet(keyring.Anthropic))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, keyring.Set(keyring.Anthropic, "k"))
		require.NoError(t, keyring.Delete(keyring.Anthropic))
		assert.False(t, keyring.IsSet(keyring.Anthropic))
	})
}

func TestAPIKeyFromServiceName(t *testing.T) {
	k, err := keyring.APIKeyFromServiceName("anthropic")
	require.NoError(t, err)
	assert.Equal(t, keyring.Anthropic, k)
	assert.Equal(t, "anthropic", k.DisplayName())

	_, err = keyring.APIKeyFromServiceName("gemini")
	assert.Error(t, err)
}
