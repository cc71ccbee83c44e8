package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Parameters{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32}

const signature = "data:image/png;base64,iVBORw0KGgo="

func TestSealerRoundTrip(t *testing.T) {
	sealer, err := NewSealer("signature-secret", fastParams)
	require.NoError(t, err)

	sealed, err := sealer.Seal(signature)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sealed, sealedPrefix))
	require.NotContains(t, sealed, "iVBORw0KGgo")

	again, err := sealer.Seal(signature)
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "each seal uses a fresh nonce")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, signature, opened)

	empty, err := sealer.Seal("")
	require.NoError(t, err)
	require.Empty(t, empty)
	opened, err = sealer.Open("")
	require.NoError(t, err)
	require.Empty(t, opened)
}

func TestSealerSameSecretSurvivesRestart(t *testing.T) {
	first, err := NewSealer("signature-secret", fastParams)
	require.NoError(t, err)
	sealed, err := first.Seal(signature)
	require.NoError(t, err)

	restarted, err := NewSealer("  signature-secret  ", fastParams)
	require.NoError(t, err)
	opened, err := restarted.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, signature, opened)
}

func TestSealerRejectsForeignOrMalformedValues(t *testing.T) {
	sealer, err := NewSealer("signature-secret", fastParams)
	require.NoError(t, err)
	other, err := NewSealer("another-secret", fastParams)
	require.NoError(t, err)

	sealed, err := sealer.Seal(signature)
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.Error(t, err)

	for _, bad := range []string{signature, "v1:not-base64!", "v1:AAAA"} {
		_, err = sealer.Open(bad)
		require.ErrorIs(t, err, ErrMalformedSealed, bad)
	}
}

func TestNewSealerValidatesInput(t *testing.T) {
	_, err := NewSealer("  ", fastParams)
	require.Error(t, err)

	for _, params := range []Argon2Parameters{
		{Time: 0, Memory: 8 * 1024, Threads: 1, KeyLength: 32},
		{Time: 1, Memory: 8 * 1024, Threads: 0, KeyLength: 32},
		{Time: 1, Memory: 4, Threads: 1, KeyLength: 32},
		{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 20},
	} {
		_, err := NewSealer("secret", params)
		require.Error(t, err, "%+v", params)
	}
	require.NoError(t, DefaultArgon2Params().validate())
}
