package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomLowercase(t *testing.T) {
	code, err := RandomLowercase(8)
	require.NoError(t, err)
	require.Regexp(t, `^[a-z]{8}$`, code)

	_, err = RandomLowercase(0)
	require.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	_, err = GenerateToken(0)
	require.Error(t, err)
}
