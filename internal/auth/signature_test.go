package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	sigA = "data:image/png;base64,aGVsbG8="
	sigB = "data:image/png;base64,d29ybGQ="
)

func TestExactVerifierScores(t *testing.T) {
	var verifier SignatureVerifier = ExactVerifier{}

	score, err := verifier.Verify(context.Background(), sigA, sigA)
	require.NoError(t, err)
	require.Equal(t, 1.0, score)

	score, err = verifier.Verify(context.Background(), sigA, sigB)
	require.NoError(t, err)
	require.Zero(t, score)
}

func TestExactVerifierRejectsMalformedInput(t *testing.T) {
	_, err := ExactVerifier{}.Verify(context.Background(), "not-an-image", sigA)
	require.ErrorIs(t, err, ErrMalformedSignature)

	_, err = ExactVerifier{}.Verify(context.Background(), "data:image/png;base64,%%%", sigA)
	require.ErrorIs(t, err, ErrMalformedSignature)
}

func TestDecodeSignature(t *testing.T) {
	payload, err := DecodeSignature("  " + sigA + " ")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), payload)
}

func TestSignatureVerifierFunc(t *testing.T) {
	verifier := SignatureVerifierFunc(func(ctx context.Context, candidate, reference string) (float64, error) {
		return 0.42, nil
	})
	score, err := verifier.Verify(context.Background(), sigA, sigB)
	require.NoError(t, err)
	require.Equal(t, 0.42, score)
}
