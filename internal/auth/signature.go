package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

// ErrMalformedSignature is returned when a signature is not a base64 image data URI.
var ErrMalformedSignature = errors.New("signature: malformed data uri")

// SignatureVerifier compares a candidate signature image with the stored reference and
// returns a similarity score in [0, 1]. Implementations never decide pass or fail.
type SignatureVerifier interface {
	Verify(ctx context.Context, candidate, reference string) (float64, error)
}

// SignatureVerifierFunc adapts a function to SignatureVerifier.
type SignatureVerifierFunc func(ctx context.Context, candidate, reference string) (float64, error)

// Verify calls f.
func (f SignatureVerifierFunc) Verify(ctx context.Context, candidate, reference string) (float64, error) {
	return f(ctx, candidate, reference)
}

// ExactVerifier scores 1 when both images decode to identical bytes and 0 otherwise.
// It is the fallback used when no biometric comparison service is configured.
type ExactVerifier struct{}

// Verify implements SignatureVerifier.
func (ExactVerifier) Verify(ctx context.Context, candidate, reference string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	left, err := DecodeSignature(candidate)
	if err != nil {
		return 0, err
	}
	right, err := DecodeSignature(reference)
	if err != nil {
		return 0, err
	}
	if bytes.Equal(left, right) {
		return 1, nil
	}
	return 0, nil
}

// DecodeSignature extracts the image payload from a data:image/...;base64, URI.
func DecodeSignature(dataURI string) ([]byte, error) {
	dataURI = strings.TrimSpace(dataURI)
	if !validator.IsSignatureDataURI(dataURI) {
		return nil, ErrMalformedSignature
	}
	_, payload, found := strings.Cut(dataURI, ";base64,")
	if !found || payload == "" {
		return nil, ErrMalformedSignature
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrMalformedSignature
	}
	return decoded, nil
}
