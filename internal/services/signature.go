package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

// DefaultSignatureThreshold is the minimum similarity accepted when none is configured.
const DefaultSignatureThreshold = 0.5

var (
	// ErrSignatureInvalid indicates the submitted or stored signature cannot be compared.
	ErrSignatureInvalid = apperrors.NewValidation("Signature missing or invalid.")
	// ErrSignatureMismatch indicates the similarity score fell below the threshold.
	ErrSignatureMismatch = apperrors.NewValidation("Signature mismatch. Please try again!")
)

// SignatureCheck compares a submitted signature with a user's sealed reference.
type SignatureCheck struct {
	Verifier  auth.SignatureVerifier
	Sealer    *crypto.Sealer
	Threshold float64
}

func (c SignatureCheck) validate(name string) error {
	if c.Verifier == nil {
		return fmt.Errorf("%s: signature verifier is required", name)
	}
	if c.Sealer == nil {
		return fmt.Errorf("%s: signature sealer is required", name)
	}
	return nil
}

func (c SignatureCheck) threshold() float64 {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return DefaultSignatureThreshold
	}
	return c.Threshold
}

// match returns the similarity score when it clears the threshold.
func (c SignatureCheck) match(ctx context.Context, user *models.User, candidate string) (float64, error) {
	candidate = strings.TrimSpace(candidate)
	if !validator.IsSignatureDataURI(candidate) || !user.HasSignature() {
		return 0, ErrSignatureInvalid
	}

	reference, err := c.Sealer.Open(user.Signature)
	if err != nil {
		return 0, fmt.Errorf("signature: open reference: %w", err)
	}

	score, err := c.Verifier.Verify(ctx, candidate, reference)
	if errors.Is(err, auth.ErrMalformedSignature) {
		return 0, ErrSignatureInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("signature: verify: %w", err)
	}
	if score < c.threshold() {
		return score, ErrSignatureMismatch
	}
	return score, nil
}
