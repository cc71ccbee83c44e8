package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Authentication methods recorded in the amr claim.
const (
	MethodSignatureEmail = "signature_email"
	MethodSignaturePhone = "signature_phone"
)

// DefaultAccessTokenTTL applies when the configuration leaves the lifetime unset.
const DefaultAccessTokenTTL = 15 * time.Minute

var (
	ErrEmptyToken     = errors.New("jwt: token string is empty")
	ErrMissingSubject = errors.New("jwt: missing user id claim")
)

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims identify the attendee behind a bearer token.
type Claims struct {
	UserID string `json:"uid"`
	Method string `json:"amr,omitempty"`
	// Staff is informational; authorization always re-reads the user record.
	Staff bool `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenInput describes the holder of a token about to be issued.
type AccessTokenInput struct {
	UserID string
	Method string
	Staff  bool
}

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	svc := &JWTService{
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL,
		now:    cfg.Clock,
	}
	if svc.ttl <= 0 {
		svc.ttl = DefaultAccessTokenTTL
	}
	if svc.now == nil {
		svc.now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return svc.now() }),
		jwt.WithExpirationRequired(),
	}
	if svc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(svc.issuer))
	}
	svc.parser = jwt.NewParser(opts...)
	return svc, nil
}

// TTL reports how long issued tokens stay valid.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateAccessToken signs a token for input.UserID valid for the configured TTL.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	if input.UserID == "" {
		return "", errors.New("jwt: user id is required")
	}

	issuedAt := s.now()
	claims := Claims{
		UserID: input.UserID,
		Method: input.Method,
		Staff:  input.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   input.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature, issuer and lifetime and returns the claims.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims := new(Claims)
	if _, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}); err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
