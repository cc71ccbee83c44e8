package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/metrics"
)

// LoginResult is returned after a successful signature login.
type LoginResult struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
}

// AuthService authenticates users by comparing a submitted signature with their reference.
type AuthService struct {
	users        *UserService
	jwt          *auth.JWTService
	check        SignatureCheck
	auditService *AuditService
}

// NewAuthService constructs an AuthService.
func NewAuthService(users *UserService, jwt *auth.JWTService, check SignatureCheck, auditService *AuditService) (*AuthService, error) {
	if users == nil {
		return nil, errors.New("auth service: user service is required")
	}
	if jwt == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	if err := check.validate("auth service"); err != nil {
		return nil, err
	}
	return &AuthService{users: users, jwt: jwt, check: check, auditService: auditService}, nil
}

// LoginByEmail authenticates the account registered under email.
func (s *AuthService) LoginByEmail(ctx context.Context, email, signature string) (*LoginResult, error) {
	ctx = ensureContext(ctx)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		metrics.SignatureLogins.WithLabelValues(models.AuditFailure).Inc()
		return nil, err
	}
	return s.login(ctx, user, signature, auth.MethodSignatureEmail)
}

// LoginByPhone authenticates the account registered under phone.
func (s *AuthService) LoginByPhone(ctx context.Context, phone, signature string) (*LoginResult, error) {
	ctx = ensureContext(ctx)
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		metrics.SignatureLogins.WithLabelValues(models.AuditFailure).Inc()
		return nil, err
	}
	return s.login(ctx, user, signature, auth.MethodSignaturePhone)
}

func (s *AuthService) login(ctx context.Context, user *models.User, signature, method string) (*LoginResult, error) {
	if !user.IsActive {
		metrics.SignatureLogins.WithLabelValues(models.AuditFailure).Inc()
		return nil, ErrActorBanned
	}

	score, err := s.check.match(ctx, user, signature)
	if err != nil {
		result := models.AuditFailure
		if errors.Is(err, ErrSignatureMismatch) {
			result = models.AuditMismatch
		}
		metrics.SignatureLogins.WithLabelValues(result).Inc()
		recordAudit(s.auditService, ctx, AuditEntry{
			ActorID:    user.ID,
			AuthMethod: method,
			Action:     "auth.login",
			Resource:   user.ID,
			Result:     result,
		})
		return nil, err
	}

	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID: user.ID,
		Method: method,
		Staff:  user.IsStaff,
	})
	if err != nil {
		metrics.SignatureLogins.WithLabelValues(models.AuditFailure).Inc()
		return nil, apperrors.Wrap(err, "failed to issue access token")
	}

	if err := s.users.Touch(ctx, user.ID); err != nil {
		logger.WithModule("auth").Warn("failed to record last seen", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		now := time.Now().UTC()
		user.LastSeenAt = &now
	}

	metrics.SignatureLogins.WithLabelValues(models.AuditSuccess).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:    user.ID,
		AuthMethod: method,
		Action:     "auth.login",
		Resource:   user.ID,
		Result:     models.AuditSuccess,
		Metadata:   map[string]any{"score": score},
	})

	return &LoginResult{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwt.TTL().Seconds()),
	}, nil
}

// Authenticate resolves the active user behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized.WithInternal(fmt.Errorf("auth service: %w", err))
	}
	user, err := s.users.Get(ensureContext(ctx), claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrActorBanned
	}
	return user, nil
}
