package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

var (
	// ErrOrganizationNotFound indicates the requested organization does not exist.
	ErrOrganizationNotFound = apperrors.NewNotFound("Organization not found.")
	// ErrOrganizationCodeTaken signals a duplicate organization code.
	ErrOrganizationCodeTaken = apperrors.NewConflict("Organization code already exists.")

	ErrOrganizationAlreadyArchived = apperrors.NewConflict("Organization is already archived.")
	ErrOrganizationNotArchived     = apperrors.NewConflict("Organization is not archived.")
	ErrOrganizationArchived        = apperrors.NewConflict("Organization is archived.")
	// ErrOrganizationBanned rejects program work under an archived organization.
	ErrOrganizationBanned = apperrors.NewConflict("Organization is banned.")
)

// OrganizationStatus filters organization listings.
type OrganizationStatus string

const (
	OrganizationStatusAll      OrganizationStatus = "all"
	OrganizationStatusActive   OrganizationStatus = "active"
	OrganizationStatusArchived OrganizationStatus = "archived"
)

// CreateOrganizationInput captures new organization metadata.
type CreateOrganizationInput struct {
	Code string `json:"code" validate:"required,orgcode"`
	Name string `json:"name" validate:"required,max=512"`
}

// OrganizationService manages the organization registry and its lifecycle.
type OrganizationService struct {
	engine
}

// NewOrganizationService constructs an OrganizationService instance.
func NewOrganizationService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, opts ...Option) (*OrganizationService, error) {
	e, err := newEngine("organization service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &OrganizationService{engine: e}, nil
}

// Create registers a new active organization owned by the actor.
func (s *OrganizationService) Create(ctx context.Context, actorID string, input CreateOrganizationInput) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, permissions.OrganizationCreate, permissions.Target{}); err != nil {
		return nil, err
	}

	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.ValidateStruct(input); err != nil {
		return nil, validator.AsAppError(err)
	}

	org := &models.Organization{
		Code:        input.Code,
		Name:        input.Name,
		IsActive:    true,
		CreatedByID: actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrOrganizationCodeTaken
		}
		return nil, fmt.Errorf("organization service: create: %w", err)
	}

	s.audit(ctx, actor, string(permissions.OrganizationCreate), org.ID, map[string]any{"code": org.Code})
	return org, nil
}

// Get returns an organization visible to the actor.
func (s *OrganizationService) Get(ctx context.Context, actorID, id string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, permissions.OrganizationView, permissions.OnOrganization(org)); err != nil {
		return nil, err
	}
	return org, nil
}

// GetByCode resolves an organization by its public code.
func (s *OrganizationService) GetByCode(ctx context.Context, code string) (*models.Organization, error) {
	ctx = ensureContext(ctx)
	return organizationByCode(ctx, s.db, code)
}

// Archive deactivates an organization. Grants and programs stay stored.
func (s *OrganizationService) Archive(ctx context.Context, actorID, id string) (*models.Organization, error) {
	return s.transition(ctx, actorID, id, permissions.OrganizationArchive, "archive", func(org *models.Organization, stamp models.ActorStamp) (map[string]any, error) {
		if !org.IsActive {
			return nil, ErrOrganizationAlreadyArchived
		}
		return mergeColumns(map[string]any{"is_active": false}, stamp.Columns("archived_")), nil
	})
}

// Reactivate restores an archived organization. The archive stamp is cleared so that
// archived_at stays set only while the organization is inactive.
func (s *OrganizationService) Reactivate(ctx context.Context, actorID, id string) (*models.Organization, error) {
	return s.transition(ctx, actorID, id, permissions.OrganizationReactivate, "reactivate", func(org *models.Organization, stamp models.ActorStamp) (map[string]any, error) {
		if org.IsActive {
			return nil, ErrOrganizationNotArchived
		}
		return mergeColumns(
			map[string]any{"is_active": true},
			models.ClearedColumns("archived_"),
			stamp.Columns("reactivated_"),
		), nil
	})
}

// ListCreated returns the organizations the actor created, filtered by status.
func (s *OrganizationService) ListCreated(ctx context.Context, actorID string, status OrganizationStatus) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("created_by_id = ?", actor.ID)
	switch status {
	case OrganizationStatusActive:
		query = query.Where("is_active = ?", true)
	case OrganizationStatusArchived:
		query = query.Where("is_active = ?", false)
	case OrganizationStatusAll, "":
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown organization status %q", status))
	}

	var orgs []models.Organization
	if err := query.Order("created_at DESC").Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("organization service: list created: %w", err)
	}
	return orgs, nil
}

// ListForUser returns organizations the target user created or administers.
func (s *OrganizationService) ListForUser(ctx context.Context, actorID, targetRef string) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := lookupUser(ctx, s.db, targetRef)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, permissions.UserListOrganizations, permissions.OnSubject(target.ID)); err != nil {
		return nil, err
	}

	administered := s.db.Model(&models.OrganizationAdmin{}).
		Select("organization_id").
		Where("user_id = ? AND status = ?", target.ID, models.GrantActive)

	var orgs []models.Organization
	if err := s.db.WithContext(ctx).
		Where("created_by_id = ? OR id IN (?)", target.ID, administered).
		Order("created_at DESC").
		Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("organization service: list for user: %w", err)
	}
	return orgs, nil
}

func (s *OrganizationService) load(ctx context.Context, id string) (*models.Organization, error) {
	org, err := findByID[models.Organization](ctx, s.db, id, ErrOrganizationNotFound)
	if err != nil && !errors.Is(err, ErrOrganizationNotFound) {
		return nil, fmt.Errorf("organization service: load: %w", err)
	}
	return org, err
}

type organizationTransition func(org *models.Organization, stamp models.ActorStamp) (map[string]any, error)

func (s *OrganizationService) transition(ctx context.Context, actorID, id string, action permissions.Action, name string, apply organizationTransition) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, action, permissions.OnOrganization(org)); err != nil {
		return nil, err
	}

	var updated *models.Organization
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.Organization](tx, org.ID, func(row *models.Organization) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("organization", name, err)
	if err != nil {
		return nil, wrapServiceError("organization service", name, err)
	}

	s.audit(ctx, actor, string(action), updated.ID, map[string]any{"code": updated.Code})
	return updated, nil
}

func organizationByCode(ctx context.Context, db *gorm.DB, code string) (*models.Organization, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrOrganizationNotFound
	}
	var org models.Organization
	err := db.WithContext(ctx).Where("code = ?", code).Take(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization by code: %w", err)
	}
	return &org, nil
}
