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
)

var (
	ErrOrganizationAdminNotFound        = apperrors.NewNotFound("Organizational admin not found.")
	ErrOrganizationAdminRevokedBefore   = apperrors.NewConflict("User has been revoked as organizational admin.")
	ErrOrganizationAdminAlreadyAssigned = apperrors.NewConflict("User is already assigned as organizational admin.")
	ErrOrganizationAdminAlreadyRevoked  = apperrors.NewConflict("User has already been revoked as organizational admin.")
)

var organizationAdminConflicts = grantConflicts{
	revokedBefore:   ErrOrganizationAdminRevokedBefore,
	alreadyAssigned: ErrOrganizationAdminAlreadyAssigned,
	alreadyRevoked:  ErrOrganizationAdminAlreadyRevoked,
}

// OrganizationAdminService manages the lifecycle of organization admin grants.
// Grants are never deleted: revocation flips the status and stamps the actor.
type OrganizationAdminService struct {
	engine
}

// NewOrganizationAdminService constructs an OrganizationAdminService instance.
func NewOrganizationAdminService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, opts ...Option) (*OrganizationAdminService, error) {
	e, err := newEngine("organization admin service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &OrganizationAdminService{engine: e}, nil
}

// Assign creates an active grant for the referenced user.
func (s *OrganizationAdminService) Assign(ctx context.Context, actorID, organizationID string, input AssignGrantInput) (*models.OrganizationAdmin, error) {
	ctx = ensureContext(ctx)

	actor, org, err := s.authorizeOn(ctx, actorID, organizationID, permissions.OrganizationAdminAssign)
	if err != nil {
		return nil, err
	}
	target, err := lookupUser(ctx, s.db, input.User)
	if err != nil {
		return nil, err
	}

	role, err := normaliseRole(input.Role)
	if err != nil {
		return nil, err
	}
	var caps models.OrganizationCapabilities
	if _, err := permissions.ApplyOrganizationCapabilities(&caps, input.Capabilities); err != nil {
		return nil, err
	}

	grant := &models.OrganizationAdmin{
		UserID:                   target.ID,
		OrganizationID:           org.ID,
		Role:                     role,
		Status:                   models.GrantActive,
		OrganizationCapabilities: caps,
		Added:                    models.NewActorStamp(actor.ID, s.timestamp()),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Organization
		if err := tx.Take(&current, "id = ?", org.ID).Error; err != nil {
			return err
		}
		if !current.IsActive {
			return ErrOrganizationArchived
		}
		if err := requireActiveGrantee(tx, target.ID); err != nil {
			return err
		}

		var existing models.OrganizationAdmin
		err := tx.Where("user_id = ? AND organization_id = ?", target.ID, org.ID).Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := organizationAdminConflicts.checkAssignable(existing.Status, err == nil); err != nil {
			return err
		}
		return tx.Create(grant).Error
	})
	observeTransition("organization_admin", "assign", err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrOrganizationAdminAlreadyAssigned
		}
		return nil, wrapServiceError("organization admin service", "assign", err)
	}

	s.audit(ctx, actor, string(permissions.OrganizationAdminAssign), grant.ID, map[string]any{
		"organization_id": org.ID,
		"user_id":         target.ID,
		"role":            grant.Role,
	})
	return grant, nil
}

// Revoke deactivates an active grant. The added stamp is preserved.
func (s *OrganizationAdminService) Revoke(ctx context.Context, actorID, organizationID, userRef string) (*models.OrganizationAdmin, error) {
	return s.transition(ctx, actorID, organizationID, userRef, permissions.OrganizationAdminRevoke, "revoke", false,
		func(grant *models.OrganizationAdmin, stamp models.ActorStamp) (map[string]any, error) {
			return organizationAdminConflicts.revokeColumns(grant.Status, stamp)
		})
}

// Reinstate returns a revoked grant to active. The removed stamp is preserved.
func (s *OrganizationAdminService) Reinstate(ctx context.Context, actorID, organizationID, userRef string) (*models.OrganizationAdmin, error) {
	return s.transition(ctx, actorID, organizationID, userRef, permissions.OrganizationAdminReinstate, "reinstate", true,
		func(grant *models.OrganizationAdmin, stamp models.ActorStamp) (map[string]any, error) {
			return organizationAdminConflicts.reinstateColumns(grant.Status, stamp)
		})
}

// Update patches the role and capability flags of an active grant. Only supplied
// fields change.
func (s *OrganizationAdminService) Update(ctx context.Context, actorID, organizationID, userRef string, input UpdateGrantInput) (*models.OrganizationAdmin, error) {
	var role *string
	if input.Role != nil {
		normalised, err := normaliseRole(*input.Role)
		if err != nil {
			return nil, err
		}
		role = &normalised
	}
	var scratch models.OrganizationCapabilities
	if _, err := permissions.ApplyOrganizationCapabilities(&scratch, input.Capabilities); err != nil {
		return nil, err
	}

	return s.transition(ctx, actorID, organizationID, userRef, permissions.OrganizationAdminUpdate, "update", enablesCapability(input.Capabilities),
		func(grant *models.OrganizationAdmin, _ models.ActorStamp) (map[string]any, error) {
			columns, err := permissions.ApplyOrganizationCapabilities(&grant.OrganizationCapabilities, input.Capabilities)
			if err != nil {
				return nil, err
			}
			return organizationAdminConflicts.updateColumns(grant.Status, role, columns)
		})
}

// List returns the grants of an organization, optionally filtered by status.
func (s *OrganizationAdminService) List(ctx context.Context, actorID, organizationID, status string) ([]models.OrganizationAdmin, error) {
	ctx = ensureContext(ctx)

	_, org, err := s.authorizeOn(ctx, actorID, organizationID, permissions.OrganizationAdminList)
	if err != nil {
		return nil, err
	}

	query, err := grantStatusFilter(s.db.WithContext(ctx).Where("organization_id = ?", org.ID), status)
	if err != nil {
		return nil, err
	}
	var grants []models.OrganizationAdmin
	if err := query.Preload("User").Order("created_at ASC").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("organization admin service: list: %w", err)
	}
	return grants, nil
}

// Get returns one user's grant on the organization.
func (s *OrganizationAdminService) Get(ctx context.Context, actorID, organizationID, userRef string) (*models.OrganizationAdmin, error) {
	ctx = ensureContext(ctx)

	_, org, err := s.authorizeOn(ctx, actorID, organizationID, permissions.OrganizationAdminList)
	if err != nil {
		return nil, err
	}
	target, err := lookupUser(ctx, s.db, userRef)
	if err != nil {
		return nil, err
	}
	return s.grantOf(ctx, s.db, target.ID, org.ID)
}

func (s *OrganizationAdminService) authorizeOn(ctx context.Context, actorID, organizationID string, action permissions.Action) (*models.User, *models.Organization, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	org, err := findByID[models.Organization](ctx, s.db, organizationID, ErrOrganizationNotFound)
	if err != nil {
		return nil, nil, wrapServiceError("organization admin service", "load organization", err)
	}
	if err := s.authorize(ctx, actor, action, permissions.OnOrganization(org)); err != nil {
		return nil, nil, err
	}
	return actor, org, nil
}

func (s *OrganizationAdminService) grantOf(ctx context.Context, db *gorm.DB, userID, organizationID string) (*models.OrganizationAdmin, error) {
	var grant models.OrganizationAdmin
	err := db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Take(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization admin service: load grant: %w", err)
	}
	return &grant, nil
}

type organizationAdminTransition func(grant *models.OrganizationAdmin, stamp models.ActorStamp) (map[string]any, error)

func (s *OrganizationAdminService) transition(ctx context.Context, actorID, organizationID, userRef string, action permissions.Action, name string, empowers bool, apply organizationAdminTransition) (*models.OrganizationAdmin, error) {
	ctx = ensureContext(ctx)

	actor, org, err := s.authorizeOn(ctx, actorID, organizationID, action)
	if err != nil {
		return nil, err
	}
	target, err := lookupUser(ctx, s.db, strings.TrimSpace(userRef))
	if err != nil {
		return nil, err
	}

	var updated *models.OrganizationAdmin
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Organization
		if err := tx.Take(&current, "id = ?", org.ID).Error; err != nil {
			return err
		}
		if !current.IsActive {
			return ErrOrganizationArchived
		}
		if empowers {
			if err := requireActiveGrantee(tx, target.ID); err != nil {
				return err
			}
		}
		grant, err := s.grantOf(ctx, tx, target.ID, org.ID)
		if err != nil {
			return err
		}
		updated, err = applyTransition[models.OrganizationAdmin](tx, grant.ID, func(row *models.OrganizationAdmin) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("organization_admin", name, err)
	if err != nil {
		return nil, wrapServiceError("organization admin service", name, err)
	}

	s.audit(ctx, actor, string(action), updated.ID, map[string]any{
		"organization_id": org.ID,
		"user_id":         target.ID,
		"status":          string(updated.Status),
	})
	return updated, nil
}
