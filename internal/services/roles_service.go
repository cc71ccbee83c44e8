package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
)

// RolesSummary lists every position a user holds, revoked grants included.
type RolesSummary struct {
	User                       *models.User               `json:"user"`
	Organizations              []models.Organization      `json:"organizations"`
	OrganizationAdminPositions []models.OrganizationAdmin `json:"organizational_admin_positions"`
	ProgramEventAdminPositions []models.ProgramEventAdmin `json:"program_event_admin_positions"`
}

// RolesService answers "what can this user manage".
type RolesService struct {
	engine
}

// NewRolesService constructs a RolesService.
func NewRolesService(db *gorm.DB, evaluator *permissions.Evaluator, opts ...Option) (*RolesService, error) {
	e, err := newEngine("roles service", db, nil, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &RolesService{engine: e}, nil
}

// Summary returns the roles of the user identified by userRef, or of the actor when
// userRef is empty.
func (s *RolesService) Summary(ctx context.Context, actorID, userRef string) (*RolesSummary, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target := actor
	if ref := strings.TrimSpace(userRef); ref != "" && ref != actor.ID {
		target, err = lookupUser(ctx, s.db, ref)
		if err != nil {
			return nil, err
		}
	}
	if err := s.authorize(ctx, actor, permissions.UserViewRoles, permissions.OnSubject(target.ID)); err != nil {
		return nil, err
	}

	summary := &RolesSummary{User: target}
	db := s.db.WithContext(ctx)
	if err := db.Where("created_by_id = ?", target.ID).
		Order("created_at DESC").
		Find(&summary.Organizations).Error; err != nil {
		return nil, fmt.Errorf("roles service: organizations: %w", err)
	}
	if err := db.Preload("Organization").
		Where("user_id = ?", target.ID).
		Order("created_at DESC").
		Find(&summary.OrganizationAdminPositions).Error; err != nil {
		return nil, fmt.Errorf("roles service: organization admins: %w", err)
	}
	if err := db.Preload("Program").
		Preload("Program.Organization").
		Where("user_id = ?", target.ID).
		Order("created_at DESC").
		Find(&summary.ProgramEventAdminPositions).Error; err != nil {
		return nil, fmt.Errorf("roles service: program event admins: %w", err)
	}
	return summary, nil
}
