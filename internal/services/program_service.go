package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

var (
	// ErrProgramNotFound indicates the requested program does not exist.
	ErrProgramNotFound = apperrors.NewNotFound("Program not found.")

	ErrProgramAlreadyArchived = apperrors.NewConflict("Program is already archived.")
	ErrProgramNotArchived     = apperrors.NewConflict("Program is not archived.")
	ErrProgramArchived        = apperrors.NewConflict("Program is archived.")
)

// CreateProgramInput captures new program metadata.
type CreateProgramInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ProgramService manages programs owned by organizations.
type ProgramService struct {
	engine
}

// NewProgramService constructs a ProgramService instance.
func NewProgramService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, opts ...Option) (*ProgramService, error) {
	e, err := newEngine("program service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &ProgramService{engine: e}, nil
}

// Create adds an active program to the organization identified by organizationCode.
func (s *ProgramService) Create(ctx context.Context, actorID, organizationCode string, input CreateProgramInput) (*models.Program, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	org, err := organizationByCode(ctx, s.db, organizationCode)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, permissions.ProgramCreate, permissions.OnOrganization(org)); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := validator.ValidateStruct(input); err != nil {
		return nil, validator.AsAppError(err)
	}

	program := &models.Program{
		OrganizationID: org.ID,
		Name:           input.Name,
		IsActive:       true,
		CreatedByID:    actor.ID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Organization
		if err := tx.Take(&current, "id = ?", org.ID).Error; err != nil {
			return err
		}
		if !current.IsActive {
			return ErrOrganizationBanned
		}
		return tx.Create(program).Error
	})
	if err != nil {
		return nil, wrapServiceError("program service", "create", err)
	}

	s.audit(ctx, actor, string(permissions.ProgramCreate), program.ID, map[string]any{
		"organization_id": org.ID,
		"name":            program.Name,
	})
	return program, nil
}

// Get returns a program by id.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	ctx = ensureContext(ctx)
	program, err := findByID[models.Program](ctx, s.db, id, ErrProgramNotFound)
	if err != nil {
		return nil, wrapServiceError("program service", "get", err)
	}
	return program, nil
}

// Archive deactivates a program.
func (s *ProgramService) Archive(ctx context.Context, actorID, id string) (*models.Program, error) {
	return s.transition(ctx, actorID, id, permissions.ProgramArchive, "archive", func(program *models.Program, stamp models.ActorStamp) (map[string]any, error) {
		if !program.IsActive {
			return nil, ErrProgramAlreadyArchived
		}
		return mergeColumns(map[string]any{"is_active": false}, stamp.Columns("archived_")), nil
	})
}

// Reactivate restores an archived program and clears its archive stamp.
func (s *ProgramService) Reactivate(ctx context.Context, actorID, id string) (*models.Program, error) {
	return s.transition(ctx, actorID, id, permissions.ProgramReactivate, "reactivate", func(program *models.Program, stamp models.ActorStamp) (map[string]any, error) {
		if program.IsActive {
			return nil, ErrProgramNotArchived
		}
		return mergeColumns(
			map[string]any{"is_active": true},
			models.ClearedColumns("archived_"),
			stamp.Columns("reactivated_"),
		), nil
	})
}

// ListByOrganization returns the programs an organization owns.
func (s *ProgramService) ListByOrganization(ctx context.Context, organizationID string) ([]models.Program, error) {
	ctx = ensureContext(ctx)

	if _, err := findByID[models.Organization](ctx, s.db, organizationID, ErrOrganizationNotFound); err != nil {
		return nil, wrapServiceError("program service", "list by organization", err)
	}
	var programs []models.Program
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("program service: list by organization: %w", err)
	}
	return programs, nil
}

// ListAssociated returns the programs an organization joined through an active membership.
func (s *ProgramService) ListAssociated(ctx context.Context, organizationID string) ([]models.Program, error) {
	ctx = ensureContext(ctx)

	org, err := findByID[models.Organization](ctx, s.db, organizationID, ErrOrganizationNotFound)
	if err != nil {
		return nil, wrapServiceError("program service", "list associated", err)
	}
	if !org.IsActive {
		return nil, ErrOrganizationBanned
	}

	memberships := s.db.Model(&models.InvitedOrganizationProgram{}).
		Select("program_id").
		Where("organization_id = ? AND is_active = ?", org.ID, true)

	var programs []models.Program
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", memberships).
		Order("created_at DESC").
		Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("program service: list associated: %w", err)
	}
	return programs, nil
}

type programTransition func(program *models.Program, stamp models.ActorStamp) (map[string]any, error)

func (s *ProgramService) transition(ctx context.Context, actorID, id string, action permissions.Action, name string, apply programTransition) (*models.Program, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	program, err := findByID[models.Program](ctx, s.db, id, ErrProgramNotFound)
	if err != nil {
		return nil, wrapServiceError("program service", name, err)
	}
	if err := s.authorize(ctx, actor, action, permissions.OnProgram(program, nil)); err != nil {
		return nil, err
	}

	var updated *models.Program
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.Program](tx, program.ID, func(row *models.Program) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("program", name, err)
	if err != nil {
		return nil, wrapServiceError("program service", name, err)
	}

	s.audit(ctx, actor, string(action), updated.ID, map[string]any{"organization_id": updated.OrganizationID})
	return updated, nil
}

// loadProgramScope resolves a program and its owning organization.
func loadProgramScope(ctx context.Context, db *gorm.DB, programID string) (*models.Program, *models.Organization, error) {
	program, err := findByID[models.Program](ctx, db, programID, ErrProgramNotFound)
	if err != nil {
		return nil, nil, err
	}
	org, err := findByID[models.Organization](ctx, db, program.OrganizationID, ErrOrganizationNotFound)
	if err != nil {
		return nil, nil, err
	}
	return program, org, nil
}
