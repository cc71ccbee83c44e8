package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

var (
	ErrProgramEventAdminNotFound        = apperrors.NewNotFound("Program event admin not found.")
	ErrProgramEventAdminRevokedBefore   = apperrors.NewConflict("User has been revoked as program event admin.")
	ErrProgramEventAdminAlreadyAssigned = apperrors.NewConflict("User is already assigned as program event admin.")
	ErrProgramEventAdminAlreadyRevoked  = apperrors.NewConflict("User has already been revoked as program event admin.")
)

var programEventAdminConflicts = grantConflicts{
	revokedBefore:   ErrProgramEventAdminRevokedBefore,
	alreadyAssigned: ErrProgramEventAdminAlreadyAssigned,
	alreadyRevoked:  ErrProgramEventAdminAlreadyRevoked,
}

// ProgramEventAdminService manages event organizer grants scoped to a program.
type ProgramEventAdminService struct {
	engine
}

// NewProgramEventAdminService constructs a ProgramEventAdminService instance.
func NewProgramEventAdminService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, opts ...Option) (*ProgramEventAdminService, error) {
	e, err := newEngine("program event admin service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &ProgramEventAdminService{engine: e}, nil
}

// Assign creates an active grant. Capabilities not supplied keep their defaults.
func (s *ProgramEventAdminService) Assign(ctx context.Context, actorID, programID string, input AssignGrantInput) (*models.ProgramEventAdmin, error) {
	ctx = ensureContext(ctx)

	actor, program, err := s.authorizeOn(ctx, actorID, programID, permissions.ProgramEventAdminAssign)
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
	caps := models.DefaultProgramCapabilities()
	if _, err := permissions.ApplyProgramCapabilities(&caps, input.Capabilities); err != nil {
		return nil, err
	}

	grant := &models.ProgramEventAdmin{
		UserID:              target.ID,
		ProgramID:           program.ID,
		Role:                role,
		Status:              models.GrantActive,
		ProgramCapabilities: caps,
		Added:               models.NewActorStamp(actor.ID, s.timestamp()),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveProgram(tx, program.ID); err != nil {
			return err
		}
		if err := requireActiveGrantee(tx, target.ID); err != nil {
			return err
		}

		var existing models.ProgramEventAdmin
		err := tx.Where("user_id = ? AND program_id = ?", target.ID, program.ID).Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := programEventAdminConflicts.checkAssignable(existing.Status, err == nil); err != nil {
			return err
		}
		return tx.Create(grant).Error
	})
	observeTransition("program_event_admin", "assign", err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrProgramEventAdminAlreadyAssigned
		}
		return nil, wrapServiceError("program event admin service", "assign", err)
	}

	s.audit(ctx, actor, string(permissions.ProgramEventAdminAssign), grant.ID, map[string]any{
		"program_id": program.ID,
		"user_id":    target.ID,
		"role":       grant.Role,
	})
	return grant, nil
}

// Revoke deactivates an active grant.
func (s *ProgramEventAdminService) Revoke(ctx context.Context, actorID, programID, userRef string) (*models.ProgramEventAdmin, error) {
	return s.transition(ctx, actorID, programID, userRef, permissions.ProgramEventAdminRevoke, "revoke", false,
		func(grant *models.ProgramEventAdmin, stamp models.ActorStamp) (map[string]any, error) {
			return programEventAdminConflicts.revokeColumns(grant.Status, stamp)
		})
}

// Reinstate returns a revoked grant to active.
func (s *ProgramEventAdminService) Reinstate(ctx context.Context, actorID, programID, userRef string) (*models.ProgramEventAdmin, error) {
	return s.transition(ctx, actorID, programID, userRef, permissions.ProgramEventAdminReinstate, "reinstate", true,
		func(grant *models.ProgramEventAdmin, stamp models.ActorStamp) (map[string]any, error) {
			columns, err := programEventAdminConflicts.reinstateColumns(grant.Status, stamp)
			if err != nil {
				return nil, err
			}
			columns["left_at"] = nil
			return columns, nil
		})
}

// Update patches the role and capability flags of an active grant.
func (s *ProgramEventAdminService) Update(ctx context.Context, actorID, programID, userRef string, input UpdateGrantInput) (*models.ProgramEventAdmin, error) {
	var role *string
	if input.Role != nil {
		normalised, err := normaliseRole(*input.Role)
		if err != nil {
			return nil, err
		}
		role = &normalised
	}
	var scratch models.ProgramCapabilities
	if _, err := permissions.ApplyProgramCapabilities(&scratch, input.Capabilities); err != nil {
		return nil, err
	}

	return s.transition(ctx, actorID, programID, userRef, permissions.ProgramEventAdminUpdate, "update", enablesCapability(input.Capabilities),
		func(grant *models.ProgramEventAdmin, _ models.ActorStamp) (map[string]any, error) {
			columns, err := permissions.ApplyProgramCapabilities(&grant.ProgramCapabilities, input.Capabilities)
			if err != nil {
				return nil, err
			}
			return programEventAdminConflicts.updateColumns(grant.Status, role, columns)
		})
}

// Leave lets a grant holder step down. The holder is stamped as the remover.
func (s *ProgramEventAdminService) Leave(ctx context.Context, actorID, programID string) (*models.ProgramEventAdmin, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	program, err := findByID[models.Program](ctx, s.db, programID, ErrProgramNotFound)
	if err != nil {
		return nil, wrapServiceError("program event admin service", "leave", err)
	}
	grant, err := s.grantOf(ctx, s.db, actor.ID, program.ID)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	stamp := models.NewActorStamp(actor.ID, now)
	var updated *models.ProgramEventAdmin
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.ProgramEventAdmin](tx, grant.ID, func(row *models.ProgramEventAdmin) (map[string]any, error) {
			columns, err := programEventAdminConflicts.revokeColumns(row.Status, stamp)
			if err != nil {
				return nil, err
			}
			columns["left_at"] = now
			return columns, nil
		})
		return err
	})
	observeTransition("program_event_admin", "leave", err)
	if err != nil {
		return nil, wrapServiceError("program event admin service", "leave", err)
	}

	s.audit(ctx, actor, "program_event_admin.leave", updated.ID, map[string]any{"program_id": program.ID})
	return updated, nil
}

// List returns the grants on a program, optionally filtered by status.
func (s *ProgramEventAdminService) List(ctx context.Context, actorID, programID, status string) ([]models.ProgramEventAdmin, error) {
	ctx = ensureContext(ctx)

	_, program, err := s.authorizeOn(ctx, actorID, programID, permissions.ProgramEventAdminList)
	if err != nil {
		return nil, err
	}
	query, err := grantStatusFilter(s.db.WithContext(ctx).Where("program_id = ?", program.ID), status)
	if err != nil {
		return nil, err
	}
	var grants []models.ProgramEventAdmin
	if err := query.Preload("User").Order("created_at ASC").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("program event admin service: list: %w", err)
	}
	return grants, nil
}

// Get returns one user's grant on the program.
func (s *ProgramEventAdminService) Get(ctx context.Context, actorID, programID, userRef string) (*models.ProgramEventAdmin, error) {
	ctx = ensureContext(ctx)

	_, program, err := s.authorizeOn(ctx, actorID, programID, permissions.ProgramEventAdminList)
	if err != nil {
		return nil, err
	}
	target, err := lookupUser(ctx, s.db, userRef)
	if err != nil {
		return nil, err
	}
	return s.grantOf(ctx, s.db, target.ID, program.ID)
}

func (s *ProgramEventAdminService) authorizeOn(ctx context.Context, actorID, programID string, action permissions.Action) (*models.User, *models.Program, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	program, org, err := loadProgramScope(ctx, s.db, programID)
	if err != nil {
		return nil, nil, wrapServiceError("program event admin service", "load program", err)
	}
	if err := s.authorize(ctx, actor, action, permissions.OnProgram(program, org)); err != nil {
		return nil, nil, err
	}
	return actor, program, nil
}

func (s *ProgramEventAdminService) grantOf(ctx context.Context, db *gorm.DB, userID, programID string) (*models.ProgramEventAdmin, error) {
	var grant models.ProgramEventAdmin
	err := db.WithContext(ctx).
		Where("user_id = ? AND program_id = ?", userID, programID).
		Take(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramEventAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("program event admin service: load grant: %w", err)
	}
	return &grant, nil
}

type programEventAdminTransition func(grant *models.ProgramEventAdmin, stamp models.ActorStamp) (map[string]any, error)

func (s *ProgramEventAdminService) transition(ctx context.Context, actorID, programID, userRef string, action permissions.Action, name string, empowers bool, apply programEventAdminTransition) (*models.ProgramEventAdmin, error) {
	ctx = ensureContext(ctx)

	actor, program, err := s.authorizeOn(ctx, actorID, programID, action)
	if err != nil {
		return nil, err
	}
	target, err := lookupUser(ctx, s.db, userRef)
	if err != nil {
		return nil, err
	}

	var updated *models.ProgramEventAdmin
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveProgram(tx, program.ID); err != nil {
			return err
		}
		if empowers {
			if err := requireActiveGrantee(tx, target.ID); err != nil {
				return err
			}
		}
		grant, err := s.grantOf(ctx, tx, target.ID, program.ID)
		if err != nil {
			return err
		}
		updated, err = applyTransition[models.ProgramEventAdmin](tx, grant.ID, func(row *models.ProgramEventAdmin) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("program_event_admin", name, err)
	if err != nil {
		return nil, wrapServiceError("program event admin service", name, err)
	}

	s.audit(ctx, actor, string(action), updated.ID, map[string]any{
		"program_id": program.ID,
		"user_id":    target.ID,
		"status":     string(updated.Status),
	})
	return updated, nil
}

// requireActiveProgram rejects work against an archived program inside tx.
func requireActiveProgram(tx *gorm.DB, programID string) error {
	var current models.Program
	if err := tx.Take(&current, "id = ?", programID).Error; err != nil {
		return err
	}
	if !current.IsActive {
		return ErrProgramArchived
	}
	return nil
}
