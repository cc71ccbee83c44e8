package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

var (
	// ErrInviteNotFound indicates the requested program invite does not exist.
	ErrInviteNotFound = apperrors.NewNotFound("Invite not found.")
	// ErrMembershipNotFound indicates the requested program membership does not exist.
	ErrMembershipNotFound = apperrors.NewNotFound("Invited organization program not found.")

	ErrOrganizationAlreadyInvited = apperrors.NewConflict("Organization is already invited to this program.")
	ErrInviteUndone               = apperrors.NewConflict("Invite is undone.")
	ErrInviteAlreadyUndone        = apperrors.NewConflict("Invite is already undone.")
	ErrInviteAlreadyRemoved       = apperrors.NewConflict("Invite is already removed.")
	ErrInviteAlreadyAccepted      = apperrors.NewConflict("Invite is already accepted.")
	ErrInviteAlreadyRejected      = apperrors.NewConflict("Invite is already rejected.")
	ErrOrganizationAlreadyMember  = apperrors.NewConflict("Organization is already in this program.")
	ErrMembershipAlreadyLeft      = apperrors.NewConflict("Had left the program already.")
)

// InvitePolicy tunes the membership rules applied when an invite is accepted.
type InvitePolicy struct {
	// SingleMembershipPerProgram refuses an accept while any other organization holds an
	// active membership in the program.
	SingleMembershipPerProgram bool
}

// DefaultInvitePolicy returns the policy used when nothing is configured.
func DefaultInvitePolicy() InvitePolicy {
	return InvitePolicy{SingleMembershipPerProgram: true}
}

// InviteService runs the cross-organization program invite workflow.
type InviteService struct {
	engine
	policy InvitePolicy
}

// NewInviteService constructs an InviteService.
func NewInviteService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, policy InvitePolicy, opts ...Option) (*InviteService, error) {
	e, err := newEngine("invite service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &InviteService{engine: e, policy: policy}, nil
}

// Invite asks the organization identified by organizationCode to join a program.
func (s *InviteService) Invite(ctx context.Context, actorID, programID, organizationCode string) (*models.ProgramInvite, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	program, owner, err := loadProgramScope(ctx, s.db, programID)
	if err != nil {
		return nil, wrapServiceError("invite service", "invite", err)
	}
	if err := s.authorize(ctx, actor, permissions.ProgramInviteOrganization, permissions.OnProgram(program, owner)); err != nil {
		return nil, err
	}
	invitee, err := organizationByCode(ctx, s.db, organizationCode)
	if err != nil {
		return nil, err
	}

	invite := &models.ProgramInvite{
		OrganizationID: invitee.ID,
		ProgramID:      program.ID,
		IsActive:       true,
		InvitedByID:    actor.ID,
		InvitedAt:      s.timestamp(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveProgram(tx, program.ID); err != nil {
			return err
		}
		if err := claimProgram(tx, program.ID); err != nil {
			return err
		}
		var current models.Organization
		if err := tx.Take(&current, "id = ?", invitee.ID).Error; err != nil {
			return err
		}
		if !current.IsActive {
			return ErrOrganizationArchived
		}
		var pending int64
		if err := tx.Model(&models.ProgramInvite{}).
			Where("organization_id = ? AND program_id = ? AND is_active = ?", invitee.ID, program.ID, true).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrOrganizationAlreadyInvited
		}
		return tx.Create(invite).Error
	})
	observeTransition("invite", "invite", err)
	if err != nil {
		return nil, wrapServiceError("invite service", "invite", err)
	}

	s.audit(ctx, actor, string(permissions.ProgramInviteOrganization), invite.ID, map[string]any{
		"program_id":      program.ID,
		"organization_id": invitee.ID,
	})
	return invite, nil
}

// Get returns an invite by id.
func (s *InviteService) Get(ctx context.Context, id string) (*models.ProgramInvite, error) {
	ctx = ensureContext(ctx)
	invite, err := findByID[models.ProgramInvite](ctx, s.db, id, ErrInviteNotFound)
	if err != nil {
		return nil, wrapServiceError("invite service", "get", err)
	}
	return invite, nil
}

// Accept admits the invited organization into the program and materialises its membership.
func (s *InviteService) Accept(ctx context.Context, actorID, inviteID string) (*models.ProgramInvite, error) {
	ctx = ensureContext(ctx)

	actor, invite, err := s.loadInvitee(ctx, actorID, inviteID, permissions.InviteAccept, "accept")
	if err != nil {
		return nil, err
	}

	var (
		updated    *models.ProgramInvite
		membership *models.InvitedOrganizationProgram
	)
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimProgram(tx, invite.ProgramID); err != nil {
			return err
		}
		var err error
		updated, err = applyTransition[models.ProgramInvite](tx, invite.ID, func(row *models.ProgramInvite) (map[string]any, error) {
			switch {
			case !row.IsActive:
				return nil, ErrInviteUndone
			case row.Accepted.IsSet():
				return nil, ErrInviteAlreadyAccepted
			case row.Rejected.IsSet():
				return nil, ErrInviteAlreadyRejected
			}
			if err := s.checkMembershipSlot(tx, row); err != nil {
				return nil, err
			}
			return stamp.Columns("accepted_"), nil
		})
		if err != nil {
			return err
		}
		membership = &models.InvitedOrganizationProgram{
			OrganizationID: updated.OrganizationID,
			ProgramID:      updated.ProgramID,
			InviteID:       updated.ID,
			IsActive:       true,
			Accepted:       stamp,
		}
		return tx.Create(membership).Error
	})
	observeTransition("invite", "accept", err)
	if err != nil {
		return nil, wrapServiceError("invite service", "accept", err)
	}

	s.audit(ctx, actor, string(permissions.InviteAccept), updated.ID, map[string]any{
		"program_id":      updated.ProgramID,
		"organization_id": updated.OrganizationID,
		"membership_id":   membership.ID,
	})
	return updated, nil
}

// Reject declines the invite on behalf of the invited organization.
func (s *InviteService) Reject(ctx context.Context, actorID, inviteID string) (*models.ProgramInvite, error) {
	ctx = ensureContext(ctx)

	actor, invite, err := s.loadInvitee(ctx, actorID, inviteID, permissions.InviteReject, "reject")
	if err != nil {
		return nil, err
	}

	var updated *models.ProgramInvite
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.ProgramInvite](tx, invite.ID, func(row *models.ProgramInvite) (map[string]any, error) {
			switch {
			case !row.IsActive:
				return nil, ErrInviteUndone
			case row.Rejected.IsSet():
				return nil, ErrInviteAlreadyRejected
			case row.Accepted.IsSet():
				return nil, ErrInviteAlreadyAccepted
			}
			return stamp.Columns("rejected_"), nil
		})
		if err != nil {
			return err
		}
		return cascadeMemberships(tx, updated.ID, mergeColumns(map[string]any{"is_active": false}, stamp.Columns("rejected_")))
	})
	observeTransition("invite", "reject", err)
	if err != nil {
		return nil, wrapServiceError("invite service", "reject", err)
	}

	s.audit(ctx, actor, string(permissions.InviteReject), updated.ID, map[string]any{
		"program_id":      updated.ProgramID,
		"organization_id": updated.OrganizationID,
	})
	return updated, nil
}

// Undo withdraws the invite from the inviting side and removes any membership it produced.
func (s *InviteService) Undo(ctx context.Context, actorID, inviteID string) (*models.ProgramInvite, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	invite, err := findByID[models.ProgramInvite](ctx, s.db, inviteID, ErrInviteNotFound)
	if err != nil {
		return nil, wrapServiceError("invite service", "undo", err)
	}
	program, owner, err := loadProgramScope(ctx, s.db, invite.ProgramID)
	if err != nil {
		return nil, wrapServiceError("invite service", "undo", err)
	}
	if err := s.authorize(ctx, actor, permissions.InviteUndo, permissions.OnProgram(program, owner)); err != nil {
		return nil, err
	}

	var updated *models.ProgramInvite
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.ProgramInvite](tx, invite.ID, func(row *models.ProgramInvite) (map[string]any, error) {
			switch {
			case !row.IsActive:
				return nil, ErrInviteAlreadyUndone
			case row.Removed.IsSet():
				return nil, ErrInviteAlreadyRemoved
			}
			return mergeColumns(map[string]any{"is_active": false}, stamp.Columns("removed_")), nil
		})
		if err != nil {
			return err
		}
		return cascadeMemberships(tx, updated.ID, mergeColumns(map[string]any{"is_active": false}, stamp.Columns("removed_")))
	})
	observeTransition("invite", "undo", err)
	if err != nil {
		return nil, wrapServiceError("invite service", "undo", err)
	}

	s.audit(ctx, actor, string(permissions.InviteUndo), updated.ID, map[string]any{
		"program_id":      updated.ProgramID,
		"organization_id": updated.OrganizationID,
	})
	return updated, nil
}

// Leave ends a membership from the member organization's side. The invite row is left as is.
func (s *InviteService) Leave(ctx context.Context, actorID, membershipID string) (*models.InvitedOrganizationProgram, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	membership, err := findByID[models.InvitedOrganizationProgram](ctx, s.db, membershipID, ErrMembershipNotFound)
	if err != nil {
		return nil, wrapServiceError("invite service", "leave", err)
	}
	member, err := findByID[models.Organization](ctx, s.db, membership.OrganizationID, ErrOrganizationNotFound)
	if err != nil {
		return nil, wrapServiceError("invite service", "leave", err)
	}
	if err := s.authorize(ctx, actor, permissions.MembershipLeave, permissions.OnOrganization(member)); err != nil {
		return nil, err
	}

	var updated *models.InvitedOrganizationProgram
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.InvitedOrganizationProgram](tx, membership.ID, func(row *models.InvitedOrganizationProgram) (map[string]any, error) {
			switch {
			case row.Removed.IsSet():
				return nil, ErrMembershipAlreadyLeft
			case !row.IsActive:
				return nil, ErrInviteAlreadyUndone
			}
			return mergeColumns(map[string]any{"is_active": false}, stamp.Columns("removed_")), nil
		})
		return err
	})
	observeTransition("membership", "leave", err)
	if err != nil {
		return nil, wrapServiceError("invite service", "leave", err)
	}

	s.audit(ctx, actor, string(permissions.MembershipLeave), updated.ID, map[string]any{
		"program_id":      updated.ProgramID,
		"organization_id": updated.OrganizationID,
	})
	return updated, nil
}

// ListByProgram returns every invite sent for a program.
func (s *InviteService) ListByProgram(ctx context.Context, actorID, programID string) ([]models.ProgramInvite, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	program, owner, err := loadProgramScope(ctx, s.db, programID)
	if err != nil {
		return nil, wrapServiceError("invite service", "list by program", err)
	}
	if err := s.authorize(ctx, actor, permissions.InviteList, permissions.OnProgram(program, owner)); err != nil {
		return nil, err
	}

	var invites []models.ProgramInvite
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("program_id = ?", program.ID).
		Order("invited_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list by program: %w", err)
	}
	return invites, nil
}

// ListByOrganization returns every invite an organization has received.
func (s *InviteService) ListByOrganization(ctx context.Context, actorID, organizationID string) ([]models.ProgramInvite, error) {
	ctx = ensureContext(ctx)

	org, err := s.authorizeOrganization(ctx, actorID, organizationID, "list by organization")
	if err != nil {
		return nil, err
	}
	var invites []models.ProgramInvite
	if err := s.db.WithContext(ctx).
		Preload("Program").
		Where("organization_id = ?", org.ID).
		Order("invited_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list by organization: %w", err)
	}
	return invites, nil
}

// ListMemberships returns an organization's program memberships, active or not.
func (s *InviteService) ListMemberships(ctx context.Context, actorID, organizationID string) ([]models.InvitedOrganizationProgram, error) {
	ctx = ensureContext(ctx)

	org, err := s.authorizeOrganization(ctx, actorID, organizationID, "list memberships")
	if err != nil {
		return nil, err
	}
	var memberships []models.InvitedOrganizationProgram
	if err := s.db.WithContext(ctx).
		Preload("Program").
		Where("organization_id = ?", org.ID).
		Order("created_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("invite service: list memberships: %w", err)
	}
	return memberships, nil
}

func (s *InviteService) authorizeOrganization(ctx context.Context, actorID, organizationID, op string) (*models.Organization, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	org, err := findByID[models.Organization](ctx, s.db, organizationID, ErrOrganizationNotFound)
	if err != nil {
		return nil, wrapServiceError("invite service", op, err)
	}
	if err := s.authorize(ctx, actor, permissions.InviteList, permissions.OnOrganization(org)); err != nil {
		return nil, err
	}
	return org, nil
}

// loadInvitee resolves an invite and authorizes the actor against the invited organization.
func (s *InviteService) loadInvitee(ctx context.Context, actorID, inviteID string, action permissions.Action, op string) (*models.User, *models.ProgramInvite, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	invite, err := findByID[models.ProgramInvite](ctx, s.db, inviteID, ErrInviteNotFound)
	if err != nil {
		return nil, nil, wrapServiceError("invite service", op, err)
	}
	invitee, err := findByID[models.Organization](ctx, s.db, invite.OrganizationID, ErrOrganizationNotFound)
	if err != nil {
		return nil, nil, wrapServiceError("invite service", op, err)
	}
	if err := s.authorize(ctx, actor, action, permissions.OnOrganization(invitee)); err != nil {
		return nil, nil, err
	}
	return actor, invite, nil
}

// checkMembershipSlot enforces the membership policy for the invite's program.
func (s *InviteService) checkMembershipSlot(tx *gorm.DB, invite *models.ProgramInvite) error {
	query := tx.Model(&models.InvitedOrganizationProgram{}).
		Where("program_id = ? AND is_active = ?", invite.ProgramID, true)
	if !s.policy.SingleMembershipPerProgram {
		query = query.Where("organization_id = ?", invite.OrganizationID)
	}
	var active int64
	if err := query.Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return ErrOrganizationAlreadyMember
	}
	return nil
}

// claimProgram bumps the program version inside tx. Invite and membership
// counts for a program are only trusted after the claim: a second writer on the
// same program blocks on the row and then fails the version guard.
func claimProgram(tx *gorm.DB, programID string) error {
	var current models.Program
	if err := tx.Select("id", "version").Take(&current, "id = ?", programID).Error; err != nil {
		return err
	}
	res := tx.Model(&models.Program{}).
		Where("id = ? AND version = ?", programID, current.Version).
		UpdateColumn("version", current.Version+1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConcurrentUpdate
	}
	return nil
}

// cascadeMemberships applies columns to every still-active membership created from an invite.
func cascadeMemberships(tx *gorm.DB, inviteID string, columns map[string]any) error {
	columns["version"] = gorm.Expr("version + 1")
	return tx.Model(&models.InvitedOrganizationProgram{}).
		Where("invite_id = ? AND is_active = ?", inviteID, true).
		Updates(columns).Error
}
