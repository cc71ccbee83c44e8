package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

const maxRoleLength = 255

// AssignGrantInput describes a new delegated role grant.
type AssignGrantInput struct {
	// User is the grantee's id or email.
	User         string          `json:"user" validate:"required"`
	Role         string          `json:"role" validate:"max=255"`
	Capabilities map[string]bool `json:"capabilities"`
}

// UpdateGrantInput patches an existing grant. Nil or absent fields are left untouched.
type UpdateGrantInput struct {
	Role         *string         `json:"role"`
	Capabilities map[string]bool `json:"capabilities"`
}

// grantConflicts names the reasons a grant lifecycle transition is refused.
type grantConflicts struct {
	revokedBefore   error
	alreadyAssigned error
	alreadyRevoked  error
}

func normaliseRole(role string) (string, error) {
	role = strings.TrimSpace(role)
	if utf8.RuneCountInString(role) > maxRoleLength {
		return "", apperrors.NewValidation(fmt.Sprintf("role must be at most %d characters", maxRoleLength))
	}
	return role, nil
}

// checkAssignable rejects assignment when any grant row already exists for the pair.
func (c grantConflicts) checkAssignable(status models.GrantStatus, exists bool) error {
	if !exists {
		return nil
	}
	if status == models.GrantRevoked {
		return c.revokedBefore
	}
	return c.alreadyAssigned
}

func (c grantConflicts) revokeColumns(status models.GrantStatus, stamp models.ActorStamp) (map[string]any, error) {
	if status == models.GrantRevoked {
		return nil, c.alreadyRevoked
	}
	return mergeColumns(map[string]any{"status": models.GrantRevoked}, stamp.Columns("removed_")), nil
}

func (c grantConflicts) reinstateColumns(status models.GrantStatus, stamp models.ActorStamp) (map[string]any, error) {
	if status == models.GrantActive {
		return nil, c.alreadyAssigned
	}
	return mergeColumns(map[string]any{"status": models.GrantActive}, stamp.Columns("reinstated_")), nil
}

func (c grantConflicts) updateColumns(status models.GrantStatus, role *string, capabilities map[string]any) (map[string]any, error) {
	if status == models.GrantRevoked {
		return nil, c.revokedBefore
	}
	columns := mergeColumns(capabilities)
	if role != nil {
		columns["role"] = *role
	}
	return columns, nil
}

// requireActiveGrantee rejects handing authority to a banned account inside tx.
func requireActiveGrantee(tx *gorm.DB, userID string) error {
	var grantee models.User
	if err := tx.Select("id", "is_active").Take(&grantee, "id = ?", userID).Error; err != nil {
		return err
	}
	if !grantee.IsActive {
		return ErrUserBanned
	}
	return nil
}

// enablesCapability reports whether a capability patch switches any flag on.
func enablesCapability(capabilities map[string]bool) bool {
	for _, on := range capabilities {
		if on {
			return true
		}
	}
	return false
}

func grantStatusFilter(query *gorm.DB, status string) (*gorm.DB, error) {
	switch models.GrantStatus(strings.TrimSpace(status)) {
	case "":
		return query, nil
	case models.GrantActive:
		return query.Where("status = ?", models.GrantActive), nil
	case models.GrantRevoked:
		return query.Where("status = ?", models.GrantRevoked), nil
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown grant status %q", status))
	}
}
