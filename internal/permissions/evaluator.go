package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/metrics"
)

// Scope identifies the aggregate a capability is granted on.
type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeProgram      Scope = "program"
)

// Target is the entity an action is evaluated against. Program scoped targets set
// Program; the owning organization is loaded when Organization is nil.
type Target struct {
	Organization  *models.Organization
	Program       *models.Program
	SubjectUserID string
}

// OnOrganization targets an organization.
func OnOrganization(org *models.Organization) Target {
	return Target{Organization: org}
}

// OnProgram targets a program and, optionally, its already loaded organization.
func OnProgram(program *models.Program, org *models.Organization) Target {
	return Target{Program: program, Organization: org}
}

// OnSubject targets a user record.
func OnSubject(userID string) Target {
	return Target{SubjectUserID: userID}
}

// Evaluator answers whether a user may perform an action. It never writes.
type Evaluator struct {
	reader GrantReader
}

// NewEvaluator constructs an evaluator over the supplied grant storage.
func NewEvaluator(reader GrantReader) (*Evaluator, error) {
	if reader == nil {
		return nil, errors.New("permission evaluator: grant reader is required")
	}
	return &Evaluator{reader: reader}, nil
}

// CanPerform evaluates action for user against target. Evaluation short-circuits on
// the platform bypass, then root ownership, then active delegated grants.
func (e *Evaluator) CanPerform(ctx context.Context, user *models.User, action Action, target Target) (bool, error) {
	ctx = ensureContext(ctx)

	allowed, err := e.evaluate(ctx, user, action, target)
	result := "denied"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allowed"
	}
	metrics.PermissionChecks.WithLabelValues(string(action), result).Inc()
	return allowed, err
}

// Require is CanPerform mapped onto the error taxonomy.
func (e *Evaluator) Require(ctx context.Context, user *models.User, action Action, target Target) error {
	allowed, err := e.CanPerform(ctx, user, action, target)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

func (e *Evaluator) evaluate(ctx context.Context, user *models.User, action Action, target Target) (bool, error) {
	rule, ok := Get(action)
	if !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	if user == nil || !user.IsActive {
		return false, nil
	}

	if rule.Anyone {
		return true, nil
	}
	if rule.Superuser && user.IsSuperuser {
		return true, nil
	}
	if rule.Staff && user.IsStaff && staffFlagSet(user, rule.StaffRequires) {
		return true, nil
	}
	if rule.OrganizationCreatorFlag && user.CanCreateOrganizations {
		return true, nil
	}
	if rule.Subject && target.SubjectUserID != "" && target.SubjectUserID == user.ID {
		return true, nil
	}

	if !rule.needsScope() {
		return false, nil
	}

	org, err := e.owningOrganization(ctx, target)
	if err != nil {
		return false, err
	}

	if rule.Creator {
		if org != nil && org.CreatedByID == user.ID {
			return true, nil
		}
		if target.Program != nil && target.Program.CreatedByID == user.ID {
			return true, nil
		}
	}

	if org != nil && (rule.AnyOrganizationAdmin || rule.OrganizationCapability != "") {
		grant, err := e.reader.OrganizationGrant(ctx, user.ID, org.ID)
		if err != nil {
			return false, err
		}
		if grant.IsActive() {
			if rule.AnyOrganizationAdmin {
				return true, nil
			}
			if OrganizationGrantHas(grant, rule.OrganizationCapability) {
				return true, nil
			}
		}
	}

	if target.Program != nil && (rule.AnyProgramAdmin || rule.ProgramCapability != "") {
		grant, err := e.reader.ProgramGrant(ctx, user.ID, target.Program.ID)
		if err != nil {
			return false, err
		}
		if grant.IsActive() {
			if rule.AnyProgramAdmin {
				return true, nil
			}
			if ProgramGrantHas(grant, rule.ProgramCapability) {
				return true, nil
			}
		}
	}

	return false, nil
}

// HasCapability reports whether the user holds an active grant carrying capability on
// the given scope.
func (e *Evaluator) HasCapability(ctx context.Context, userID string, scope Scope, scopeID string, capability Capability) (bool, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	scopeID = strings.TrimSpace(scopeID)
	if userID == "" || scopeID == "" {
		return false, nil
	}

	switch scope {
	case ScopeOrganization:
		if _, ok := organizationFlags[capability]; !ok {
			return false, fmt.Errorf("%w: %s", errUnknownCapability, capability)
		}
		grant, err := e.reader.OrganizationGrant(ctx, userID, scopeID)
		if err != nil {
			return false, err
		}
		return OrganizationGrantHas(grant, capability), nil
	case ScopeProgram:
		if _, ok := programFlags[capability]; !ok {
			return false, fmt.Errorf("%w: %s", errUnknownCapability, capability)
		}
		grant, err := e.reader.ProgramGrant(ctx, userID, scopeID)
		if err != nil {
			return false, err
		}
		return ProgramGrantHas(grant, capability), nil
	default:
		return false, fmt.Errorf("permission evaluator: unknown scope %q", scope)
	}
}

func (e *Evaluator) owningOrganization(ctx context.Context, target Target) (*models.Organization, error) {
	if target.Organization != nil {
		return target.Organization, nil
	}
	if target.Program == nil {
		return nil, nil
	}
	return e.reader.Organization(ctx, target.Program.OrganizationID)
}

func (r *Rule) needsScope() bool {
	return r.Creator || r.AnyOrganizationAdmin || r.OrganizationCapability != "" ||
		r.AnyProgramAdmin || r.ProgramCapability != ""
}

func staffFlagSet(user *models.User, flag StaffFlag) bool {
	switch flag {
	case "":
		return true
	case StaffFlagAddStaff:
		return user.CanAddStaff
	case StaffFlagRevokeStaff:
		return user.CanRevokeStaff
	default:
		return false
	}
}
