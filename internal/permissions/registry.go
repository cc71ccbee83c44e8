package permissions

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Action identifies an operation subject to permission evaluation.
type Action string

// StaffFlag names a per-user flag that narrows staff authority for an action.
type StaffFlag string

const (
	StaffFlagAddStaff    StaffFlag = "can_add_staff"
	StaffFlagRevokeStaff StaffFlag = "can_revoke_staff"
)

// Rule declares who may perform an action. Evaluation short-circuits on the first
// clause that grants access; an action with no matching clause is denied.
type Rule struct {
	Action      Action
	Module      string
	Description string

	// Anyone allows every authenticated, active user.
	Anyone bool
	// Superuser allows platform superusers.
	Superuser bool
	// Staff allows platform staff, optionally only when StaffRequires is set on the user.
	Staff         bool
	StaffRequires StaffFlag

	// OrganizationCreatorFlag allows users holding the organization creator flag.
	OrganizationCreatorFlag bool

	// Creator allows the creator of the owning organization, or of the owning program
	// when the target is program scoped.
	Creator bool

	// AnyOrganizationAdmin allows any active admin of the owning organization.
	// OrganizationCapability allows active admins holding that capability.
	AnyOrganizationAdmin   bool
	OrganizationCapability Capability

	// AnyProgramAdmin allows any active event admin of the owning program.
	// ProgramCapability allows active program admins holding that capability.
	AnyProgramAdmin   bool
	ProgramCapability Capability

	// Subject allows the user identified by Target.SubjectUserID.
	Subject bool
}

type ruleRegistry struct {
	mu    sync.RWMutex
	rules map[Action]*Rule
}

var globalRegistry = &ruleRegistry{
	rules: make(map[Action]*Rule),
}

var (
	errNilRule           = errors.New("permission: nil rule")
	errEmptyAction       = errors.New("permission: action is required")
	errDuplicateAction   = errors.New("permission: already registered")
	errUnknownCapability = errors.New("permission: unknown capability")

	// ErrUnknownAction is returned when evaluating an action that was never registered.
	ErrUnknownAction = errors.New("permission: unknown action")
)

// Register adds a rule to the global registry.
func Register(rule *Rule) error {
	if rule == nil {
		return errNilRule
	}

	action := Action(strings.TrimSpace(string(rule.Action)))
	if action == "" {
		return errEmptyAction
	}
	if rule.OrganizationCapability != "" {
		if _, ok := organizationFlags[rule.OrganizationCapability]; !ok {
			return fmt.Errorf("%w: %s on %s", errUnknownCapability, rule.OrganizationCapability, action)
		}
	}
	if rule.ProgramCapability != "" {
		if _, ok := programFlags[rule.ProgramCapability]; !ok {
			return fmt.Errorf("%w: %s on %s", errUnknownCapability, rule.ProgramCapability, action)
		}
	}

	def := *rule
	def.Action = action
	def.Module = strings.TrimSpace(def.Module)

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.rules[action]; exists {
		return fmt.Errorf("%w: %s", errDuplicateAction, action)
	}

	globalRegistry.rules[action] = &def
	return nil
}

// Get returns a copy of the rule for action when registered.
func Get(action Action) (*Rule, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	rule, ok := globalRegistry.rules[action]
	if !ok {
		return nil, false
	}
	cp := *rule
	return &cp, true
}
