package permissions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

// Capability names a boolean flag carried by a delegated grant.
type Capability string

// Organization admin capabilities.
const (
	CapAddAnotherAdmin          Capability = "can_add_another_admin"
	CapArchiveOrganization      Capability = "can_archive_organization"
	CapChangeAttendanceValidity Capability = "can_change_attendance_validity"
	CapCreatePrograms           Capability = "can_create_programs"
)

// Program event admin capabilities. CapAddAnotherAdmin and CapChangeAttendanceValidity
// are shared with organization grants.
const (
	CapArchiveProgram                  Capability = "can_archive_program"
	CapArchiveEvent                    Capability = "can_archive_event"
	CapAddEventOrganizer               Capability = "can_add_event_organizer"
	CapRemoveEventOrganizerFromProgram Capability = "can_remove_event_organizer_from_program"
	CapCreateEvents                    Capability = "can_create_events"
	CapConcludeEvents                  Capability = "can_conclude_events"
)

type orgFlag func(*models.OrganizationCapabilities) *bool

type programFlag func(*models.ProgramCapabilities) *bool

var organizationFlags = map[Capability]orgFlag{
	CapAddAnotherAdmin:          func(c *models.OrganizationCapabilities) *bool { return &c.CanAddAnotherAdmin },
	CapArchiveOrganization:      func(c *models.OrganizationCapabilities) *bool { return &c.CanArchiveOrganization },
	CapChangeAttendanceValidity: func(c *models.OrganizationCapabilities) *bool { return &c.CanChangeAttendanceValidity },
	CapCreatePrograms:           func(c *models.OrganizationCapabilities) *bool { return &c.CanCreatePrograms },
}

var programFlags = map[Capability]programFlag{
	CapAddAnotherAdmin:                 func(c *models.ProgramCapabilities) *bool { return &c.CanAddAnotherAdmin },
	CapArchiveProgram:                  func(c *models.ProgramCapabilities) *bool { return &c.CanArchiveProgram },
	CapArchiveEvent:                    func(c *models.ProgramCapabilities) *bool { return &c.CanArchiveEvent },
	CapAddEventOrganizer:               func(c *models.ProgramCapabilities) *bool { return &c.CanAddEventOrganizer },
	CapRemoveEventOrganizerFromProgram: func(c *models.ProgramCapabilities) *bool { return &c.CanRemoveEventOrganizerFromProgram },
	CapChangeAttendanceValidity:        func(c *models.ProgramCapabilities) *bool { return &c.CanChangeAttendanceValidity },
	CapCreateEvents:                    func(c *models.ProgramCapabilities) *bool { return &c.CanCreateEvents },
	CapConcludeEvents:                  func(c *models.ProgramCapabilities) *bool { return &c.CanConcludeEvents },
}

// OrganizationGrantHas reports whether an active organization grant carries capability.
func OrganizationGrantHas(grant *models.OrganizationAdmin, capability Capability) bool {
	if !grant.IsActive() {
		return false
	}
	flag, ok := organizationFlags[capability]
	if !ok {
		return false
	}
	return *flag(&grant.OrganizationCapabilities)
}

// ProgramGrantHas reports whether an active program grant carries capability.
func ProgramGrantHas(grant *models.ProgramEventAdmin, capability Capability) bool {
	if !grant.IsActive() {
		return false
	}
	flag, ok := programFlags[capability]
	if !ok {
		return false
	}
	return *flag(&grant.ProgramCapabilities)
}

// ApplyOrganizationCapabilities writes patch onto caps. Only supplied names are touched.
// It returns the column assignments for the patch, or a validation error for unknown names.
func ApplyOrganizationCapabilities(caps *models.OrganizationCapabilities, patch map[string]bool) (map[string]any, error) {
	columns := make(map[string]any, len(patch))
	for _, name := range sortedKeys(patch) {
		flag, ok := organizationFlags[Capability(name)]
		if !ok {
			return nil, unknownCapability(name, "organization", OrganizationCapabilityNames())
		}
		*flag(caps) = patch[name]
		columns[name] = patch[name]
	}
	return columns, nil
}

// ApplyProgramCapabilities writes patch onto caps. Only supplied names are touched.
// It returns the column assignments for the patch, or a validation error for unknown names.
func ApplyProgramCapabilities(caps *models.ProgramCapabilities, patch map[string]bool) (map[string]any, error) {
	columns := make(map[string]any, len(patch))
	for _, name := range sortedKeys(patch) {
		flag, ok := programFlags[Capability(name)]
		if !ok {
			return nil, unknownCapability(name, "program", ProgramCapabilityNames())
		}
		*flag(caps) = patch[name]
		columns[name] = patch[name]
	}
	return columns, nil
}

// OrganizationCapabilityNames lists the valid organization capability names.
func OrganizationCapabilityNames() []string {
	return capabilityNames(organizationFlags)
}

// ProgramCapabilityNames lists the valid program capability names.
func ProgramCapabilityNames() []string {
	return capabilityNames(programFlags)
}

func capabilityNames[T any](flags map[Capability]T) []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

func unknownCapability(name, scope string, valid []string) error {
	name = strings.TrimSpace(name)
	return apperrors.NewValidation(fmt.Sprintf("unknown %s capability %q; valid: %s", scope, name, strings.Join(valid, ", ")))
}

func sortedKeys(values map[string]bool) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
