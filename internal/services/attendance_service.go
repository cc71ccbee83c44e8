package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/metrics"
)

const maxDisplayNameLength = 255

var (
	// ErrAttendanceNotFound indicates the requested attendance does not exist.
	ErrAttendanceNotFound = apperrors.NewNotFound("Attendance not found.")

	ErrAttendanceAlreadyRecorded    = apperrors.NewConflict("Attendance is already recorded for this event.")
	ErrAttendanceAlreadyInvalidated = apperrors.NewConflict("Attendance is already invalidated.")
	ErrAttendanceAlreadyValidated   = apperrors.NewConflict("Attendance is already validated.")
	ErrDisplayNameTooLong           = apperrors.NewValidation("Display name must be at most 255 characters.")
)

// CheckInInput is what an attendee submits at the door.
type CheckInInput struct {
	Signature   string  `json:"signature"`
	DisplayName *string `json:"display_name"`
}

// AttendanceService records check-ins and lets program staff adjust their validity.
type AttendanceService struct {
	engine
	signatures SignatureCheck
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, signatures SignatureCheck, opts ...Option) (*AttendanceService, error) {
	e, err := newEngine("attendance service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	if err := signatures.validate("attendance service"); err != nil {
		return nil, err
	}
	return &AttendanceService{engine: e, signatures: signatures}, nil
}

// CheckIn verifies the actor's signature against their reference and records a valid
// attendance for the event.
func (s *AttendanceService) CheckIn(ctx context.Context, actorID, eventID string, input CheckInInput) (*models.Attendance, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	event, err := findByID[models.Event](ctx, s.db, eventID, ErrEventNotFound)
	if err != nil {
		return nil, wrapServiceError("attendance service", "check in", err)
	}
	if err := s.authorize(ctx, actor, permissions.AttendanceCheckIn, permissions.Target{}); err != nil {
		return nil, err
	}

	displayName, err := normaliseDisplayName(input.DisplayName)
	if err != nil {
		return nil, err
	}

	if !actor.HasSignature() {
		metrics.CheckIns.WithLabelValues("rejected").Inc()
		return nil, ErrUserNotFound
	}
	if _, err := s.signatures.match(ctx, actor, input.Signature); err != nil {
		metrics.CheckIns.WithLabelValues("rejected").Inc()
		return nil, wrapServiceError("attendance service", "check in", err)
	}

	attendance := &models.Attendance{
		EventID:     event.ID,
		AttendeeID:  actor.ID,
		DisplayName: displayName,
		Valid:       true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Event
		if err := tx.Take(&current, "id = ?", event.ID).Error; err != nil {
			return err
		}
		if current.IsArchived {
			return ErrEventArchived
		}
		var existing int64
		if err := tx.Model(&models.Attendance{}).
			Where("event_id = ? AND attendee_id = ?", event.ID, actor.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAttendanceAlreadyRecorded
		}
		if err := tx.Create(attendance).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAttendanceAlreadyRecorded
			}
			return err
		}
		return nil
	})
	if err != nil {
		metrics.CheckIns.WithLabelValues("rejected").Inc()
		return nil, wrapServiceError("attendance service", "check in", err)
	}
	metrics.CheckIns.WithLabelValues("recorded").Inc()

	s.audit(ctx, actor, string(permissions.AttendanceCheckIn), attendance.ID, map[string]any{
		"event_id": event.ID,
	})
	return attendance, nil
}

// Get returns an attendance by id.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.Attendance, error) {
	ctx = ensureContext(ctx)
	attendance, err := findByID[models.Attendance](ctx, s.db, id, ErrAttendanceNotFound)
	if err != nil {
		return nil, wrapServiceError("attendance service", "get", err)
	}
	return attendance, nil
}

// Invalidate marks an attendance as not counting towards the event.
func (s *AttendanceService) Invalidate(ctx context.Context, actorID, id string) (*models.Attendance, error) {
	return s.transition(ctx, actorID, id, "invalidate", func(attendance *models.Attendance, stamp models.ActorStamp) (map[string]any, error) {
		if !attendance.Valid {
			return nil, ErrAttendanceAlreadyInvalidated
		}
		return mergeColumns(map[string]any{"valid": false}, stamp.Columns("invalidated_")), nil
	})
}

// Revalidate restores an invalidated attendance.
func (s *AttendanceService) Revalidate(ctx context.Context, actorID, id string) (*models.Attendance, error) {
	return s.transition(ctx, actorID, id, "revalidate", func(attendance *models.Attendance, stamp models.ActorStamp) (map[string]any, error) {
		if attendance.Valid {
			return nil, ErrAttendanceAlreadyValidated
		}
		return mergeColumns(map[string]any{"valid": true}, stamp.Columns("validated_")), nil
	})
}

// UpdateDisplayName lets the attendee rename their own entry. A blank name clears it.
func (s *AttendanceService) UpdateDisplayName(ctx context.Context, actorID, id string, name string) (*models.Attendance, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	attendance, err := findByID[models.Attendance](ctx, s.db, id, ErrAttendanceNotFound)
	if err != nil {
		return nil, wrapServiceError("attendance service", "update display name", err)
	}
	if err := s.authorize(ctx, actor, permissions.AttendanceUpdateDisplayName, permissions.OnSubject(attendance.AttendeeID)); err != nil {
		return nil, err
	}
	displayName, err := normaliseDisplayName(&name)
	if err != nil {
		return nil, err
	}

	var updated *models.Attendance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.Attendance](tx, attendance.ID, func(*models.Attendance) (map[string]any, error) {
			return map[string]any{"display_name": displayName}, nil
		})
		return err
	})
	if err != nil {
		return nil, wrapServiceError("attendance service", "update display name", err)
	}

	s.audit(ctx, actor, string(permissions.AttendanceUpdateDisplayName), updated.ID, map[string]any{
		"event_id": updated.EventID,
	})
	return updated, nil
}

// ListByEvent returns every attendance of an event, newest first.
func (s *AttendanceService) ListByEvent(ctx context.Context, actorID, eventID string) ([]models.Attendance, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	event, err := findByID[models.Event](ctx, s.db, eventID, ErrEventNotFound)
	if err != nil {
		return nil, wrapServiceError("attendance service", "list by event", err)
	}
	program, org, err := loadProgramScope(ctx, s.db, event.ProgramID)
	if err != nil {
		return nil, wrapServiceError("attendance service", "list by event", err)
	}
	if err := s.authorize(ctx, actor, permissions.AttendanceList, permissions.OnProgram(program, org)); err != nil {
		return nil, err
	}

	var attendances []models.Attendance
	if err := s.db.WithContext(ctx).
		Preload("Attendee").
		Where("event_id = ?", event.ID).
		Order("created_at DESC").
		Find(&attendances).Error; err != nil {
		return nil, fmt.Errorf("attendance service: list by event: %w", err)
	}
	return attendances, nil
}

// ListMine returns the actor's own check-ins with their events.
func (s *AttendanceService) ListMine(ctx context.Context, actorID string) ([]models.Attendance, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var attendances []models.Attendance
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Where("attendee_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&attendances).Error; err != nil {
		return nil, fmt.Errorf("attendance service: list mine: %w", err)
	}
	return attendances, nil
}

// MyAttendedPrograms returns the programs the actor holds at least one valid attendance in.
func (s *AttendanceService) MyAttendedPrograms(ctx context.Context, actorID string) ([]models.Program, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var programs []models.Program
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", s.attendedProgramIDs(actor.ID)).
		Order("name ASC").
		Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("attendance service: attended programs: %w", err)
	}
	return programs, nil
}

// MyAttendedOrganizations returns the organizations owning those programs.
func (s *AttendanceService) MyAttendedOrganizations(ctx context.Context, actorID string) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	owners := s.db.Model(&models.Program{}).
		Select("organization_id").
		Where("id IN (?)", s.attendedProgramIDs(actor.ID))

	var orgs []models.Organization
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", owners).
		Order("name ASC").
		Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("attendance service: attended organizations: %w", err)
	}
	return orgs, nil
}

func (s *AttendanceService) attendedProgramIDs(userID string) *gorm.DB {
	attended := s.db.Model(&models.Attendance{}).
		Select("event_id").
		Where("attendee_id = ? AND valid = ?", userID, true)
	return s.db.Model(&models.Event{}).
		Select("program_id").
		Where("id IN (?)", attended)
}

type attendanceTransition func(attendance *models.Attendance, stamp models.ActorStamp) (map[string]any, error)

func (s *AttendanceService) transition(ctx context.Context, actorID, id, name string, apply attendanceTransition) (*models.Attendance, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	attendance, err := findByID[models.Attendance](ctx, s.db, id, ErrAttendanceNotFound)
	if err != nil {
		return nil, wrapServiceError("attendance service", name, err)
	}
	event, err := findByID[models.Event](ctx, s.db, attendance.EventID, ErrEventNotFound)
	if err != nil {
		return nil, wrapServiceError("attendance service", name, err)
	}
	program, org, err := loadProgramScope(ctx, s.db, event.ProgramID)
	if err != nil {
		return nil, wrapServiceError("attendance service", name, err)
	}
	if err := s.authorize(ctx, actor, permissions.AttendanceChangeValidity, permissions.OnProgram(program, org)); err != nil {
		return nil, err
	}

	var updated *models.Attendance
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.Attendance](tx, attendance.ID, func(row *models.Attendance) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("attendance", name, err)
	if err != nil {
		return nil, wrapServiceError("attendance service", name, err)
	}

	s.audit(ctx, actor, "attendance."+name, updated.ID, map[string]any{
		"event_id":    updated.EventID,
		"attendee_id": updated.AttendeeID,
	})
	return updated, nil
}

func normaliseDisplayName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > maxDisplayNameLength {
		return nil, ErrDisplayNameTooLong
	}
	return &trimmed, nil
}
