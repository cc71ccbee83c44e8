package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/metrics"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

const (
	// DefaultShortCodeTTL bounds how long a short code lookup stays cached.
	DefaultShortCodeTTL = 10 * time.Minute

	shortCodeAttempts = 5
)

var (
	// ErrEventNotFound indicates the requested event does not exist.
	ErrEventNotFound = apperrors.NewNotFound("Event not found.")

	ErrEventAlreadyArchived  = apperrors.NewConflict("Event is already archived.")
	ErrEventNotArchived      = apperrors.NewConflict("Event is not archived.")
	ErrEventArchived         = apperrors.NewConflict("Event is archived.")
	ErrEventAlreadyConcluded = apperrors.NewConflict("Event is already concluded.")

	errShortCodeExhausted = errors.New("event service: could not allocate a unique short code")
)

// CreateEventInput captures new event metadata.
type CreateEventInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

// ShortCodeCache configures the lookup cache in front of GetByShortCode.
type ShortCodeCache struct {
	Store cache.Store
	TTL   time.Duration
}

// EventService manages events and their archive and conclusion state.
type EventService struct {
	engine
	cache ShortCodeCache
}

// NewEventService constructs an EventService. A nil cache store disables caching.
func NewEventService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, lookupCache ShortCodeCache, opts ...Option) (*EventService, error) {
	e, err := newEngine("event service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	if lookupCache.TTL <= 0 {
		lookupCache.TTL = DefaultShortCodeTTL
	}
	return &EventService{engine: e, cache: lookupCache}, nil
}

// Create schedules a new event under an active program and allocates its short code.
func (s *EventService) Create(ctx context.Context, actorID, programID string, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	program, org, err := loadProgramScope(ctx, s.db, programID)
	if err != nil {
		return nil, wrapServiceError("event service", "create", err)
	}
	if err := s.authorize(ctx, actor, permissions.EventCreate, permissions.OnProgram(program, org)); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validator.ValidateStruct(input); err != nil {
		return nil, validator.AsAppError(err)
	}

	var event *models.Event
	for attempt := 0; attempt < shortCodeAttempts; attempt++ {
		code, err := crypto.RandomLowercase(models.ShortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("event service: short code: %w", err)
		}
		candidate := &models.Event{
			ProgramID:   program.ID,
			Title:       input.Title,
			Description: input.Description,
			ShortCode:   code,
			CreatedByID: actor.ID,
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := requireActiveProgram(tx, program.ID); err != nil {
				return err
			}
			var taken int64
			if err := tx.Model(&models.Event{}).Where("short_code = ?", code).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return errShortCodeExhausted
			}
			return tx.Create(candidate).Error
		})
		if err == nil {
			event = candidate
			break
		}
		if errors.Is(err, errShortCodeExhausted) || isUniqueConstraintError(err) {
			continue
		}
		return nil, wrapServiceError("event service", "create", err)
	}
	if event == nil {
		return nil, errShortCodeExhausted
	}

	s.audit(ctx, actor, string(permissions.EventCreate), event.ID, map[string]any{
		"program_id": program.ID,
		"short_code": event.ShortCode,
	})
	return event, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	ctx = ensureContext(ctx)
	event, err := findByID[models.Event](ctx, s.db, id, ErrEventNotFound)
	if err != nil {
		return nil, wrapServiceError("event service", "get", err)
	}
	return event, nil
}

// GetByShortCode resolves the public short code attendees type in to check in.
// Only the event row is cached. The owning program and organization are read on
// every call.
func (s *EventService) GetByShortCode(ctx context.Context, code string) (*models.Event, error) {
	ctx = ensureContext(ctx)

	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != models.ShortCodeLength {
		return nil, ErrEventNotFound
	}

	event, err := s.eventByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var program models.Program
	err = s.db.WithContext(ctx).Preload("Organization").Take(&program, "id = ?", event.ProgramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: get by short code: %w", err)
	}
	event.Program = &program
	return event, nil
}

func (s *EventService) eventByShortCode(ctx context.Context, code string) (*models.Event, error) {
	key := shortCodeKey(code)
	if s.cache.Store != nil {
		raw, ok, err := s.cache.Store.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			logger.WithModule("events").Warn("short code cache lookup failed", zap.String("short_code", code), zap.Error(err))
		case ok:
			var cached models.Event
			if err := json.Unmarshal(raw, &cached); err == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				cached.Program = nil
				return &cached, nil
			}
			metrics.CacheLookups.WithLabelValues("error").Inc()
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	var event models.Event
	err := s.db.WithContext(ctx).Where("short_code = ?", code).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: get by short code: %w", err)
	}

	if s.cache.Store != nil {
		if payload, err := json.Marshal(&event); err == nil {
			if err := s.cache.Store.Set(ctx, key, payload, s.cache.TTL); err != nil {
				logger.WithModule("events").Warn("short code cache store failed", zap.String("short_code", code), zap.Error(err))
			}
		}
	}
	return &event, nil
}

// Archive hides an event from check-in. Concluded events may still be archived.
func (s *EventService) Archive(ctx context.Context, actorID, id string) (*models.Event, error) {
	return s.transition(ctx, actorID, id, permissions.EventArchive, "archive", func(event *models.Event, stamp models.ActorStamp) (map[string]any, error) {
		if event.IsArchived {
			return nil, ErrEventAlreadyArchived
		}
		return mergeColumns(map[string]any{"is_archived": true}, stamp.Columns("archived_")), nil
	})
}

// Reactivate reopens an archived event. The archive stamp is kept as history.
func (s *EventService) Reactivate(ctx context.Context, actorID, id string) (*models.Event, error) {
	return s.transition(ctx, actorID, id, permissions.EventReactivate, "reactivate", func(event *models.Event, stamp models.ActorStamp) (map[string]any, error) {
		if !event.IsArchived {
			return nil, ErrEventNotArchived
		}
		return mergeColumns(map[string]any{"is_archived": false}, stamp.Columns("reactivated_")), nil
	})
}

// Conclude marks an event finished. Archived or already concluded events are refused.
func (s *EventService) Conclude(ctx context.Context, actorID, id string) (*models.Event, error) {
	return s.transition(ctx, actorID, id, permissions.EventConclude, "conclude", func(event *models.Event, stamp models.ActorStamp) (map[string]any, error) {
		if event.IsArchived {
			return nil, ErrEventArchived
		}
		if event.IsConcluded {
			return nil, ErrEventAlreadyConcluded
		}
		return mergeColumns(map[string]any{"is_concluded": true}, stamp.Columns("concluded_")), nil
	})
}

// ListByProgram returns a program's events, newest first.
func (s *EventService) ListByProgram(ctx context.Context, programID string) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	if _, err := findByID[models.Program](ctx, s.db, programID, ErrProgramNotFound); err != nil {
		return nil, wrapServiceError("event service", "list by program", err)
	}
	var events []models.Event
	if err := s.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("event service: list by program: %w", err)
	}
	return events, nil
}

type eventTransition func(event *models.Event, stamp models.ActorStamp) (map[string]any, error)

func (s *EventService) transition(ctx context.Context, actorID, id string, action permissions.Action, name string, apply eventTransition) (*models.Event, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	event, err := findByID[models.Event](ctx, s.db, id, ErrEventNotFound)
	if err != nil {
		return nil, wrapServiceError("event service", name, err)
	}
	program, org, err := loadProgramScope(ctx, s.db, event.ProgramID)
	if err != nil {
		return nil, wrapServiceError("event service", name, err)
	}
	if err := s.authorize(ctx, actor, action, permissions.OnProgram(program, org)); err != nil {
		return nil, err
	}

	var updated *models.Event
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.Event](tx, event.ID, func(row *models.Event) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("event", name, err)
	if err != nil {
		return nil, wrapServiceError("event service", name, err)
	}

	s.forget(ctx, updated.ShortCode)
	s.audit(ctx, actor, string(action), updated.ID, map[string]any{
		"program_id": updated.ProgramID,
		"short_code": updated.ShortCode,
	})
	return updated, nil
}

func (s *EventService) forget(ctx context.Context, code string) {
	if s.cache.Store == nil {
		return
	}
	if err := s.cache.Store.Delete(ctx, shortCodeKey(code)); err != nil {
		logger.WithModule("events").Warn("short code cache eviction failed", zap.String("short_code", code), zap.Error(err))
	}
}

func shortCodeKey(code string) string {
	return cache.Key("event", "short_code", code)
}
