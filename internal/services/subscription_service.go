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
	ErrAlreadySubscribed = apperrors.NewConflict("Already subscribed to this program.")
	ErrNotSubscribed     = apperrors.NewConflict("You are not subscribed to this program.")
)

// SubscriptionService toggles users' program subscriptions. A returning subscriber
// reactivates their previous row.
type SubscriptionService struct {
	engine
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, opts ...Option) (*SubscriptionService, error) {
	e, err := newEngine("subscription service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	return &SubscriptionService{engine: e}, nil
}

// Subscribe follows a program on behalf of the actor.
func (s *SubscriptionService) Subscribe(ctx context.Context, actorID, programID string) (*models.ProgramSubscriber, error) {
	ctx = ensureContext(ctx)

	actor, program, err := s.load(ctx, actorID, programID, "subscribe")
	if err != nil {
		return nil, err
	}

	var subscription *models.ProgramSubscriber
	now := s.timestamp()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireOpenProgram(tx, program.ID); err != nil {
			return err
		}
		var existing models.ProgramSubscriber
		result := tx.Where("program_id = ? AND subscriber_id = ?", program.ID, actor.ID).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			subscription = &models.ProgramSubscriber{
				ProgramID:    program.ID,
				SubscriberID: actor.ID,
				IsActive:     true,
				SubscribedAt: now,
			}
			if err := tx.Create(subscription).Error; err != nil {
				if isUniqueConstraintError(err) {
					return ErrAlreadySubscribed
				}
				return err
			}
			return nil
		}
		var err error
		subscription, err = applyTransition[models.ProgramSubscriber](tx, existing.ID, func(row *models.ProgramSubscriber) (map[string]any, error) {
			if row.IsActive {
				return nil, ErrAlreadySubscribed
			}
			return map[string]any{
				"is_active":       true,
				"subscribed_at":   now,
				"unsubscribed_at": nil,
			}, nil
		})
		return err
	})
	observeTransition("subscription", "subscribe", err)
	if err != nil {
		return nil, wrapServiceError("subscription service", "subscribe", err)
	}

	s.audit(ctx, actor, string(permissions.ProgramSubscribe), subscription.ID, map[string]any{"program_id": program.ID})
	return subscription, nil
}

// Unsubscribe stops following a program.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, actorID, programID string) (*models.ProgramSubscriber, error) {
	ctx = ensureContext(ctx)

	actor, program, err := s.load(ctx, actorID, programID, "unsubscribe")
	if err != nil {
		return nil, err
	}

	var subscription *models.ProgramSubscriber
	now := s.timestamp()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireOpenProgram(tx, program.ID); err != nil {
			return err
		}
		var existing models.ProgramSubscriber
		result := tx.Where("program_id = ? AND subscriber_id = ? AND is_active = ?", program.ID, actor.ID, true).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotSubscribed
		}
		var err error
		subscription, err = applyTransition[models.ProgramSubscriber](tx, existing.ID, func(row *models.ProgramSubscriber) (map[string]any, error) {
			if !row.IsActive {
				return nil, ErrNotSubscribed
			}
			return map[string]any{"is_active": false, "unsubscribed_at": now}, nil
		})
		return err
	})
	observeTransition("subscription", "unsubscribe", err)
	if err != nil {
		return nil, wrapServiceError("subscription service", "unsubscribe", err)
	}

	s.audit(ctx, actor, "program.unsubscribe", subscription.ID, map[string]any{"program_id": program.ID})
	return subscription, nil
}

// ListSubscribers returns the active subscribers of a program.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, actorID, programID string) ([]models.ProgramSubscriber, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	program, org, err := loadProgramScope(ctx, s.db, programID)
	if err != nil {
		return nil, wrapServiceError("subscription service", "list subscribers", err)
	}
	if err := s.authorize(ctx, actor, permissions.ProgramListSubscribers, permissions.OnProgram(program, org)); err != nil {
		return nil, err
	}

	var subscribers []models.ProgramSubscriber
	if err := s.db.WithContext(ctx).
		Preload("Subscriber").
		Where("program_id = ? AND is_active = ?", program.ID, true).
		Order("subscribed_at DESC").
		Find(&subscribers).Error; err != nil {
		return nil, fmt.Errorf("subscription service: list subscribers: %w", err)
	}
	return subscribers, nil
}

// ListMine returns the actor's active subscriptions with their programs.
func (s *SubscriptionService) ListMine(ctx context.Context, actorID string) ([]models.ProgramSubscriber, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var subscriptions []models.ProgramSubscriber
	if err := s.db.WithContext(ctx).
		Preload("Program").
		Preload("Program.Organization").
		Where("subscriber_id = ? AND is_active = ?", actor.ID, true).
		Order("subscribed_at DESC").
		Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("subscription service: list mine: %w", err)
	}
	return subscriptions, nil
}

func (s *SubscriptionService) load(ctx context.Context, actorID, programID, op string) (*models.User, *models.Program, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	program, err := findByID[models.Program](ctx, s.db, programID, ErrProgramNotFound)
	if err != nil {
		return nil, nil, wrapServiceError("subscription service", op, err)
	}
	if err := s.authorize(ctx, actor, permissions.ProgramSubscribe, permissions.Target{}); err != nil {
		return nil, nil, err
	}
	return actor, program, nil
}

// requireOpenProgram reports an archived program the way the subscription endpoints do.
func requireOpenProgram(tx *gorm.DB, programID string) error {
	var program models.Program
	if err := tx.Take(&program, "id = ?", programID).Error; err != nil {
		return err
	}
	if !program.IsActive {
		return ErrProgramAlreadyArchived
	}
	return nil
}
