package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/metrics"
)

// Option customises the collaborators shared by every engine service.
type Option func(*engine)

// WithClock overrides the time source used to stamp transitions.
func WithClock(clock func() time.Time) Option {
	return func(e *engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// engine carries the collaborators every workflow service needs.
type engine struct {
	db           *gorm.DB
	auditService *AuditService
	evaluator    *permissions.Evaluator
	now          func() time.Time
}

func newEngine(name string, db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, opts []Option) (engine, error) {
	if db == nil {
		return engine{}, fmt.Errorf("%s: db is required", name)
	}
	if evaluator == nil {
		return engine{}, fmt.Errorf("%s: permission evaluator is required", name)
	}
	e := engine{
		db:           db,
		auditService: auditService,
		evaluator:    evaluator,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&e)
		}
	}
	return e, nil
}

func (e *engine) timestamp() time.Time {
	return e.now().UTC()
}

// loadActor resolves the acting user and excludes banned accounts before any
// permission evaluation runs.
func (e *engine) loadActor(ctx context.Context, actorID string) (*models.User, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	var actor models.User
	err := e.db.WithContext(ctx).Take(&actor, "id = ?", actorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load actor: %w", err)
	}
	if !actor.IsActive {
		return nil, ErrActorBanned
	}
	return &actor, nil
}

func (e *engine) authorize(ctx context.Context, actor *models.User, action permissions.Action, target permissions.Target) error {
	return e.evaluator.Require(ctx, actor, action, target)
}

func (e *engine) audit(ctx context.Context, actor *models.User, action, resource string, metadata map[string]any) {
	entry := AuditEntry{
		Action:   action,
		Resource: resource,
		Result:   models.AuditSuccess,
		Metadata: metadata,
	}
	if actor != nil {
		entry.ActorID = actor.ID
	}
	recordAudit(e.auditService, ctx, entry)
}

// findByID loads a row by primary key, mapping a missing row onto notFound.
func findByID[T any](ctx context.Context, db *gorm.DB, id string, notFound error) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, notFound
	}
	var row T
	err := db.WithContext(ctx).Take(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// updateVersioned applies columns only when the stored row still carries version.
// Zero affected rows means another writer won the race.
func updateVersioned[T any](tx *gorm.DB, id string, version int64, columns map[string]any) error {
	columns["version"] = version + 1
	result := tx.Model(new(T)).
		Where("id = ? AND version = ?", id, version).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConcurrentUpdate
	}
	return nil
}

// wrapServiceError passes taxonomy errors through and wraps infrastructure failures.
func wrapServiceError(service, op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%s: %s: %w", service, op, err)
}

type versionedRow[T any] interface {
	*T
	RowVersion() int64
}

// applyTransition reloads the row inside tx, lets apply validate the current state and
// compute the column changes, then writes them guarded by the row version.
func applyTransition[T any, P versionedRow[T]](tx *gorm.DB, id string, apply func(P) (map[string]any, error)) (P, error) {
	row := P(new(T))
	if err := tx.Take(row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	columns, err := apply(row)
	if err != nil {
		return nil, err
	}
	if err := updateVersioned[T](tx, id, row.RowVersion(), columns); err != nil {
		return nil, err
	}
	reloaded := P(new(T))
	if err := tx.Take(reloaded, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return reloaded, nil
}

// mergeColumns flattens several column maps into one.
func mergeColumns(sets ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

// observeTransition records the outcome of a state machine transition.
func observeTransition(entity, transition string, err error) {
	switch {
	case err == nil:
		metrics.StateTransitions.WithLabelValues(entity, transition, "applied").Inc()
	case apperrors.IsConflict(err):
		metrics.StateTransitions.WithLabelValues(entity, transition, "conflict").Inc()
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
