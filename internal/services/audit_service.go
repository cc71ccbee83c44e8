package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auditctx"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
)

// AuditEntry is one operation to append to the audit trail. Empty request
// fields are taken from the auditctx.Actor on the context.
type AuditEntry struct {
	ActorID    string
	AuthMethod string
	Action     string
	Resource   string
	Result     string
	ClientIP   string
	UserAgent  string
	Metadata   map[string]any
}

// AuditFilters narrow an audit query. Zero values match everything.
type AuditFilters struct {
	ActorID  string
	Action   string
	Result   string
	Resource string
	Since    *time.Time
	Until    *time.Time
}

func (f AuditFilters) scope(query *gorm.DB) *gorm.DB {
	for column, value := range map[string]string{
		"actor_id": f.ActorID,
		"action":   f.Action,
		"result":   f.Result,
		"resource": f.Resource,
	} {
		if value = strings.TrimSpace(value); value != "" {
			query = query.Where(column+" = ?", value)
		}
	}
	if f.Since != nil {
		query = query.Where("created_at >= ?", *f.Since)
	}
	if f.Until != nil {
		query = query.Where("created_at <= ?", *f.Until)
	}
	return query
}

// AuditListOptions pages through filtered audit entries.
type AuditListOptions struct {
	Pagination
	Filters AuditFilters
}

// AuditService appends to and reads the audit trail.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log appends entry. Action and Result are mandatory.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	action := strings.TrimSpace(entry.Action)
	result := strings.TrimSpace(entry.Result)
	if action == "" || result == "" {
		return errors.New("audit service: action and result are required")
	}

	if actor, ok := auditctx.FromContext(ctx); ok {
		entry.ActorID = firstNonEmpty(entry.ActorID, actor.UserID)
		entry.AuthMethod = firstNonEmpty(entry.AuthMethod, actor.AuthMethod)
		entry.ClientIP = firstNonEmpty(entry.ClientIP, actor.ClientIP)
		entry.UserAgent = firstNonEmpty(entry.UserAgent, actor.UserAgent)
	}

	row := models.AuditLog{
		AuthMethod: strings.TrimSpace(entry.AuthMethod),
		Action:     action,
		Resource:   strings.TrimSpace(entry.Resource),
		Result:     result,
		ClientIP:   strings.TrimSpace(entry.ClientIP),
		UserAgent:  strings.TrimSpace(entry.UserAgent),
	}
	if id := strings.TrimSpace(entry.ActorID); id != "" {
		row.ActorID = &id
	}
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(encoded)
	}

	return s.db.WithContext(ctx).Create(&row).Error
}

// List returns the newest entries first.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	query := opts.Filters.scope(s.db.WithContext(ensureContext(ctx)).Model(&models.AuditLog{}))

	logs, total, err := paginate[models.AuditLog](query, opts.Pagination.Normalise(50), "created_at DESC")
	if err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, total, nil
}

// CleanupOlderThan deletes entries older than retentionDays and reports how many went.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	res := s.db.WithContext(ensureContext(ctx)).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// recordAudit appends entry and only logs a failure; a lost audit row never
// fails the operation that produced it.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("failed to persist audit entry",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err),
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
