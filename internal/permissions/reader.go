package permissions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

// GrantReader is the storage the evaluator reads delegated grants and ownership from.
// Missing grants are reported as (nil, nil).
type GrantReader interface {
	OrganizationGrant(ctx context.Context, userID, organizationID string) (*models.OrganizationAdmin, error)
	ProgramGrant(ctx context.Context, userID, programID string) (*models.ProgramEventAdmin, error)
	Organization(ctx context.Context, organizationID string) (*models.Organization, error)
	Program(ctx context.Context, programID string) (*models.Program, error)
}

// GormGrantReader reads grants through gorm.
type GormGrantReader struct {
	db *gorm.DB
}

// NewGormGrantReader constructs a GrantReader backed by db.
func NewGormGrantReader(db *gorm.DB) (*GormGrantReader, error) {
	if db == nil {
		return nil, errors.New("grant reader: db is required")
	}
	return &GormGrantReader{db: db}, nil
}

// OrganizationGrant returns the user's grant on the organization, if any.
func (r *GormGrantReader) OrganizationGrant(ctx context.Context, userID, organizationID string) (*models.OrganizationAdmin, error) {
	var grant models.OrganizationAdmin
	err := r.db.WithContext(ensureContext(ctx)).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Take(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("grant reader: organization grant: %w", err)
	}
	return &grant, nil
}

// ProgramGrant returns the user's grant on the program, if any.
func (r *GormGrantReader) ProgramGrant(ctx context.Context, userID, programID string) (*models.ProgramEventAdmin, error) {
	var grant models.ProgramEventAdmin
	err := r.db.WithContext(ensureContext(ctx)).
		Where("user_id = ? AND program_id = ?", userID, programID).
		Take(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("grant reader: program grant: %w", err)
	}
	return &grant, nil
}

// Organization loads an organization by id, returning (nil, nil) when absent.
func (r *GormGrantReader) Organization(ctx context.Context, organizationID string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ensureContext(ctx)).Take(&org, "id = ?", organizationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("grant reader: organization: %w", err)
	}
	return &org, nil
}

// Program loads a program by id, returning (nil, nil) when absent.
func (r *GormGrantReader) Program(ctx context.Context, programID string) (*models.Program, error) {
	var program models.Program
	err := r.db.WithContext(ensureContext(ctx)).Take(&program, "id = ?", programID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("grant reader: program: %w", err)
	}
	return &program, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
