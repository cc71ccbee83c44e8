package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.NewNotFound("User not found.")
	// ErrActorBanned rejects requests made by a banned account.
	ErrActorBanned = apperrors.NewForbidden("User is banned.")
	// ErrUserBanned rejects granting authority to a banned account.
	ErrUserBanned = apperrors.NewConflict("User is banned.")
	// ErrProtectedAccount guards superuser accounts from staff actions.
	ErrProtectedAccount = apperrors.NewForbidden("You are not allowed to alter this account")

	ErrEmailTaken        = apperrors.NewConflict("User with this email already exists.")
	ErrPhoneTaken        = apperrors.NewConflict("User with this phone already exists.")
	ErrUserAlreadyBanned = apperrors.NewConflict("User is already banned.")
	ErrUserNotBanned     = apperrors.NewConflict("User is not banned.")

	ErrStaffRevokedBefore  = apperrors.NewConflict("User has been revoked Staff permission.")
	ErrStaffAlreadyGranted = apperrors.NewConflict("User has already been granted Staff permission.")
	ErrStaffAlreadyRevoked = apperrors.NewConflict("User has already been revoked Staff permissions.")
	ErrUserNotStaff        = apperrors.NewConflict("User is not a Staff member.")

	ErrOrganizationCreatorRevokedBefore  = apperrors.NewConflict("User has been revoked organizational super admin permission.")
	ErrOrganizationCreatorAlreadyGranted = apperrors.NewConflict("User has already been granted organizational super admin permission.")
	ErrOrganizationCreatorAlreadyRevoked = apperrors.NewConflict("User has already been revoked organizational super admin permission.")
	ErrUserNotOrganizationCreator        = apperrors.NewConflict("User is not an organizational super admin.")
)

// defaultCountryCode prefixes phone numbers supplied without one.
const defaultCountryCode = "251"

// RegisterUserInput describes the fields accepted at registration.
type RegisterUserInput struct {
	Email            string          `json:"email" validate:"required,email,max=255"`
	Phone            string          `json:"phone" validate:"required,phone"`
	Name             string          `json:"name" validate:"max=255"`
	Signature        string          `json:"signature" validate:"required,signature"`
	SignatureStrokes json.RawMessage `json:"signature_strokes"`
}

// UserFilters captures listing filters.
type UserFilters struct {
	IsActive *bool
	IsStaff  *bool
	Query    string
}

// ListUsersOptions controls pagination for user listing.
type ListUsersOptions struct {
	Pagination
	Filters UserFilters
}

// UserService manages the identity store: registration, bans and platform flags.
type UserService struct {
	engine
	sealer *crypto.Sealer
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, auditService *AuditService, evaluator *permissions.Evaluator, sealer *crypto.Sealer, opts ...Option) (*UserService, error) {
	e, err := newEngine("user service", db, auditService, evaluator, opts)
	if err != nil {
		return nil, err
	}
	if sealer == nil {
		return nil, errors.New("user service: signature sealer is required")
	}
	return &UserService{engine: e, sealer: sealer}, nil
}

// NormalisePhone strips separators and applies the default country code.
func NormalisePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 9 || len(digits) > 15 {
		return "", apperrors.NewValidation("Invalid phone number length")
	}
	if strings.HasPrefix(digits, defaultCountryCode) {
		return digits, nil
	}
	if strings.HasPrefix(digits, "0") {
		return defaultCountryCode + digits[1:], nil
	}
	return defaultCountryCode + digits, nil
}

// Register creates a new active user. The reference signature is sealed before storage.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	input.Signature = strings.TrimSpace(input.Signature)
	if err := validator.ValidateStruct(input); err != nil {
		return nil, validator.AsAppError(err)
	}

	phone, err := NormalisePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	sealed, err := s.sealer.Seal(input.Signature)
	if err != nil {
		return nil, fmt.Errorf("user service: seal signature: %w", err)
	}

	user := &models.User{
		Email:     input.Email,
		Phone:     phone,
		Name:      input.Name,
		Signature: sealed,
		IsActive:  true,
	}
	if len(input.SignatureStrokes) > 0 {
		if !json.Valid(input.SignatureStrokes) {
			return nil, apperrors.NewValidation("signature_strokes must be valid JSON")
		}
		user.SignatureStrokes = datatypes.JSON(input.SignatureStrokes)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Model(&models.User{}).Where("phone = ?", user.Phone).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPhoneTaken
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("user service: register: %w", err)
	}

	s.audit(ctx, user, "user.register", user.ID, map[string]any{"email": user.Email})
	return user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)
	user, err := findByID[models.User](ctx, s.db, id, ErrUserNotFound)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user service: get: %w", err)
	}
	return user, err
}

// GetByEmail loads a user by case-insensitive email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getBy(ensureContext(ctx), "email", strings.ToLower(strings.TrimSpace(email)))
}

// GetByPhone loads a user by phone, normalising the supplied number first.
func (s *UserService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	normalised, err := NormalisePhone(phone)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.getBy(ensureContext(ctx), "phone", normalised)
}

func (s *UserService) getBy(ctx context.Context, column, value string) (*models.User, error) {
	if value == "" {
		return nil, ErrUserNotFound
	}
	var user models.User
	err := s.db.WithContext(ctx).Where(column+" = ?", value).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get by %s: %w", column, err)
	}
	return &user, nil
}

// Lookup resolves a user reference that is either an id or an email address.
func (s *UserService) Lookup(ctx context.Context, ref string) (*models.User, error) {
	return lookupUser(ensureContext(ctx), s.db, ref)
}

// List returns paginated users for platform staff.
func (s *UserService) List(ctx context.Context, actorID string, opts ListUsersOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.authorize(ctx, actor, permissions.UserList, permissions.Target{}); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if opts.Filters.IsActive != nil {
		query = query.Where("is_active = ?", *opts.Filters.IsActive)
	}
	if opts.Filters.IsStaff != nil {
		query = query.Where("is_staff = ?", *opts.Filters.IsStaff)
	}
	if q := strings.TrimSpace(opts.Filters.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR phone LIKE ?", like, like, like)
	}

	users, total, err := paginate[models.User](query, opts.Pagination.Normalise(50), "created_at ASC")
	if err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}
	return users, total, nil
}

// Ban deactivates a user account.
func (s *UserService) Ban(ctx context.Context, actorID, targetRef string) (*models.User, error) {
	return s.transition(ctx, actorID, targetRef, permissions.UserBan, "ban", func(target *models.User, stamp models.ActorStamp) (map[string]any, error) {
		if target.IsSuperuser {
			return nil, ErrProtectedAccount
		}
		if !target.IsActive {
			return nil, ErrUserAlreadyBanned
		}
		return mergeColumns(map[string]any{"is_active": false}, stamp.Columns("banned_")), nil
	})
}

// Unban reactivates a banned account.
func (s *UserService) Unban(ctx context.Context, actorID, targetRef string) (*models.User, error) {
	return s.transition(ctx, actorID, targetRef, permissions.UserUnban, "unban", func(target *models.User, stamp models.ActorStamp) (map[string]any, error) {
		if target.IsSuperuser {
			return nil, ErrProtectedAccount
		}
		if target.IsActive {
			return nil, ErrUserNotBanned
		}
		return mergeColumns(map[string]any{"is_active": true}, stamp.Columns("unbanned_")), nil
	})
}

// AssignStaff grants platform staff. A revocation is final.
func (s *UserService) AssignStaff(ctx context.Context, actorID, targetRef string) (*models.User, error) {
	return s.transition(ctx, actorID, targetRef, permissions.UserAssignStaff, "assign_staff", func(target *models.User, stamp models.ActorStamp) (map[string]any, error) {
		if target.IsSuperuser {
			return nil, ErrProtectedAccount
		}
		if !target.IsActive {
			return nil, ErrUserBanned
		}
		if target.StaffRevoked.IsSet() {
			return nil, ErrStaffRevokedBefore
		}
		if target.IsStaff || target.StaffGranted.IsSet() {
			return nil, ErrStaffAlreadyGranted
		}
		return mergeColumns(map[string]any{"is_staff": true}, stamp.Columns("staff_granted_")), nil
	})
}

// RevokeStaff removes platform staff.
func (s *UserService) RevokeStaff(ctx context.Context, actorID, targetRef string) (*models.User, error) {
	return s.transition(ctx, actorID, targetRef, permissions.UserRevokeStaff, "revoke_staff", func(target *models.User, stamp models.ActorStamp) (map[string]any, error) {
		if target.IsSuperuser {
			return nil, ErrProtectedAccount
		}
		if !target.IsActive {
			return nil, ErrUserBanned
		}
		if target.StaffRevoked.IsSet() {
			return nil, ErrStaffAlreadyRevoked
		}
		if !target.IsStaff {
			return nil, ErrUserNotStaff
		}
		return mergeColumns(map[string]any{"is_staff": false}, stamp.Columns("staff_revoked_")), nil
	})
}

// AssignOrganizationCreator lets the target create organizations.
func (s *UserService) AssignOrganizationCreator(ctx context.Context, actorID, targetRef string) (*models.User, error) {
	return s.transition(ctx, actorID, targetRef, permissions.UserAssignOrganizationCreator, "assign_organization_creator", func(target *models.User, stamp models.ActorStamp) (map[string]any, error) {
		if !target.IsActive {
			return nil, ErrUserBanned
		}
		if target.OrganizationCreatorRevoked.IsSet() {
			return nil, ErrOrganizationCreatorRevokedBefore
		}
		if target.CanCreateOrganizations || target.OrganizationCreatorGranted.IsSet() {
			return nil, ErrOrganizationCreatorAlreadyGranted
		}
		return mergeColumns(map[string]any{"can_create_organizations": true}, stamp.Columns("org_creator_granted_")), nil
	})
}

// RevokeOrganizationCreator removes the organization creation flag.
func (s *UserService) RevokeOrganizationCreator(ctx context.Context, actorID, targetRef string) (*models.User, error) {
	return s.transition(ctx, actorID, targetRef, permissions.UserRevokeOrganizationCreator, "revoke_organization_creator", func(target *models.User, stamp models.ActorStamp) (map[string]any, error) {
		if !target.IsActive {
			return nil, ErrUserBanned
		}
		if target.OrganizationCreatorRevoked.IsSet() {
			return nil, ErrOrganizationCreatorAlreadyRevoked
		}
		if !target.CanCreateOrganizations {
			return nil, ErrUserNotOrganizationCreator
		}
		return mergeColumns(map[string]any{"can_create_organizations": false}, stamp.Columns("org_creator_revoked_")), nil
	})
}

// Touch records that the user was seen.
func (s *UserService) Touch(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_seen_at", s.timestamp())
	if result.Error != nil {
		return fmt.Errorf("user service: touch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type userTransition func(target *models.User, stamp models.ActorStamp) (map[string]any, error)

// grantActions hand or withdraw platform flags. A banned target is refused with
// a Conflict before the requester is evaluated, including when the requester
// is the banned target itself.
var grantActions = map[permissions.Action]bool{
	permissions.UserAssignStaff:               true,
	permissions.UserRevokeStaff:               true,
	permissions.UserAssignOrganizationCreator: true,
	permissions.UserRevokeOrganizationCreator: true,
}

func (s *UserService) transition(ctx context.Context, actorID, targetRef string, action permissions.Action, name string, apply userTransition) (*models.User, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(actorID) == "" {
		return nil, apperrors.ErrUnauthorized
	}
	target, err := lookupUser(ctx, s.db, targetRef)
	if err != nil {
		return nil, err
	}
	if grantActions[action] && !target.IsActive {
		return nil, ErrUserBanned
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, action, permissions.OnSubject(target.ID)); err != nil {
		return nil, err
	}

	var updated *models.User
	stamp := models.NewActorStamp(actor.ID, s.timestamp())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = applyTransition[models.User](tx, target.ID, func(row *models.User) (map[string]any, error) {
			return apply(row, stamp)
		})
		return err
	})
	observeTransition("user", name, err)
	if err != nil {
		return nil, wrapServiceError("user service", name, err)
	}

	s.audit(ctx, actor, string(action), updated.ID, map[string]any{"email": updated.Email})
	return updated, nil
}

// lookupUser resolves an id or email reference.
func lookupUser(ctx context.Context, db *gorm.DB, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrUserNotFound
	}
	column := "id"
	if strings.Contains(ref, "@") {
		column = "email"
		ref = strings.ToLower(ref)
	}
	var user models.User
	err := db.WithContext(ctx).Where(column+" = ?", ref).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}
