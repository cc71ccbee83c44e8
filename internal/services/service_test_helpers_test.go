package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/database/testutil"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
)

const (
	sigHello = "data:image/png;base64,aGVsbG8="
	sigWorld = "data:image/png;base64,d29ybGQ="
)

type harness struct {
	db        *gorm.DB
	audit     *AuditService
	evaluator *permissions.Evaluator
	sealer    *crypto.Sealer
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)
	reader, err := permissions.NewGormGrantReader(db)
	require.NoError(t, err)
	evaluator, err := permissions.NewEvaluator(reader)
	require.NoError(t, err)
	sealer, err := crypto.NewSealer("test-signature-secret", crypto.Argon2Parameters{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32})
	require.NoError(t, err)

	return &harness{
		db:        db,
		audit:     auditSvc,
		evaluator: evaluator,
		sealer:    sealer,
		now:       time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (h *harness) clock() Option {
	return WithClock(func() time.Time { return h.now })
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) signatures() SignatureCheck {
	return SignatureCheck{Verifier: auth.ExactVerifier{}, Sealer: h.sealer}
}

func (h *harness) users(t *testing.T) *UserService {
	t.Helper()
	svc, err := NewUserService(h.db, h.audit, h.evaluator, h.sealer, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) organizations(t *testing.T) *OrganizationService {
	t.Helper()
	svc, err := NewOrganizationService(h.db, h.audit, h.evaluator, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) organizationAdmins(t *testing.T) *OrganizationAdminService {
	t.Helper()
	svc, err := NewOrganizationAdminService(h.db, h.audit, h.evaluator, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) programs(t *testing.T) *ProgramService {
	t.Helper()
	svc, err := NewProgramService(h.db, h.audit, h.evaluator, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) programAdmins(t *testing.T) *ProgramEventAdminService {
	t.Helper()
	svc, err := NewProgramEventAdminService(h.db, h.audit, h.evaluator, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) events(t *testing.T, lookupCache ShortCodeCache) *EventService {
	t.Helper()
	svc, err := NewEventService(h.db, h.audit, h.evaluator, lookupCache, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) attendances(t *testing.T) *AttendanceService {
	t.Helper()
	svc, err := NewAttendanceService(h.db, h.audit, h.evaluator, h.signatures(), h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) invites(t *testing.T, policy InvitePolicy) *InviteService {
	t.Helper()
	svc, err := NewInviteService(h.db, h.audit, h.evaluator, policy, h.clock())
	require.NoError(t, err)
	return svc
}

func (h *harness) subscriptions(t *testing.T) *SubscriptionService {
	t.Helper()
	svc, err := NewSubscriptionService(h.db, h.audit, h.evaluator, h.clock())
	require.NoError(t, err)
	return svc
}

// user inserts an active user whose reference signature is sigHello.
func (h *harness) user(t *testing.T, mutate func(*models.User)) *models.User {
	t.Helper()
	sealed, err := h.sealer.Seal(sigHello)
	require.NoError(t, err)

	suffix := uuid.NewString()[:8]
	user := &models.User{
		Email:     suffix + "@example.com",
		Phone:     "251" + suffix,
		Name:      "User " + suffix,
		Signature: sealed,
		IsActive:  true,
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, h.db.Create(user).Error)
	return user
}

func (h *harness) staff(t *testing.T) *models.User {
	t.Helper()
	return h.user(t, func(u *models.User) { u.IsStaff = true })
}

func (h *harness) organization(t *testing.T, creator *models.User) *models.Organization {
	t.Helper()
	org := &models.Organization{
		Code:        "org-" + uuid.NewString()[:8],
		Name:        "Organization",
		IsActive:    true,
		CreatedByID: creator.ID,
	}
	require.NoError(t, h.db.Create(org).Error)
	return org
}

func (h *harness) program(t *testing.T, org *models.Organization, creator *models.User) *models.Program {
	t.Helper()
	program := &models.Program{
		OrganizationID: org.ID,
		Name:           "Program",
		IsActive:       true,
		CreatedByID:    creator.ID,
	}
	require.NoError(t, h.db.Create(program).Error)
	return program
}

func (h *harness) event(t *testing.T, program *models.Program, creator *models.User) *models.Event {
	t.Helper()
	code, err := crypto.RandomLowercase(models.ShortCodeLength)
	require.NoError(t, err)
	event := &models.Event{
		ProgramID:   program.ID,
		Title:       "Event",
		ShortCode:   code,
		CreatedByID: creator.ID,
	}
	require.NoError(t, h.db.Create(event).Error)
	return event
}

func (h *harness) organizationGrant(t *testing.T, user *models.User, org *models.Organization, caps models.OrganizationCapabilities) *models.OrganizationAdmin {
	t.Helper()
	grant := &models.OrganizationAdmin{
		UserID:                   user.ID,
		OrganizationID:           org.ID,
		Status:                   models.GrantActive,
		OrganizationCapabilities: caps,
	}
	require.NoError(t, h.db.Create(grant).Error)
	return grant
}

func (h *harness) programGrant(t *testing.T, user *models.User, program *models.Program, caps models.ProgramCapabilities) *models.ProgramEventAdmin {
	t.Helper()
	grant := &models.ProgramEventAdmin{
		UserID:              user.ID,
		ProgramID:           program.ID,
		Status:              models.GrantActive,
		ProgramCapabilities: caps,
	}
	require.NoError(t, h.db.Create(grant).Error)
	return grant
}
