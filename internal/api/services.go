package api

import (
	"fmt"

	"gorm.io/gorm"

	iauth "github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// Services is the engine graph shared by all handlers of one router.
type Services struct {
	Evaluator          *permissions.Evaluator
	Audit              *services.AuditService
	Users              *services.UserService
	Auth               *services.AuthService
	Organizations      *services.OrganizationService
	OrganizationAdmins *services.OrganizationAdminService
	Programs           *services.ProgramService
	ProgramEventAdmins *services.ProgramEventAdminService
	Events             *services.EventService
	Attendance         *services.AttendanceService
	Invites            *services.InviteService
	Subscriptions      *services.SubscriptionService
	Roles              *services.RolesService
}

// NewServices wires every engine service over db.
func NewServices(db *gorm.DB, jwt *iauth.JWTService, deps Deps) (*Services, error) {
	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	reader, err := permissions.NewGormGrantReader(db)
	if err != nil {
		return nil, err
	}
	evaluator, err := permissions.NewEvaluator(reader)
	if err != nil {
		return nil, err
	}

	var opts []services.Option
	if deps.Clock != nil {
		opts = append(opts, services.WithClock(deps.Clock))
	}

	signatures := services.SignatureCheck{
		Verifier:  deps.Verifier,
		Sealer:    deps.Sealer,
		Threshold: deps.Config.Attendance.Threshold(),
	}
	if signatures.Verifier == nil {
		signatures.Verifier = iauth.ExactVerifier{}
	}

	s := &Services{Evaluator: evaluator, Audit: auditSvc}

	if s.Users, err = services.NewUserService(db, auditSvc, evaluator, deps.Sealer, opts...); err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}
	if s.Auth, err = services.NewAuthService(s.Users, jwt, signatures, auditSvc); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	if s.Organizations, err = services.NewOrganizationService(db, auditSvc, evaluator, opts...); err != nil {
		return nil, fmt.Errorf("organization service: %w", err)
	}
	if s.OrganizationAdmins, err = services.NewOrganizationAdminService(db, auditSvc, evaluator, opts...); err != nil {
		return nil, fmt.Errorf("organization admin service: %w", err)
	}
	if s.Programs, err = services.NewProgramService(db, auditSvc, evaluator, opts...); err != nil {
		return nil, fmt.Errorf("program service: %w", err)
	}
	if s.ProgramEventAdmins, err = services.NewProgramEventAdminService(db, auditSvc, evaluator, opts...); err != nil {
		return nil, fmt.Errorf("program event admin service: %w", err)
	}
	lookupCache := services.ShortCodeCache{Store: deps.Cache, TTL: deps.Config.Cache.Redis.TTL}
	if s.Events, err = services.NewEventService(db, auditSvc, evaluator, lookupCache, opts...); err != nil {
		return nil, fmt.Errorf("event service: %w", err)
	}
	if s.Attendance, err = services.NewAttendanceService(db, auditSvc, evaluator, signatures, opts...); err != nil {
		return nil, fmt.Errorf("attendance service: %w", err)
	}
	if s.Invites, err = services.NewInviteService(db, auditSvc, evaluator, deps.Config.Attendance.InvitePolicy(), opts...); err != nil {
		return nil, fmt.Errorf("invite service: %w", err)
	}
	if s.Subscriptions, err = services.NewSubscriptionService(db, auditSvc, evaluator, opts...); err != nil {
		return nil, fmt.Errorf("subscription service: %w", err)
	}
	if s.Roles, err = services.NewRolesService(db, evaluator, opts...); err != nil {
		return nil, fmt.Errorf("roles service: %w", err)
	}

	return s, nil
}
