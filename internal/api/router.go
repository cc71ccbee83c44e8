package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/app"
	iauth "github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/middleware"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/monitoring"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/monitoring/checks"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
)

const healthTimeout = 2 * time.Second

// Deps carries the collaborators the router needs beyond the database and JWT service.
type Deps struct {
	Config   *app.Config
	Cache    cache.Store
	Sealer   *crypto.Sealer
	Verifier iauth.SignatureVerifier
	Clock    func() time.Time
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, deps Deps) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Sealer == nil {
		return nil, fmt.Errorf("signature sealer must be provided")
	}

	svc, err := NewServices(db, jwt, deps)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.AccessLog())
	r.Use(middleware.CORS(deps.Config.Server.CORSOrigins))
	r.Use(middleware.RequestMetadata())

	health := monitoring.NewHealthManager(healthTimeout, checks.Database(db))
	if check, ok := checks.Cache(deps.Cache); ok {
		health.Register(check)
	}
	r.GET("/health", handlers.Health(health))

	if deps.Config.Monitoring.Prometheus.Enabled {
		endpoint := deps.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", handlers.Health(health))

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Auth)
	eventHandler := handlers.NewEventHandler(svc.Events, svc.Attendance)

	// Public routes
	registerAuthRoutes(v1, authHandler)
	v1.POST("/events/lookup", eventHandler.Lookup)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.Auth(jwt))

	protected.GET("/auth/me", authHandler.Me)
	registerUserRoutes(protected, handlers.NewUserHandler(svc.Users, svc.Organizations, svc.Roles))
	registerOrganizationRoutes(protected,
		handlers.NewOrganizationHandler(svc.Organizations, svc.Programs, svc.Invites),
		handlers.NewOrganizationAdminHandler(svc.OrganizationAdmins),
	)
	registerProgramRoutes(protected,
		handlers.NewProgramHandler(svc.Programs, svc.Events, svc.Invites, svc.Subscriptions),
		handlers.NewProgramEventAdminHandler(svc.ProgramEventAdmins),
	)
	registerEventRoutes(protected, eventHandler)
	registerAttendanceRoutes(protected, handlers.NewAttendanceHandler(svc.Attendance))
	registerInviteRoutes(protected, handlers.NewInviteHandler(svc.Invites))
	registerProfileRoutes(protected, handlers.NewProfileHandler(svc.Roles, svc.Attendance, svc.Subscriptions))
	registerAuditRoutes(protected, handlers.NewAuditHandler(svc.Audit), middleware.RequirePermission(svc.Users, svc.Evaluator, permissions.AuditView))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
