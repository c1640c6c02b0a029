package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"dblens/internal/config"
	"dblens/internal/database"
	"dblens/internal/handlers"
	"dblens/internal/logging"
	"dblens/internal/middlewares"
	"dblens/internal/repositories"
	"dblens/internal/routes"
	"dblens/internal/services"
)

// Server owns the background scheduler alongside the HTTP listener.
type Server struct {
	HTTP      *http.Server
	scheduler *services.Scheduler
	cancel    context.CancelFunc
}

func New(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	var redisRepo *repositories.RedisRepository
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.Log.WithError(err).Warn("redis unavailable, running without session cache and rate limiting")
		} else {
			redisRepo = repositories.NewRedisRepository(rdb)
		}
	}

	// Dependency injection
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	connRepo := repositories.NewConnectionRepository(db)
	backupRepo := repositories.NewBackupRepository(db)
	scheduleRepo := repositories.NewScheduleRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)
	migrationRepo := repositories.NewMigrationRepository(db)
	healthRepo := repositories.NewHealthRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	auditSvc := services.NewAuditService(auditRepo)
	authSvc := services.NewAuthService(userRepo, sessionRepo, redisRepo, auditSvc)
	userSvc := services.NewUserService(userRepo, auditSvc)
	roleSvc := services.NewRoleService(roleRepo, userRepo, auditSvc)
	connSvc := services.NewConnectionService(connRepo, settingRepo, auditSvc)
	schemaSvc := services.NewSchemaService(connSvc)
	querySvc := services.NewQueryService(connSvc, schemaSvc, auditSvc)
	backupSvc := services.NewBackupService(backupRepo, connSvc, auditSvc, cfg.BackupDir)
	scheduleSvc := services.NewScheduleService(scheduleRepo, connSvc)
	snapshotSvc := services.NewSnapshotService(snapshotRepo, connSvc, auditSvc, cfg.SnapshotDir)
	migrationSvc := services.NewMigrationService(migrationRepo, connSvc, snapshotSvc, schemaSvc, auditSvc)
	healthSvc := services.NewHealthService(healthRepo, connSvc)
	orgSvc := services.NewOrganizationService(orgRepo, userRepo)
	settingSvc := services.NewSettingService(settingRepo)

	if err := roleSvc.SeedSystemRoles(); err != nil {
		return nil, fmt.Errorf("seeding system roles: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.SecurityHeaders())
	router.Use(middlewares.ErrorHandling())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Organization-ID", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimitEnabled {
		router.Use(middlewares.RateLimit(redisRepo, int64(cfg.RateLimitPerMin), time.Minute))
	}

	authenticate := middlewares.Authenticate(userRepo, redisRepo)
	routes.RegisterRoutes(router, routes.Handlers{
		Auth:         routes.NewAuthRoutes(handlers.NewAuthHandler(authSvc)),
		User:         routes.NewUserRoutes(handlers.NewUserHandler(userSvc), roleSvc),
		Role:         routes.NewRoleRoutes(handlers.NewRoleHandler(roleSvc), roleSvc),
		Database:     routes.NewDatabaseRoutes(handlers.NewConnectionHandler(connSvc), handlers.NewQueryHandler(querySvc, schemaSvc), handlers.NewBackupHandler(backupSvc, scheduleSvc), handlers.NewSnapshotHandler(snapshotSvc), handlers.NewHealthHandler(healthSvc), roleSvc, orgSvc),
		Migration:    routes.NewMigrationRoutes(handlers.NewMigrationHandler(migrationSvc), roleSvc),
		Audit:        routes.NewAuditRoutes(handlers.NewAuditHandler(auditSvc), roleSvc),
		Organization: routes.NewOrganizationRoutes(handlers.NewOrganizationHandler(orgSvc)),
		Setting:      routes.NewSettingRoutes(handlers.NewSettingHandler(settingSvc)),
	}, authenticate)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &Server{
		HTTP:      httpServer,
		scheduler: services.NewScheduler(scheduleRepo, backupSvc),
	}, nil
}

// Start runs the scheduler and the HTTP listener. Blocks until the listener
// stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.scheduler.Run(ctx)

	logging.Log.WithField("addr", s.HTTP.Addr).Info("server listening")
	return s.HTTP.ListenAndServe()
}

// Shutdown stops the scheduler and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.HTTP.Shutdown(ctx)
}
