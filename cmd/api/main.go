package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/team-service/internal/api/http"
	"github.com/spec-kit/team-service/internal/api/http/handlers"
	"github.com/spec-kit/team-service/internal/auth"
	"github.com/spec-kit/team-service/internal/config"
	"github.com/spec-kit/team-service/internal/events"
	"github.com/spec-kit/team-service/internal/observability"
	"github.com/spec-kit/team-service/internal/persistence"
	"github.com/spec-kit/team-service/internal/ratelimit"
	"github.com/spec-kit/team-service/internal/repository"
	"github.com/spec-kit/team-service/internal/service"
	"github.com/spec-kit/team-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	roleRepo := repository.NewTeamRoleRepository(pool)
	requestRepo := repository.NewTeamRequestRepository(pool)
	inviteRepo := repository.NewTeamInviteRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	unitOfWork := repository.NewMembershipUnitOfWork(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	auditService := service.NewAuditService(auditRepo, logger)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Audit:       auditService,
	})
	permissionService := service.NewPermissionService(teamRepo, roleRepo)
	teamService := service.NewTeamService(teamRepo, auditService, dispatcher)
	roleService := service.NewTeamRoleService(roleRepo, teamRepo, userRepo, auditService)
	userService := service.NewUserService(userRepo, auditService, cfg.Auth.BcryptCost)
	membershipService := service.NewMembershipService(service.MembershipDependencies{
		RequestRepo: requestRepo,
		InviteRepo:  inviteRepo,
		TeamRepo:    teamRepo,
		UnitOfWork:  unitOfWork,
		Audit:       auditService,
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)
	go sessionJanitor(ctx, sessionRepo, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), sessionRepo, userRepo)
	authLimiter := ratelimit.NewRedisLimiter(redis.Client, "ratelimit:auth", cfg.RateLimit.AuthWindow(), cfg.RateLimit.AuthMaxAttempts)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Teams:          handlers.NewTeamsHandler(teamService, roleService, permissionService),
		Membership:     handlers.NewMembershipHandler(membershipService, permissionService),
		Users:          handlers.NewUsersHandler(userService),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: authMiddleware,
		AuthRateLimit:  httptransport.RateLimitMiddleware(authLimiter, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func sessionJanitor(ctx context.Context, sessions repository.SessionRepository, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", removed))
			}
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
