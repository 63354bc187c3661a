package main

import (
	"context"
	"fmt"
	"time"

	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/config"
	"go-extension-dashboard/internal/handler"
	"go-extension-dashboard/internal/logger"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/repository"
	"go-extension-dashboard/internal/scheduler"
	"go-extension-dashboard/internal/service"
	"go-extension-dashboard/internal/ws"
	"go-extension-dashboard/pkg/database"
	"go-extension-dashboard/pkg/jwt"
	"go-extension-dashboard/pkg/kvstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Extension Dashboard API v1.0",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())
	return app
}

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.ConnectDB(database.Options{
		DSN:   cfg.DSN(),
		Debug: !cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	log.Info("connected to database", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

// NewCenterStore persists center selections in Redis when REDIS_ADDR is
// set and in process memory otherwise.
func NewCenterStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (center.Store, error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, center selections are kept in memory")
		return kvstore.NewMemoryStore(), nil
	}

	client, err := kvstore.NewRedisClient(context.Background(), kvstore.RedisConfig{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return kvstore.NewRedisStore(client, "dashboard:", 0), nil
}

func NewHub(lc fx.Lifecycle, log *zap.Logger, m *metrics.Metrics) *ws.Hub {
	hub := ws.NewHub(log.Named("ws"), m)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Stop()
			return nil
		},
	})
	return hub
}

func NewTokenManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL)
}

func NewResolver() *access.Resolver {
	return access.NewResolver(nil)
}

func NewSessionService(store center.Store, directory service.CenterDirectory, notifier service.Notifier, m *metrics.Metrics, log *zap.Logger, cfg *config.Config) service.SessionService {
	return service.NewSessionService(store, directory, notifier, m, log, cfg.CenterInitTimeout)
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, sessions service.SessionService, resolver *access.Resolver, notifier service.Notifier, cfg *config.Config, log *zap.Logger) service.AuthService {
	return service.NewAuthService(userRepo, tokens, sessions, resolver, notifier, cfg.SessionIdleTimeout, log)
}

func NewSweeper(cfg *config.Config, sessions service.SessionService, notifier service.Notifier, log *zap.Logger) (*scheduler.Sweeper, error) {
	return scheduler.NewSweeper(cfg.SessionSweepSchedule, cfg.SessionIdleTimeout, sessions, notifier, log)
}

func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger, shutdown fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("port", cfg.Port))
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdown.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return app.ShutdownWithContext(ctx)
		},
	})
}

func StartSweeper(lc fx.Lifecycle, sweeper *scheduler.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: sweeper.Stop,
	})
}

func main() {
	fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			metrics.New,
			NewFiberServer,
			NewDatabase,
			NewCenterStore,
			NewHub,
			func(h *ws.Hub) service.Notifier { return h },
			NewTokenManager,
			NewResolver,

			repository.NewUserRepo,
			repository.NewCenterRepo,
			repository.NewAssignmentRepo,

			service.NewCenterDirectory,
			NewSessionService,
			NewAuthService,
			service.NewUserService,
			service.NewCenterService,
			service.NewCenterImportService,
			service.NewDashboardService,

			handler.NewAuthHandler,
			handler.NewUserHandler,
			handler.NewRoleHandler,
			handler.NewPermissionHandler,
			handler.NewCenterHandler,
			handler.NewDashboardHandler,

			NewSweeper,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			MigrateAndSeed,
			RegisterRoutes,
			StartServer,
			StartSweeper,
		),
	).Run()
}
