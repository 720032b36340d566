package app

import (
	"database/sql"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pk2025teslead/smartlogx-app/internal/audit"
	"github.com/pk2025teslead/smartlogx-app/internal/auth"
	"github.com/pk2025teslead/smartlogx-app/internal/leave"
	"github.com/pk2025teslead/smartlogx-app/internal/messaging/kafka"
	"github.com/pk2025teslead/smartlogx-app/internal/middleware"
	"github.com/pk2025teslead/smartlogx-app/internal/notification"
	"github.com/pk2025teslead/smartlogx-app/internal/rbac"
	"github.com/pk2025teslead/smartlogx-app/internal/rbac/infra"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/clock"
	"github.com/pk2025teslead/smartlogx-app/internal/user"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(logger))

	// --- Repositories ---
	userRepo := user.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(db)
	auditRepo := audit.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, logger)
	if err != nil {
		return err
	}

	// --- Notification sink ---
	// With a broker configured, notifications go through the durable
	// outbox; otherwise they only hit the log.
	var notifier leave.Notifier = notification.NewLogSink(logger)
	if os.Getenv("KAFKA_BROKER") != "" {
		notifier = notification.NewOutboxSink(outboxRepo, logger)
	}

	// --- Services ---
	authService := auth.NewService(userRepo)
	leaveService := leave.NewServiceWithNotifier(
		db,
		leaveRepo,
		auditRepo,
		clock.New(),
		leave.ConfigFromEnv(),
		notifier,
		rdb,
		logger,
	)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	leaveHandler := leave.NewHandler(leaveService, logger)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		leave.RegisterRoutes(api, leaveHandler, rbacService)
	}

	return nil
}
