package app

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/shared/connection"
)

// BuildApp connects infrastructure and registers every module on the
// router. Redis is optional; without it stats queries simply skip the
// cache.
func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		zap.L().Warn("redis unavailable, stats caching disabled", zap.Error(err))
		rdb = nil
	} else {
		zap.L().Info("redis connection established")
	}

	return registerModules(router, sqlDB, gormDB, rdb)
}
