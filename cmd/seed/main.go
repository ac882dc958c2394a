package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/domain"
	"courtbook/internal/modules/auth"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/repository"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// seed creates the first SUPER_USER account. Running it again is a no-op
// unless SEED_ADMIN_RESET_PASSWORD=true.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zlog, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	name := os.Getenv("SEED_ADMIN_NAME")
	if email == "" || password == "" {
		zlog.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Club Admin"
	}

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("DB connection failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		zlog.Fatal("migrate failed", zap.Error(err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		zlog.Fatal("hash password", zap.Error(err))
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if os.Getenv("SEED_ADMIN_RESET_PASSWORD") == "true" {
			if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
				zlog.Fatal("reset password", zap.Error(err))
			}
			zlog.Info("admin password reset", zap.String("email", email))
			return
		}
		zlog.Info("admin already exists", zap.String("email", email), zap.String("role", string(existing.Role)))
		return
	case !errors.Is(err, domain.ErrNotFound):
		zlog.Fatal("lookup admin", zap.Error(err))
	}

	admin := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         domain.RoleSuperUser,
		Status:       domain.UserActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		zlog.Fatal("create admin", zap.Error(err))
	}
	zlog.Info("admin created", zap.String("email", email), zap.Int64("id", admin.ID))
}
