package main

import (
	"context"
	"fmt"
	"time"

	"go-extension-dashboard/internal/config"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const devAdminPassword = "admin123"

// MigrateAndSeed creates the schema, the default centers and a superadmin
// account when none exists yet.
func MigrateAndSeed(db *gorm.DB, cfg *config.Config, centerRepo repository.CenterRepository, userRepo repository.UserRepository, log *zap.Logger) error {
	// AutoMigrate is fine for this schema; use a migration tool once it grows
	if err := db.AutoMigrate(&model.User{}, &model.Center{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := centerRepo.SeedDefaults(ctx); err != nil {
		log.Warn("seeding default centers failed", zap.Error(err))
	}

	seedSuperAdmin(cfg, userRepo, log)
	return nil
}

func seedSuperAdmin(cfg *config.Config, userRepo repository.UserRepository, log *zap.Logger) {
	count, err := userRepo.CountByRole(model.RoleSuperAdmin)
	if err != nil {
		log.Warn("counting superadmins failed", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}
	if _, err := userRepo.FindByEmail(cfg.SeedAdminEmail); err == nil {
		return
	}

	password := cfg.SeedAdminPassword
	if password == "" {
		if cfg.IsProduction() {
			log.Warn("no superadmin exists and SEED_ADMIN_PASSWORD is empty, skipping seed")
			return
		}
		password = devAdminPassword
	}

	admin := &model.User{
		Email:    cfg.SeedAdminEmail,
		FullName: "Super Administrador",
		Role:     model.RoleSuperAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword(password); err != nil {
		log.Warn("hashing superadmin password failed", zap.Error(err))
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.Warn("creating superadmin failed", zap.Error(err))
		return
	}
	log.Info("superadmin created", zap.String("email", admin.Email))
}
