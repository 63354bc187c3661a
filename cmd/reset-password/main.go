package main

import (
	"flag"

	"go-extension-dashboard/internal/config"
	"go-extension-dashboard/internal/logger"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/repository"
	"go-extension-dashboard/pkg/database"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	email := flag.String("email", cfg.SeedAdminEmail, "account to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	promote := flag.Bool("superadmin", false, "also give the account the superadmin role")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal("-password must be at least 6 characters")
	}

	db, err := database.ConnectDB(database.Options{DSN: cfg.DSN()})
	if err != nil {
		log.Fatal("connecting to database failed", zap.Error(err))
	}
	users := repository.NewUserRepo(db)

	user, err := users.FindByEmail(*email)
	if err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatal("hashing password failed", zap.Error(err))
	}
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		log.Fatal("updating password failed", zap.Error(err))
	}
	// Existing tokens stop working.
	if err := users.UpdateTokenVersion(user.ID, ""); err != nil {
		log.Fatal("revoking sessions failed", zap.Error(err))
	}

	if *promote {
		if err := users.UpdateRole(user.ID, model.RoleSuperAdmin); err != nil {
			log.Fatal("updating role failed", zap.Error(err))
		}
	}

	log.Info("password reset", zap.String("email", user.Email), zap.Bool("superadmin", *promote || user.Role == model.RoleSuperAdmin))
}
