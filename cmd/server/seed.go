package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"corebank/internal/identity/models"
	"corebank/internal/identity/password"
	identitystore "corebank/internal/identity/store"
	"corebank/internal/platform/config"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// seedSuperAdmin creates the bootstrap super-admin on first start so a fresh
// deployment has a way in. A conflict means the admin already exists.
func seedSuperAdmin(ctx context.Context, cfg config.SeedAdminConfig, admins identitystore.AdminStore, hasher password.Hasher, log *slog.Logger) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return err
	}

	admin, err := models.NewAdminIdentity(
		uuid.New(), cfg.Username, hash, "Bootstrap Admin", true, uuid.Nil, requestcontext.Now(ctx))
	if err != nil {
		return err
	}

	if err := admins.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			log.Info("seed admin already exists", "username", cfg.Username)
			return nil
		}
		return err
	}

	log.Info("seeded bootstrap super-admin", "username", cfg.Username)
	return nil
}
