package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
	"github.com/noah-isme/rackbook-api/internal/repository"
	"github.com/noah-isme/rackbook-api/internal/seed"
	"github.com/noah-isme/rackbook-api/internal/service"
	"github.com/noah-isme/rackbook-api/pkg/cache"
	"github.com/noah-isme/rackbook-api/pkg/config"
	"github.com/noah-isme/rackbook-api/pkg/database"
	"github.com/noah-isme/rackbook-api/pkg/logger"
)

func main() {
	var (
		matrices   string
		exceptions string
		tokenFor   string
		tokenRole  string
	)
	flag.StringVar(&matrices, "matrix", "seed/allocations.term.json,seed/allocations.vacation.json", "Comma-separated matrix JSON files; missing files are skipped")
	flag.StringVar(&exceptions, "exceptions", "", "Optional exception windows JSON file")
	flag.StringVar(&tokenFor, "issue-token", "", "Print a development access token for this user id and exit")
	flag.StringVar(&tokenRole, "role", string(models.RoleAdmin), "Role carried by -issue-token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if tokenFor != "" {
		tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiration})
		signed, expiresAt, err := tokens.Issue(tokenFor, models.UserRole(strings.ToUpper(tokenRole)), "", "")
		if err != nil {
			logr.Fatal("failed to issue token", zap.Error(err))
		}
		fmt.Printf("%s\n# expires %s\n", signed, expiresAt.Format("2006-01-02T15:04:05Z07:00"))
		return
	}

	ctx := context.Background()
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	pools := repository.NewPoolRepository(db)
	policies := repository.NewPolicyRepository(db)
	seeder := seed.NewSeeder(pools, policies, database.NewTransactor(db), logr)

	if err := seeder.Inventory(ctx); err != nil {
		logr.Fatal("inventory seed failed", zap.Error(err))
	}

	for _, path := range strings.Split(matrices, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			logr.Warn("matrix file not found, skipping", zap.String("path", path))
			continue
		}
		file, err := seed.ParseMatrix(f)
		f.Close() //nolint:errcheck
		if err != nil {
			logr.Fatal("matrix parse failed", zap.String("path", path), zap.Error(err))
		}
		if err := seeder.ImportMatrix(ctx, file); err != nil {
			logr.Fatal("matrix import failed", zap.String("path", path), zap.Error(err))
		}
	}

	if exceptions != "" {
		f, err := os.Open(exceptions)
		if err != nil {
			logr.Fatal("exceptions file unreadable", zap.Error(err))
		}
		file, err := seed.ParseExceptions(f)
		f.Close() //nolint:errcheck
		if err != nil {
			logr.Fatal("exceptions parse failed", zap.Error(err))
		}
		if err := seeder.ImportExceptions(ctx, file); err != nil {
			logr.Fatal("exceptions import failed", zap.Error(err))
		}
	}

	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable; matrix cache not flushed", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), nil, cfg.Cache.MatrixTTL, logr, true)
			matrix := service.NewMatrixService(policies, pools, cacheSvc, cfg.Cache.MatrixTTL, logr)
			if err := matrix.InvalidateAll(ctx); err != nil {
				logr.Warn("matrix cache flush failed", zap.Error(err))
			}
		}
	}
	logr.Info("seed complete")
}
