package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/pantry/internal/config"
	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/service"
	"github.com/vbonduro/pantry/internal/snapshot"
	"github.com/vbonduro/pantry/internal/store"
	"github.com/vbonduro/pantry/internal/vision"
	claudevision "github.com/vbonduro/pantry/internal/vision/claude"
)

// newPersistence opens the configured backend. The returned func releases it.
func newPersistence(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Persistence, func(), error) {
	switch cfg.PersistBackend {
	case config.BackendSQLite:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite persistence", "path", cfg.DBPath)
		return store.NewRepository(database, db.SQLite), closeDB(database.Close, logger), nil
	case config.BackendPostgres:
		database, err := db.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres persistence")
		return store.NewRepository(database, db.Postgres), closeDB(database.Close, logger), nil
	case config.BackendS3:
		s3Store, err := snapshot.New(ctx, snapshot.Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using s3 persistence", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return s3Store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown persistence backend %q", cfg.PersistBackend)
	}
}

func closeDB(closeFn func() error, logger *slog.Logger) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
}

// newVisionAnalyzer returns nil when photo import is disabled.
func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) vision.VisionAnalyzer {
	switch cfg.VisionBackend {
	case config.VisionClaude:
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	default:
		logger.Info("photo import disabled")
		return nil
	}
}
