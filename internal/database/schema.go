package database

import (
	"context"
	"fmt"
	"log/slog"

	"charitydesk/internal/config"
	"charitydesk/internal/middleware"

	"gorm.io/gorm"
)

// Supported values for DB_SCHEMA_MODE.
const (
	SchemaModeSQL  = "sql"
	SchemaModeAuto = "auto"
)

// SchemaStatus reports what ApplySchema would do and what the ledger holds.
type SchemaStatus struct {
	Mode              string
	Driver            string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// effectiveMode resolves the schema mode. The SQL migrations target Postgres,
// so SQLite always uses AutoMigrate.
func effectiveMode(cfg *config.Config) (string, error) {
	if cfg.DBDriver == DriverSQLite {
		return SchemaModeAuto, nil
	}
	switch cfg.DBSchemaMode {
	case "", SchemaModeAuto:
		return SchemaModeAuto, nil
	case SchemaModeSQL:
		return SchemaModeSQL, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", cfg.DBSchemaMode)
	}
}

// ApplySchema brings the database schema up to date using the configured mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode, err := effectiveMode(cfg)
	if err != nil {
		return err
	}

	switch mode {
	case SchemaModeSQL:
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	default:
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("driver", cfg.DBDriver), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus lists applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	mode, err := effectiveMode(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{Mode: mode, Driver: cfg.DBDriver}
	if mode != SchemaModeSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
