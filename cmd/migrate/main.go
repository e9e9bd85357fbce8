// Command migrate manages the CharityDesk database schema.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"charitydesk/internal/config"
	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type openFunc func(ctx context.Context) (*config.Config, *gorm.DB, error)

func main() {
	if err := newRootCmd(openDatabase, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func openDatabase(context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func newRootCmd(open openFunc, out io.Writer) *cobra.Command {
	var (
		cfg *config.Config
		db  *gorm.DB
	)

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the CharityDesk database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, db, err = open(cmd.Context())
			return err
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	var dryRun bool
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations (Postgres)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DBDriver == database.DriverSQLite {
				return fmt.Errorf("SQL migrations target Postgres; use \"migrate auto\" with DB_DRIVER=sqlite")
			}
			if dryRun {
				sqlCfg := *cfg
				sqlCfg.DBSchemaMode = database.SchemaModeSQL
				status, err := database.GetSchemaStatus(cmd.Context(), db, &sqlCfg)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}
				if len(status.PendingMigrations) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				}
				for _, m := range status.PendingMigrations {
					fmt.Fprintf(cmd.OutOrStdout(), "would apply: %s\n", m.String())
				}
				return nil
			}
			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
			return nil
		},
	}
	up.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	root.AddCommand(up)

	root.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Create or update tables from the GORM models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			autoCfg := *cfg
			autoCfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(cmd.Context(), db, &autoCfg); err != nil {
				return fmt.Errorf("auto schema apply failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "automigrations applied")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration state and a row inventory of the content tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mode=%s driver=%s applied=%d pending=%d\n",
				status.Mode, status.Driver, len(status.AppliedVersions), len(status.PendingMigrations))
			for _, m := range status.PendingMigrations {
				fmt.Fprintf(w, "pending: %s\n", m.String())
			}

			rows, err := inventory(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Fprintf(w, "%-18s %d\n", r.label, r.count)
			}
			return nil
		},
	})

	var force bool
	down := &cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			if cfg.IsProduction() && !force {
				return fmt.Errorf("refusing to roll back migration %d in production without --force", version)
			}
			if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
			return nil
		},
	}
	down.Flags().BoolVar(&force, "force", false, "Allow rollback in production")
	root.AddCommand(down)

	return root
}

type inventoryRow struct {
	label string
	count int64
}

// inventory counts rows per domain table. Missing tables are skipped.
func inventory(ctx context.Context, db *gorm.DB) ([]inventoryRow, error) {
	queries := []struct {
		label string
		model interface{}
		where string
		args  []interface{}
	}{
		{"users", &models.User{}, "", nil},
		{"staff", &models.User{}, "role IN ?", []interface{}{[]string{models.RoleNameAdmin, models.RoleNameEditor}}},
		{"news (active)", &models.ContentItem{}, "kind = ? AND archived = ?", []interface{}{models.ContentKindNews, false}},
		{"news (archived)", &models.ContentItem{}, "kind = ? AND archived = ?", []interface{}{models.ContentKindNews, true}},
		{"stories", &models.ContentItem{}, "kind = ?", []interface{}{models.ContentKindStory}},
		{"comments", &models.Comment{}, "", nil},
		{"likes", &models.Like{}, "", nil},
		{"banks", &models.Bank{}, "", nil},
		{"contact (unread)", &models.ContactMessage{}, "read_at IS NULL", nil},
		{"donations", &models.Donation{}, "", nil},
	}

	db = db.WithContext(ctx)
	var rows []inventoryRow
	for _, q := range queries {
		if !db.Migrator().HasTable(q.model) {
			continue
		}
		tx := db.Model(q.model)
		if q.where != "" {
			tx = tx.Where(q.where, q.args...)
		}
		var n int64
		if err := tx.Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", q.label, err)
		}
		rows = append(rows, inventoryRow{label: q.label, count: n})
	}
	return rows, nil
}
