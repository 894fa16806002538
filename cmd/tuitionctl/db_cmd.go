package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"

	"tuition/internal/adapters/storage"
	auditStorePkg "tuition/internal/adapters/storage/audit"
	outboxStorePkg "tuition/internal/adapters/storage/outbox"
	sessionStorePkg "tuition/internal/adapters/storage/session"
	"tuition/internal/application/orchestrators"
	"tuition/internal/config"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Local database housekeeping",
	}
	cmd.AddCommand(newDBMigrateCmd(), newDBStatusCmd(), newDBMaintenanceCmd())
	return cmd
}

// openDB loads the config named by --config and opens its database.
func openDB(cmd *cobra.Command) (*sql.DB, *config.Config, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.MigrateDB(db, cfg.Database.Path); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, cfg, nil
}

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database to the latest schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.Database.Path, v)
			return nil
		},
	}
}

func newDBStatusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show outbox counts and the entries that used up their retries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			store := outboxStorePkg.NewSQLiteStore(db)
			counts, err := store.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema: %d\n", storage.LatestSchemaVersion())
			if len(counts) == 0 {
				fmt.Fprintln(out, "outbox: empty")
			}
			for status, n := range counts {
				fmt.Fprintf(out, "outbox %s: %d\n", status, n)
			}

			failed, err := store.ListFailed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range failed {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d/%d\t%s\n",
					e.ID, e.ActionType, e.ActorEmail, e.Attempts, e.MaxAttempts, e.ErrorMessage)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Failed entries to list")
	return cmd
}

func newDBMaintenanceCmd() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Delete expired sessions and audit events older than --retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			// Purging never opens a token, so any key will do when none is configured.
			key := cfg.Session.SealKey
			if key == "" {
				b := make([]byte, 32)
				rand.Read(b)
				key = hex.EncodeToString(b)
			}
			sealer, err := sessionStorePkg.NewSealer(key)
			if err != nil {
				return err
			}
			res, err := orchestrators.ExecuteMaintenance(cmd.Context(), orchestrators.MaintenanceDeps{
				SessionStore:   sessionStorePkg.NewSQLiteStore(db, sealer),
				AuditStore:     auditStorePkg.NewSQLiteStore(db),
				AuditRetention: retention,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d sessions, %d audit events\n", res.SessionsRemoved, res.EventsRemoved)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", orchestrators.DefaultAuditRetention, "Audit events older than this are deleted")
	return cmd
}
