package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"tuition/internal/adapters/backend"
	emailPkg "tuition/internal/adapters/email"
	web "tuition/internal/adapters/http"
	"tuition/internal/adapters/storage"
	auditStorePkg "tuition/internal/adapters/storage/audit"
	outboxStorePkg "tuition/internal/adapters/storage/outbox"
	sessionStorePkg "tuition/internal/adapters/storage/session"
	"tuition/internal/application/orchestrators"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/config"
	"tuition/internal/perf"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const maintenanceInterval = time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
	}

	// WAL mode, busy timeout and foreign keys on every connection.
	dsn := cfg.Database.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, cfg.Database.Path); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, time.Duration(cfg.Database.SlowQueryMS)*time.Millisecond)

	sealKey, err := sealKey(cfg)
	if err != nil {
		return err
	}
	sealer, err := sessionStorePkg.NewSealer(sealKey)
	if err != nil {
		return err
	}
	stores := &web.Stores{
		SessionStore: sessionStorePkg.NewSQLiteStore(timedDB, sealer),
		OutboxStore:  outboxStorePkg.NewSQLiteStore(timedDB),
		AuditStore:   auditStorePkg.NewSQLiteStore(timedDB),
	}

	client := backend.New(backend.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		RetryCount:        cfg.Backend.RetryCount,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Collector:         collector,
	})
	defer client.Close()

	var sender emailPkg.Sender
	if cfg.Email.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From, cfg.Email.ReplyTo)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender_disabled", "hint", "set email.resend_key for report emails")
		} else {
			slog.Info("email_sender_configured", "provider", "noop")
		}
	}

	writes := &orchestrators.ReportWriteExecutor{
		Sessions: stores.SessionStore,
		Backend:  func(token string) orchestrators.ReportWriter { return client.Session(token) },
	}
	outbox := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionWeekReport: writes,
		domainOutbox.ActionPaidStatus: writes,
		domainOutbox.ActionReportEmail: &orchestrators.ReportEmailExecutor{
			Sessions: stores.SessionStore,
			Backend:  func(token string) orchestrators.HistoryReader { return client.Session(token) },
			Sender:   sender,
		},
	}, orchestrators.OutboxProcessorConfig{
		BaseDelay: cfg.Outbox.BaseDelay,
		MaxDelay:  cfg.Outbox.MaxDelay,
	})

	stopCh := make(chan struct{})
	defer close(stopCh)
	orchestrators.StartBackgroundWorker(outbox, cfg.Outbox.Interval, stopCh)
	orchestrators.StartMaintenanceWorker(orchestrators.MaintenanceDeps{
		SessionStore:   stores.SessionStore,
		AuditStore:     stores.AuditStore,
		AuditRetention: orchestrators.DefaultAuditRetention,
	}, maintenanceInterval, stopCh)

	handler, err := web.NewMux(cfg, stores, &web.Services{
		Login:     client,
		Backend:   func(token string) web.Backend { return client.Session(token) },
		Email:     sender,
		Outbox:    outbox,
		Collector: collector,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Server.Addr, "env", cfg.Server.Env,
			"schema", storage.LatestSchemaVersion(), "backend", cfg.Backend.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("server_stopping", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_stopped")
	return nil
}

// sealKey returns session.seal_key. Outside production a missing key is
// replaced by a random one, which signs everyone out on restart.
func sealKey(cfg *config.Config) (string, error) {
	if cfg.Session.SealKey != "" {
		return cfg.Session.SealKey, nil
	}
	if cfg.IsProduction() {
		return "", errors.New("session.seal_key is required in production")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	slog.Warn("seal_key_random", "hint", "set session.seal_key so sessions survive restarts")
	return hex.EncodeToString(b), nil
}
