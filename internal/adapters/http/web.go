package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tuition/internal/adapters/email"
	"tuition/internal/adapters/http/middleware"
	auditStore "tuition/internal/adapters/storage/audit"
	outboxStore "tuition/internal/adapters/storage/outbox"
	sessionStore "tuition/internal/adapters/storage/session"
	"tuition/internal/application/orchestrators"
	"tuition/internal/application/projections"
	"tuition/internal/config"
	"tuition/internal/perf"
)

// Backend is every backend call the dashboard makes on behalf of a signed-in
// user. *backend.Session satisfies it.
type Backend interface {
	projections.ClassReader
	projections.RosterReader
	projections.HistoryReader
	projections.StudentReader
	projections.SettingsReader
	orchestrators.ReportWriter
	orchestrators.MessageSender
	orchestrators.StudentWriter
	orchestrators.SettingsWriter
	orchestrators.ModeReader
}

// Stores holds the local storage dependencies.
type Stores struct {
	SessionStore sessionStore.Store
	OutboxStore  outboxStore.Store
	AuditStore   auditStore.Store
}

// Services holds the remote dependencies.
type Services struct {
	Login     orchestrators.LoginBackend
	Backend   func(token string) Backend
	Email     email.Sender
	Outbox    *orchestrators.OutboxProcessor // optional; enables the retry buttons
	Collector *perf.Collector                // optional
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global services instance (set by NewMux)
var services *Services

// settings that handlers read; set by NewMux
var (
	adminEmails  []string
	sessionTTL   time.Duration
	templatesDir = "internal/adapters/http/templates"
)

// loadCSRFKey decodes server.csrf_key (64 hex chars). Outside production a
// missing key is replaced by a random one, so forms break on restart.
func loadCSRFKey(cfg config.ServerConfig) ([]byte, error) {
	if cfg.CSRFKey != "" {
		key, err := hex.DecodeString(cfg.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, errors.New("server.csrf_key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if cfg.Env == "production" {
		return nil, errors.New("server.csrf_key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_random", "hint", "set server.csrf_key so forms survive restarts")
	return key, nil
}

// NewMux wires HTTP handlers and the middleware chain.
// PRE: s and svc are fully populated except the optional fields
// POST: Returns the root handler, or an error for a bad CSRF key
func NewMux(cfg *config.Config, s *Stores, svc *Services) (http.Handler, error) {
	stores = s
	services = svc
	adminEmails = cfg.Server.AdminEmails
	sessionTTL = cfg.Session.TTL
	if cfg.Server.TemplatesDir != "" {
		templatesDir = cfg.Server.TemplatesDir
	}
	middleware.SecureCookies = cfg.IsProduction()

	csrfKey, err := loadCSRFKey(cfg.Server)
	if err != nil {
		return nil, err
	}

	app := http.NewServeMux()
	registerRoutes(app)

	// Static files sit on their own mux: "/static/" would conflict with the
	// "/{segment}/student" pattern on a shared one.
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Server.StaticDir))))
	mux.Handle("/", app)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSecond, int(cfg.Server.RateLimitPerSecond*2))
	limiter.StartCleanup(nil)

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, cfg.IsProduction(), nil),
		middleware.Auth(s.SessionStore),
		middleware.RateLimit(limiter),
		middleware.Timing(svc.Collector, cfg.Server.SlowRequestMS),
	), nil
}
