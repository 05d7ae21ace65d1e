package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 90 * time.Second
	readyCheckTimeout = time.Second
)

var errNotConfigured = errors.New("not configured")

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server owns the http.Server for the storefront API.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New builds a Server with all storefront, checkout and admin routes.
func New(addr string, logger zerolog.Logger, db *pgxpool.Pool, deps Deps) (*Server, error) {
	router, err := buildRouter(logger, db, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: logger,
	}, nil
}

func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http: listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.logger.Info().Err(err).Msg("http: stopped")
	return err
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyChecks puts the database first. A nil pool is reported as not configured.
func readyChecks(db *pgxpool.Pool, extra []ReadyCheck) []ReadyCheck {
	dbCheck := ReadyCheck{Name: "db", Ping: func(context.Context) error { return errNotConfigured }}
	if db != nil {
		dbCheck.Ping = db.Ping
	}
	return append([]ReadyCheck{dbCheck}, extra...)
}

// readyHandler answers 200 only when every check passes. The body lists each
// dependency as "ok", "not configured" or "not reachable".
func readyHandler(checks []ReadyCheck, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ready", http.StatusOK
		results := make(gin.H, len(checks))
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
			err := chk.Ping(ctx)
			cancel()
			switch {
			case err == nil:
				results[chk.Name] = "ok"
				continue
			case errors.Is(err, errNotConfigured):
				results[chk.Name] = "not configured"
			default:
				results[chk.Name] = "not reachable"
				logger.Warn().Err(err).Str("check", chk.Name).Msg("http: readiness check failed")
			}
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "checks": results})
	}
}
