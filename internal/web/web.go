package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agenda/internal/calendar"
	"agenda/internal/config"
	appLog "agenda/internal/log"
	"agenda/internal/snapshot"
	"agenda/internal/style"
)

// Server exposes the engine's derived views over a JSON API. It reads
// records from a snapshot holder and never mutates them.
type Server struct {
	cfg      *config.Config
	holder   *snapshot.Holder
	resolver *style.Resolver
	now      func() time.Time
	engine   *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithClock injects the source of "now". Tests use it to pin the date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer constructs a new Server with routes and middleware configured.
func NewServer(cfg *config.Config, holder *snapshot.Holder, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	s := &Server{
		cfg:      cfg,
		holder:   holder,
		resolver: cfg.Resolver(),
		now:      time.Now,
		engine:   router,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) registerRoutes() {
	// /health is always exposed without auth.
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		api.Use(gin.BasicAuthForRealm(gin.Accounts{
			s.cfg.BasicAuth.Username: s.cfg.BasicAuth.Password,
		}, "Agenda"))
	}
	{
		api.GET("/agenda", s.handleAgenda)
		api.GET("/summary", s.handleSummary)
		api.POST("/meetings/expand", s.handleExpand)
		api.GET("/calendar.ics", s.handleCalendar)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "endpoint not found")
	})
}

// Start serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	if at := s.holder.LoadedAt(); !at.IsZero() {
		c.Header("X-Snapshot-Loaded-At", at.UTC().Format(time.RFC3339))
	}
	c.String(http.StatusOK, "OK")
}

// today is the injected current wall-clock time as a naive value.
func (s *Server) today() time.Time {
	return calendar.Naive(s.now())
}

func (s *Server) weekStart() time.Weekday {
	return calendar.ParseWeekday(s.cfg.WeekStart)
}

// requestLogger logs each API request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appLog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// dateParam parses a YYYY-MM-DD query parameter, falling back to def when
// the parameter is absent.
func dateParam(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	t, err := calendar.ParseDate(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+name+": expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
