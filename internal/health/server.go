// Package health serves the liveness and metrics endpoints.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"quake_bot/internal/storage"
)

const mib = 1024 * 1024

// StatsFunc returns delivery counters for /metrics.
type StatsFunc func(ctx context.Context) (storage.Stats, error)

// Memory is the process memory usage in MiB.
type Memory struct {
	Sys       float64 `json:"sys"`
	HeapTotal float64 `json:"heapTotal"`
	HeapUsed  float64 `json:"heapUsed"`
}

// Status is the body of /health.
type Status struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
	Version   string  `json:"version"`
	Memory    Memory  `json:"memory"`
}

// Metrics is the body of /metrics.
type Metrics struct {
	Status
	Subscribers int64  `json:"subscribers"`
	Sent        *int64 `json:"sent,omitempty"`
	Failed      *int64 `json:"failed,omitempty"`
}

// Server exposes process health over HTTP.
type Server struct {
	version     string
	started     time.Time
	subscribers atomic.Int64
	stats       StatsFunc
	log         *slog.Logger
	now         func() time.Time
	router      *gin.Engine
}

// New creates a Server. stats may be nil, in which case /metrics omits the
// delivery counters.
func New(version string, stats StatsFunc, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		version: version,
		started: time.Now(),
		stats:   stats,
		log:     log,
		now:     time.Now,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	s.router = r

	return s
}

// SetSubscribers updates the subscriber gauge.
func (s *Server) SetSubscribers(n int) {
	s.subscribers.Store(int64(n))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("health server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown health server: %w", err)
		}
		return nil
	}
}

func (s *Server) status() Status {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	now := s.now()
	return Status{
		Status:    "healthy",
		Uptime:    now.Sub(s.started).Seconds(),
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   s.version,
		Memory: Memory{
			Sys:       float64(m.Sys) / mib,
			HeapTotal: float64(m.HeapSys) / mib,
			HeapUsed:  float64(m.HeapAlloc) / mib,
		},
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.status())
}

func (s *Server) handleMetrics(c *gin.Context) {
	m := Metrics{
		Status:      s.status(),
		Subscribers: s.subscribers.Load(),
	}
	if s.stats != nil {
		st, err := s.stats(c.Request.Context())
		if err != nil {
			s.log.Error("load delivery stats", "error", err)
		} else {
			m.Sent, m.Failed = &st.Sent, &st.Failed
		}
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
