package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/usecase"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 15 * time.Minute
	idleTimeout  = 120 * time.Second
)

// Trigger starts one pipeline run and waits for it.
type Trigger interface {
	RunOnce(ctx context.Context) (domain.RunReport, error)
}

// Mode picks the gin mode for a log level: debug logging keeps gin's debug
// output, everything else runs in release mode.
func Mode(logLevel string) string {
	if strings.EqualFold(strings.TrimSpace(logLevel), "debug") {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// Server exposes the manual trigger, health and metrics endpoints.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *zap.Logger
}

// NewServer builds the router. gatherer may be nil to skip /metrics.
func NewServer(addr string, trigger Trigger, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &runHandler{trigger: trigger, logger: logger}
	router.POST("/run", h.run)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: logger,
	}
}

// Handler returns the underlying router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

type runHandler struct {
	trigger Trigger
	logger  *zap.Logger
}

func (h *runHandler) run(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "pipeline is not configured"})
		return
	}

	// A dropped client connection does not abort the run.
	report, err := h.trigger.RunOnce(context.WithoutCancel(c.Request.Context()))
	switch {
	case errors.Is(err, usecase.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": err.Error()})
		return
	case err != nil:
		h.logger.Error("manual run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"runId":      report.RunID,
		"candidates": report.Candidates,
		"accepted":   len(report.Accepted),
		"outcomes":   report.Outcomes,
	})
}

func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
