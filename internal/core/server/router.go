package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"obituary-service/internal/core/logger"
	mdw "obituary-service/internal/transport/http/middleware"
)

type Options struct {
	Name           string
	Mode           string
	RequestTimeout time.Duration
	MaxConcurrent  int64
	// QueueWait is how long a request may wait for a concurrency slot.
	QueueWait    time.Duration
	MaxBodyBytes int64
	// Health reports readiness; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the middleware chain both binaries share and mounts
// /health and /metrics.
func NewRouter(l *zap.Logger, o Options) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	gin.DefaultWriter = logger.ToWriter(l, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(l, zapcore.ErrorLevel)

	r := gin.New()
	r.Use(mdw.RequestID())
	// metrics and access log sit outside recovery so panics are counted
	r.Use(mdw.Metrics())
	r.Use(mdw.AccessLog(l))
	r.Use(mdw.Recovery(l))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(mdw.ConcurrencyLimit(o.MaxConcurrent, o.QueueWait))
	if o.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(o.MaxBodyBytes))
	}
	if o.RequestTimeout > 0 {
		r.Use(mdw.Timeout(o.RequestTimeout))
	}

	r.GET("/health", func(c *gin.Context) {
		if o.Health != nil {
			if err := o.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "service": o.Name, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": o.Name})
	})
	r.GET("/metrics", mdw.MetricsHandler())
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }

// Run serves until ctx is cancelled, then drains for up to grace.
func Run(ctx context.Context, srv *http.Server, l *zap.Logger, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		l.Info("http starting", zap.String("addr", srv.Addr))
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
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
