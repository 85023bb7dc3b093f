// Package server exposes the resolution engine over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/classlive/internal/resolve"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Engine   *resolve.Engine
	Sessions session.Source
	Port     int
	Out      io.Writer
	Logger   *zap.Logger
}

func (o *StartOpts) check() error {
	if o.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if o.Engine == nil {
		return fmt.Errorf("server: engine is required")
	}
	if o.Sessions == nil {
		return fmt.Errorf("server: session source is required")
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}

// NewRouter builds the gin engine serving the API.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))
	registerRoutes(router, &handlers{opts: opts, log: opts.Logger})
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request at debug level.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
