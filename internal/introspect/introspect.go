// Package introspect serves a strictly read-only HTTP view of the job
// table, opt-in via GOSH_INTROSPECT_ADDR. Grounded on
// cmd/zmux-server/main.go's router assembly (gin.New + Recovery + CORS +
// a Zap request logger) and internal/http/middleware/request_id.go's
// UUID correlation middleware — the same middleware stack, pointed at two
// GET-only routes instead of the teacher's channel CRUD surface.
package introspect

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edirooss/gosh/internal/jobtable"
)

const requestIDKey = "request_id"

// requestID attaches an X-Request-ID to every request, generating one when
// the client didn't supply a usable one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if l := len(id); l < 1 || l > 64 {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set(requestIDKey, id)
		c.Next()
	}
}

// zapLogger logs each request's method, route, status, and latency.
func zapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String(requestIDKey, c.GetString(requestIDKey)),
		}
		switch {
		case status >= 500:
			log.Error("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// TableView is the read-only subset of jobtable.Table introspect needs —
// kept narrow so the HTTP surface cannot be used to mutate job state.
type TableView interface {
	Snapshot() []jobtable.Snapshot
}

// Server is the introspection API's HTTP server.
type Server struct {
	httpSrv *http.Server
	log     *zap.Logger
}

// New builds a Server bound to addr, serving GET /jobs and GET /healthz.
func New(log *zap.Logger, table TableView, addr string) *Server {
	log = log.Named("introspect")
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})
	r.Use(gin.Recovery())
	r.Use(secure.New(secure.Config{
		IsDevelopment:      false,
		STSSeconds:         0,
		FrameDeny:          true,
		ContentTypeNosniff: true,
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost"},
		AllowMethods: []string{"GET"},
		MaxAge:       time.Hour,
	}))
	r.Use(requestID())
	r.Use(zapLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/jobs", func(c *gin.Context) {
		c.JSON(http.StatusOK, table.Snapshot())
	})

	return &Server{
		log: log,
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
