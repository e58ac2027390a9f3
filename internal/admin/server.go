// Package admin serves the bridge's HTTP status surface.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/lx200bridge/internal/bridge"
	"github.com/danmuck/lx200bridge/internal/display"
	"github.com/danmuck/lx200bridge/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

// StatusSource is implemented by *bridge.Service.
type StatusSource interface {
	Status() bridge.Status
}

type Server struct {
	Addr    string
	Started time.Time

	status StatusSource
	board  *display.Board
	router *gin.Engine
}

// New builds the router. board may be nil when no display is configured.
func New(addr string, status StatusSource, board *display.Board, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, activeSession(status)))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:    addr,
		Started: time.Now(),
		status:  status,
		board:   board,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"version": Version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		st := s.status.Status()
		code := http.StatusOK
		if !st.Serving {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":       st.Serving,
			"listen_addr": st.ListenAddr,
			"version":     Version,
		})
	})

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.status.Status())
	})

	s.router.GET("/display", func(c *gin.Context) {
		if s.board == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "display disabled"})
			return
		}
		addrs, at, ok := s.board.Snapshot()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "peer not discovered"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"addresses": addrs, "rendered_at": at})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Serve listens on Addr until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("admin.Serve listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("admin.Serve stopped")
		return nil
	}
}

// activeSession reports the connected client's ID for request logs.
func activeSession(status StatusSource) observability.SessionFunc {
	return func() string {
		if cl := status.Status().Client; cl != nil {
			return cl.ID
		}
		return ""
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
