// Package server exposes the matching engine over HTTP. It wires the
// match, bulk, search, and breakdown endpoints onto a gin engine with
// CORS, request logging, and per-client rate limiting, and manages the
// listener lifecycle with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/breakdown"
	"github.com/rencanakan/ahsmatch/internal/config"
	"github.com/rencanakan/ahsmatch/internal/service"
)

// serviceName is reported by the health endpoint.
const serviceName = "ahsmatch"

// Server serves the matching API over HTTP.
type Server struct {
	cfg       config.Server
	matcher   *service.Matcher
	breakdown *breakdown.Service
	log       *zap.Logger
	secLog    *zap.Logger
	limiter   *clientLimiter
	engine    *gin.Engine

	mu       sync.Mutex
	running  bool
	httpSrv  *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a server around the matcher and breakdown services. The
// returned server is not listening yet; call Start, or mount Handler
// on a listener of your own.
func New(cfg config.Server, matcher *service.Matcher, bd *breakdown.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		matcher:   matcher,
		breakdown: bd,
		log:       log,
		secLog:    log.Named("security.audit"),
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = newClientLimiter(cfg.RatePerSecond, cfg.RateBurst)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler backing the server, for tests and
// callers that manage their own listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.GET("/health", s.handleHealth)

	v1 := r.Group("/api/v1")
	if s.limiter != nil {
		v1.Use(s.rateLimit())
	}
	v1.POST("/match-best", s.handleMatchBest)
	v1.POST("/match-bulk", s.handleMatchBulk)
	v1.GET("/search", s.handleSearch)
	v1.GET("/ahs-breakdown/:code", s.handleBreakdown)
}

// Start binds the configured address and begins serving. It returns
// once the listener is accepting connections; serving continues on a
// background goroutine until Shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	s.httpSrv = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout(),
		WriteTimeout: s.cfg.WriteTimeout(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()

	s.running = true
	s.log.Info("server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, useful when the config asked for
// port 0. Empty until Start succeeds.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and stops the listener. The
// context bounds how long draining may take; on expiry remaining
// connections are dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.httpSrv.Shutdown(ctx)
	s.wg.Wait()
	s.running = false
	s.listener = nil
	s.log.Info("server stopped")
	return err
}
