package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/arbor/internal/config"
	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/observability/log"
	"github.com/zeusync/arbor/internal/core/preset"
)

// Server exposes tree generation over HTTP and WebSocket.
type Server struct {
	config    config.Config
	generator *generator.Generator
	presets   *preset.Registry
	logger    log.Log

	httpServer *http.Server
	listener   net.Listener

	// Open websocket connections, closed on Stop.
	conns   map[*websocket.Conn]struct{}
	connsMu sync.Mutex
	connWG  sync.WaitGroup

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool
}

// NewServer creates a server. Nothing listens until Start.
func NewServer(cfg config.Config, gen *generator.Generator, presets *preset.Registry, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		config:    cfg,
		generator: gen,
		presets:   presets,
		logger:    logger.With(log.String("component", "server")),
		conns:     make(map[*websocket.Conn]struct{}),
	}

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.Addr),
		log.Int("presets", presets.Len()))

	return s
}

// Handler returns the routing table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /presets", s.handleListPresets)
	mux.HandleFunc("GET /presets/{name}", s.handleGetPreset)
	mux.HandleFunc("GET /presets/{name}/mesh", s.handlePresetMesh)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /forest", s.handleForest)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return s.withRequestID(mux)
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down gracefully and closes websocket clients.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	err := s.httpServer.Shutdown(ctx)

	// Hijacked websocket connections are not tracked by Shutdown.
	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connsMu.Unlock()
	s.connWG.Wait()

	atomic.StoreInt32(&s.closed, 1)
	s.logger.Info("Server stopped")
	return err
}

// withRequestID tags every request with an id that ends up in log lines
// and the X-Request-ID response header.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := log.ContextWithRequestID(r.Context(), id)
		s.logger.WithContext(ctx).Debug("request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) trackConn(conn *websocket.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrackConn(conn *websocket.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}
