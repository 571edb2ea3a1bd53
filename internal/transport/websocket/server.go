package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/binprot/internal/core/observability/log"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

// Handler serves one connection. The connection is closed when it returns.
type Handler func(ctx context.Context, c *Conn)

type ServerConfig struct {
	Addr            string
	Path            string
	ShutdownTimeout time.Duration
	Conn            Config
}

// Server upgrades HTTP requests on Path and runs Handler per connection.
type Server struct {
	config   ServerConfig
	handler  Handler
	logger   log.Log
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*Conn
	wg    sync.WaitGroup
}

func NewServer(config ServerConfig, handler Handler, logger log.Log) *Server {
	if config.Path == "" {
		config.Path = "/"
	}
	return &Server{
		config:  config,
		handler: handler,
		logger:  logger.With(log.String("component", "websocket")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*Conn),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Upgrade failed", log.String("remote", r.RemoteAddr), log.Error(err))
		return
	}

	c := NewConn(raw, s.config.Conn, s.logger)
	s.track(c)
	defer s.untrack(c)

	s.logger.Info("Client connected", log.String("conn_id", c.ID()), log.String("remote", r.RemoteAddr))
	ctx := log.ContextWithFields(r.Context(), log.String("conn_id", c.ID()))
	s.handler(ctx, c)
}

func (s *Server) track(c *Conn) {
	s.wg.Add(1)
	s.mu.Lock()
	s.conns[c.ID()] = c
	s.mu.Unlock()
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.ID())
	s.mu.Unlock()
	_ = c.Close()
	s.wg.Done()
}

// ActiveConnections reports how many handlers are running.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down and
// closes every open connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, s)
	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Listening", log.String("addr", ln.Addr().String()), log.String("path", s.config.Path))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		started := time.Now()
		err := httpServer.Shutdown(shutdownCtx)
		s.closeAll()
		s.wg.Wait()
		s.logger.Info("Stopped", log.Duration("shutdown", time.Since(started)))
		return err
	})
	return g.Wait()
}

// Hijacked websocket connections are not closed by http.Server.Shutdown.
func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// Message is a value that can be received and sent back.
type Message interface {
	binprot.Encodable
	binprot.Decodable
}

// EchoHandler decodes each message into a fresh value from newMessage and
// sends it back re-encoded. Messages that fail to decode are logged and
// skipped.
func EchoHandler(newMessage func() Message, logger log.Log) Handler {
	return func(ctx context.Context, c *Conn) {
		l := logger.WithContext(ctx)
		for {
			msg := newMessage()
			err := c.Receive(msg)
			switch {
			case err == nil:
			case errors.Is(err, ErrNotBinary) || errors.Is(err, ErrMalformed):
				l.Warn("Skipping message", log.Error(err))
				continue
			case IsClosedError(err):
				l.Debug("Peer went away")
				return
			default:
				l.Error("Receive failed", log.Error(err))
				return
			}
			if err := c.Send(msg); err != nil {
				l.Error("Echo failed", log.Error(err))
				return
			}
		}
	}
}
