package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server holds everything a worker needs. It is built once at startup and
// shared by reference with every worker; workers share nothing else.
type Server struct {
	cfg    Config
	router *Router
	log    zerolog.Logger
	ctx    context.Context
	sem    chan struct{} // nil when connections are unbounded
	wg     sync.WaitGroup
}

func NewServer(cfg Config, store FileStore, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		router: NewRouter(cfg.Greeting, store),
		log:    log,
		ctx:    context.Background(),
	}
	if cfg.MaxConns > 0 {
		s.sem = make(chan struct{}, cfg.MaxConns)
	}
	return s
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and hands each to its own worker until
// ctx is cancelled, then waits for in-flight workers. Without MaxConns
// nothing bounds the number of live workers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ctx = ctx
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	var delay time.Duration // backoff after failed accepts
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				s.log.Info().Msg("server stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			delay = min(max(2*delay, minAcceptDelay), maxAcceptDelay)
			s.log.Error().Err(err).Dur("retry_in", delay).Msg("accept failed")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0
		if !s.acquire(ctx) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.release()
	NewWorker(s).Start(conn) // worker takes the ownership of |conn|
}

func (s *Server) acquire(ctx context.Context) bool {
	if s.sem == nil {
		return true
	}
	select {
	case s.sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) release() {
	if s.sem != nil {
		<-s.sem
	}
}
