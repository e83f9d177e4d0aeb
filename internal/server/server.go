// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	serverconfig "github.com/crystaldolphin/pillpal/internal/config/server"
)

const shutdownGrace = 10 * time.Second

// Server owns the HTTP listener.
type Server struct {
	httpSrv *http.Server
	log     zerolog.Logger
}

func New(cfg serverconfig.ServerConfig, chat *ChatHandler, log zerolog.Logger) *Server {
	log = log.With().Str("component", "server").Logger()
	return &Server{
		httpSrv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           NewMux(chat, cfg.CORS, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Run listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
