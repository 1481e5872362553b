// Package server wires the HTTP routes and middleware for the ordering
// gateway.
package server

import (
	"log/slog"
	"net/http"

	"github.com/kioskvoice/ordergate/pkg/chat/relay"
	"github.com/kioskvoice/ordergate/pkg/gateway/config"
	"github.com/kioskvoice/ordergate/pkg/gateway/handlers"
	"github.com/kioskvoice/ordergate/pkg/gateway/mw"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
	relay  *relay.Relay
}

func New(cfg config.Config, logger *slog.Logger, rly *relay.Relay) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		relay:  rly,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("/ws/order", handlers.ChatHandler{
		Config: s.cfg,
		Relay:  s.relay,
		Logger: s.logger,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
