package cli

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"proxen/internal/backend/googletasks"
	"proxen/internal/backend/sqlite"
	"proxen/internal/config"
	"proxen/internal/conversation"
	"proxen/internal/gateway"
	"proxen/internal/service"
	"proxen/internal/session"
)

// Store is a session store that holds resources until closed.
type Store interface {
	session.Store
	io.Closer
}

// StoreFactory opens the session store.
type StoreFactory func(cfg *config.Config, logger *zap.Logger) (Store, error)

// GatewayFactory builds the model gateway.
type GatewayFactory func(cfg *config.Config, logger *zap.Logger) conversation.Gateway

// ServiceFactory creates a Service from config.
// Used to inject the Google Tasks backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Backends are the factories the dispatcher uses to satisfy command needs.
// A nil Tasks factory only checks that the OAuth files exist.
type Backends struct {
	Store   StoreFactory
	Gateway GatewayFactory
	Tasks   ServiceFactory
}

// DefaultBackends returns the production backends: the sqlite session
// store, the HTTP model gateway and Google Tasks.
func DefaultBackends() Backends {
	return Backends{
		Store:   openSQLite,
		Gateway: newGateway,
		Tasks:   newGoogleTasks,
	}
}

func openSQLite(cfg *config.Config, logger *zap.Logger) (Store, error) {
	s, err := sqlite.Open(cfg.StatePath(), logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newGateway(cfg *config.Config, logger *zap.Logger) conversation.Gateway {
	s := cfg.Settings
	return gateway.New(
		gateway.WithBaseURL(s.BaseURL),
		gateway.WithModel(s.Model),
		gateway.WithHTTPClient(&http.Client{Timeout: s.RequestTimeout}),
		gateway.WithLogger(logger),
	)
}

func newGoogleTasks(ctx context.Context, cfg *config.Config) (service.Service, error) {
	c, err := googletasks.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}
