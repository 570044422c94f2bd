// Package app contains the application setup for shopd.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopkit/shopd/internal/config"
	"github.com/shopkit/shopd/internal/service"
	"github.com/shopkit/shopd/internal/storage"
	"github.com/shopkit/shopd/internal/store"
	"github.com/shopkit/shopd/internal/transport/rest"
	"github.com/shopkit/shopd/pkg/server"
)

type Dependencies struct {
	ShopService service.ShopService
	Logger      *slog.Logger
}

func SetupDependencies(drv storage.Driver, cfg *config.Config, logger *slog.Logger) *Dependencies {
	ledger := store.NewKV(drv, logger)
	sService := service.NewService(ledger, cfg.Shop)

	return &Dependencies{
		ShopService: sService,
		Logger:      logger,
	}
}

// SetupHttpHandler initializes the HTTP routes and middleware for shopd.
// Used by tests to exercise the full HTTP surface without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for shopd.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	shopHandler := rest.NewHandler(deps.ShopService, deps.Logger)
	shopHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for shopd.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
