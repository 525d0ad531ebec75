//nolint:revive // exported
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"opsboard/server/internal/config"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Service struct {
	Handler http.Handler
	Path    string
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Content-Encoding",
		},
		MaxAge: int(time.Second),
	})
}

// Server mode constants
const (
	ServerModeUDS = "uds"
	ServerModeTCP = "tcp"
)

func newH2CServer(mux *http.ServeMux) *http.Server {
	return &http.Server{
		// NOTE: an address is required even when serving a Unix socket;
		// actual routing happens via the listener.
		Addr:              "opsboard:0",
		ReadHeaderTimeout: 10 * time.Second,
		// INFO: Use h2c so we can serve HTTP/2 without TLS.
		Handler: h2c.NewHandler(newCORS().Handler(mux), &http2.Server{
			IdleTimeout:          0,
			MaxConcurrentStreams: 100000,
			MaxHandlers:          0,
		}),
	}
}

// ListenServices starts the server listening on either a Unix socket or a
// TCP port, per the server config. It returns nil after a graceful shutdown
// triggered by ctx cancellation.
func ListenServices(ctx context.Context, services []Service, srv config.Server) error {
	mux := http.NewServeMux()

	for _, service := range services {
		slog.Info("Registering service", "path", service.Path)
		mux.Handle(service.Path, service.Handler)
	}

	switch srv.Mode {
	case ServerModeTCP:
		return listenTCP(ctx, mux, srv.Port)
	case ServerModeUDS:
		return listenIPC(ctx, mux, srv.SocketPath)
	default:
		slog.Warn("Unknown server mode, falling back to tcp", "mode", srv.Mode)
		return listenTCP(ctx, mux, srv.Port)
	}
}

func listenTCP(ctx context.Context, mux *http.ServeMux, port string) error {
	srv := newH2CServer(mux)
	srv.Addr = ":" + port
	go shutdownOnCancel(ctx, srv)

	slog.Info("Server listening on TCP", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func shutdownOnCancel(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Server shutdown", "error", err)
	}
}
