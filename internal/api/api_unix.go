//go:build !windows

package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultServerSocketPath returns the default path for the server Unix socket.
func DefaultServerSocketPath() string {
	return filepath.Join(os.TempDir(), "opsboard", "server.socket")
}

func listenIPC(ctx context.Context, mux *http.ServeMux, socketPath string) error {
	if socketPath == "" {
		socketPath = DefaultServerSocketPath()
	}

	srv := newH2CServer(mux)
	go shutdownOnCancel(ctx, srv)

	socketDir := filepath.Dir(socketPath)

	// Create socket directory if it doesn't exist
	if err := os.MkdirAll(socketDir, 0o750); err != nil {
		return err
	}

	// Remove stale socket file if present (e.g., from a previous crash)
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove stale socket", "path", socketPath, "error", err)
	}

	// Create Unix socket listener
	lc := net.ListenConfig{}
	socket, err := lc.Listen(ctx, "unix", socketPath)
	if err != nil {
		return err
	}

	slog.Info("Server listening on Unix socket", "path", socketPath)

	// Ensure socket cleanup on server close
	srv.RegisterOnShutdown(func() {
		if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove socket on shutdown", "path", socketPath, "error", err)
		}
	})

	if err := srv.Serve(socket); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
