package webapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Serve listens on addr until ctx is cancelled, then shuts app down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "webapi"))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("Starting server", "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", "timeout", ShutdownTimeout)
	shutdownErr := app.ShutdownWithTimeout(ShutdownTimeout)
	// Unblocks the listener goroutine if shutdown ran before it started serving.
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("Closing listener", "error", err)
	}
	serveErr := <-errCh
	return errors.Join(shutdownErr, serveErr)
}
