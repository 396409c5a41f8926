// Command radiald serves polar grids, radial interpolation and mappable
// arrays over HTTP under /api.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/internal/cli"
	"github.com/geal-ai/radialinterp/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:], os.Getenv, nil); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. When ready is non-nil it receives the
// bound listen address once the server accepts connections.
func run(ctx context.Context, outW, logW io.Writer, args []string, getenv func(string) string, ready chan<- string) error {
	cfg, shouldExit, err := cli.ParseServer(args, outW, getenv)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := cfg.Logging.NewLogger(logW)
	h := httpapi.NewHandler(&radialinterp.Interpolator{Workers: cfg.Workers}, cfg.MaxBodyBytes)
	srv := &http.Server{
		Handler:           httpapi.NewRouter(h, logger, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	logger.Info("listening", "addr", ln.Addr().String(), "workers", cfg.Workers)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
