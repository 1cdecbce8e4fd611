package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/cascade/pkg/adapters/http"
	mcpadapter "github.com/aretw0/cascade/pkg/adapters/mcp"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Serve runs the HTTP API on addr until ctx is cancelled.
func Serve(ctx context.Context, opts Options, addr string, w io.Writer) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	stack, err := NewStack(opts, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	handler := httpadapter.NewHandler(stack.Engine,
		httpadapter.WithRunStore(stack.Runs),
		httpadapter.WithMetrics(stack.Metrics.Handler()),
		httpadapter.WithRoot(stack.Project.Repository),
		httpadapter.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(w, "Starting cascade server on %s\n", addr)
		fmt.Fprintf(w, "Serving artifacts from: %s\n", stack.Project.Repository)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
		}
		fmt.Fprintln(w, "Cascade server stopped")
		return nil
	}
}

// ServeMCP exposes the engine as an MCP server over stdio.
func ServeMCP(opts Options) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	stack, err := NewStack(opts, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	srv := mcpadapter.NewServer(stack.Engine,
		mcpadapter.WithRunStore(stack.Runs),
		mcpadapter.WithKnown(stack.Engine.Known),
		mcpadapter.WithRoot(stack.Project.Repository),
		mcpadapter.WithLogger(logger),
	)
	return srv.ServeStdio()
}
