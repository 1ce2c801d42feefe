package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZaguanLabs/blocktl/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.HTTPAddr
				}
				handler := httpapi.NewHandler(a.tr, a.bt, a.comparator, a.review)
				srv := &http.Server{
					Addr:              addr,
					Handler:           httpapi.NewRouter(handler),
					ReadHeaderTimeout: 5 * time.Second,
				}
				return runServer(ctx, a, srv)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// runServer serves until the context is cancelled or a signal arrives,
// then shuts down gracefully.
func runServer(ctx context.Context, a *app, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.logger.Info("http server listening", "addr", srv.Addr)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.logger.ErrorContext(ctx, "http server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	a.logger.Info("http server stopped")
	return runErr
}
