package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API over the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if listen == "" {
				listen = a.cfg.GetListenAddr()
			}
			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return sysError(fmt.Errorf("listen: %w", err))
			}
			return a.serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to bind (default: listen_addr from config.yaml)")
	return cmd
}

// serve runs the API on ln until ctx is cancelled, then shuts down.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	backend, dataDir, err := a.attachBackend()
	if err != nil {
		ln.Close()
		return err
	}
	defer backend.Detach()

	srv := api.NewServer(backend, backend.Registry(),
		api.WithLogger(a.logger),
		api.WithImageLimit(a.cfg.GetImageMaxBytes()))
	hs := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()
	a.logger.Info("serving", "addr", ln.Addr().String(), "prefix", api.Prefix, "data_dir", dataDir)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return sysError(fmt.Errorf("serve: %w", err))
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return sysError(fmt.Errorf("shutdown: %w", err))
	}
	return nil
}
