package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohmanhakim/soundfetch/internal/server"
	"github.com/spf13/cobra"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolve/fetch API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := a.newServer()
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(a.cfg.ListenAddr())
		}()
		cmd.PrintErrf("listening on %s\n", a.cfg.ListenAddr())

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	},
}

func (a *app) newServer() *server.Server {
	// page fetch and download share the request deadline, each retry gets its own timeout
	requestTimeout := a.cfg.Timeout() * time.Duration(a.cfg.MaxAttempt()) * 2
	return server.New(
		a.recorder,
		a.resolver,
		a.cache,
		server.WithGatherer(a.registry),
		server.WithRequestTimeout(requestTimeout),
	)
}
