package cmd

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/planctl/internal/adapters/httpapi"
	tomlrepo "github.com/bnema/planctl/internal/adapters/repo/toml"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var (
		addr    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API over the local state",
		Long:  "serve exposes the store over HTTP for a front-end. With the TOML backend the state file is watched and external edits are picked up.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}

			return app.serve(ctx, ln, !noWatch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload when the state file changes on disk")
	return cmd
}

// serve runs the API on ln until ctx is done.
func (a *app) serve(ctx context.Context, ln net.Listener, watch bool) error {
	server := httpapi.New(a.store, a.checkout, httpapi.Options{
		Addr:     ln.Addr().String(),
		Gatherer: a.registry,
		Logger:   a.logger,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(ln)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if watch && a.tomlRepo != nil {
		watcher := tomlrepo.NewWatcher(a.tomlRepo, a.logger)
		g.Go(func() error {
			return watcher.Watch(ctx, func() {
				if err := a.store.Reload(ctx); err != nil {
					a.logger.Warn().Err(err).Msg("Failed to reload state after file change")
					return
				}
				a.logger.Info().Str("path", a.tomlRepo.Path()).Msg("State reloaded from disk")
			})
		})
	}

	return g.Wait()
}
