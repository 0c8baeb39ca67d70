package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/metrics"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [tree]",
		Short: "Serve a live tree to WebSocket mirrors",
		Long: `Start the live server. Trees posted to /render are reconciled against the
current tree and the resulting ops are streamed to every client of /ws.

An optional tree file is mounted before the server starts listening.

Examples:
  vtree serve
  vtree serve page.yaml --addr :8080
  curl --data-binary @next.yaml localhost:7070/render`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Live.Address = addr
			}
			logger := flags.logger(cfg, cmd.ErrOrStderr())

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			hub := live.New(live.Config{
				Logger: logger,
				Metrics: metrics.New(
					metrics.WithNamespace(cfg.Metrics.Namespace),
					metrics.WithRegistry(reg),
				),
				Gatherer:  reg,
				KeyPolicy: cfg.KeyPolicyValue(),
			})
			defer hub.Close()

			if len(args) == 1 {
				tree, err := vdom.LoadFile(args[0], hub.Handlers())
				if err != nil {
					return err
				}
				if _, err := hub.Render(cmd.Context(), tree); err != nil {
					return err
				}
			}

			srv := &http.Server{
				Addr:              cfg.Live.Address,
				Handler:           hub.Handler(),
				ReadHeaderTimeout: cfg.ReadTimeout(),
				ReadTimeout:       cfg.ReadTimeout(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			success(cmd.ErrOrStderr(), "Serving on http://%s", cfg.Live.Address)
			logger.Info("live server started", "addr", cfg.Live.Address)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config or VTREE_ADDR)")

	return cmd
}
