package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/contractiq/coherence/internal/api"
	"github.com/contractiq/coherence/internal/logger"
	"github.com/contractiq/coherence/internal/metrics"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring API and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m, err := metrics.NewCoherenceMetrics(reg)
			if err != nil {
				return err
			}

			a, err := setup(cmd.Context(), cmd, root, m)
			if err != nil {
				return err
			}
			defer a.close()

			if listen == "" {
				listen = a.settings.Server.Listen
			}
			ctrl := api.New(api.Options{
				Service:   a.service,
				Audit:     a.repo,
				Gatherer:  reg,
				Logger:    a.log,
				BodyLimit: a.settings.Server.BodyLimit,
			})
			return serve(cmd.Context(), ctrl, listen, a)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from server.listen)")
	return cmd
}

// serve runs the HTTP server until ctx is canceled, then shuts it down
// within the configured timeout.
func serve(ctx context.Context, ctrl *api.Controller, listen string, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", logger.String("address", listen))
		errCh <- ctrl.Echo.Start(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := ctrl.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.log.Info("http server stopped")
	return nil
}
