package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/contractiq/coherence/internal/coherence"
	"github.com/contractiq/coherence/internal/conf"
	"github.com/contractiq/coherence/internal/datastore"
	"github.com/contractiq/coherence/internal/datastore/repository"
	"github.com/contractiq/coherence/internal/logger"
	"github.com/contractiq/coherence/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "coherence",
		Short:        "Score project coherence and detect score manipulation",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (env COHERENCE_* overrides)")

	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newDetectCmd(opts))
	root.AddCommand(newProfilesCmd(opts))
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newServeCmd(opts))
	return root
}

// app is the wired engine for one command invocation.
type app struct {
	settings *conf.Settings
	service  *coherence.Service
	repo     repository.WeightProfileRepository
	log      logger.Logger
	close    func()
}

// setup loads settings and builds the service. m may be nil.
func setup(ctx context.Context, cmd *cobra.Command, opts *rootOptions, m *metrics.CoherenceMetrics) (*app, error) {
	settings, err := conf.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	log := logger.NewSlogLogger(cmd.ErrOrStderr(), logger.ParseLevel(settings.Log.Level), &logger.Options{
		JSON: settings.Log.JSON,
	})

	var repo repository.WeightProfileRepository
	closeFn := func() {}
	if settings.Database.Path != "" {
		db, err := datastore.Open(settings.Database.Path)
		if err != nil {
			return nil, err
		}
		repo = repository.NewWeightProfileRepository(db)
		closeFn = func() {
			if err := datastore.Close(db); err != nil {
				log.Warn("failed to close database", logger.Error(err))
			}
		}
	}

	svc, err := coherence.Initialize(ctx, settings, repo, m, log)
	if err != nil {
		closeFn()
		return nil, err
	}
	return &app{settings: settings, service: svc, repo: repo, log: log, close: closeFn}, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("an input file is required (-f)")
	}
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
