package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/planctl/internal/adapters/ids"
	summaryview "github.com/bnema/planctl/internal/adapters/render/summary"
	sqliterepo "github.com/bnema/planctl/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/planctl/internal/adapters/repo/toml"
	"github.com/bnema/planctl/internal/application"
	"github.com/bnema/planctl/internal/config"
	"github.com/bnema/planctl/internal/logging"
	"github.com/bnema/planctl/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	opts config.LoadOptions

	cfg      config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	store    *application.Store
	checkout *application.Checkout
	// tomlRepo is set only for the TOML backend; serve watches its file.
	tomlRepo *tomlrepo.Repository

	summaryRenderer func(summaryview.View, summaryview.RenderOptions) (string, error)
	now             func() time.Time
	closers         []func() error
}

func (a *app) wire(cmd *cobra.Command) error {
	cfg, v, err := config.Load(a.opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	a.logger = logging.Init(logging.Config{
		Format:    cfg.Log.Format,
		Level:     cfg.Log.Level,
		Component: "planctl",
		Output:    cmd.ErrOrStderr(),
	})

	pricing, err := cfg.ResolvePricing()
	if err != nil {
		return fmt.Errorf("resolve pricing: %w", err)
	}

	repo, err := a.openRepository(cmd, v)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := application.NewMetrics(a.registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	store, err := application.NewStore(cmd.Context(), repo, application.StoreOptions{
		Clock:   ports.SystemClock{},
		IDs:     ids.New(),
		Pricing: &pricing,
		Logger:  &a.logger,
		Metrics: metrics,
	})
	if err != nil {
		return fmt.Errorf("wire account store: %w", err)
	}

	a.store = store
	a.checkout = application.NewCheckout(store)
	a.summaryRenderer = summaryview.Render
	a.now = store.Now
	return nil
}

func (a *app) openRepository(cmd *cobra.Command, v *viper.Viper) (ports.StateRepository, error) {
	switch a.cfg.State.Backend {
	case config.BackendSQLite:
		repo, err := sqliterepo.Open(cmd.Context(), a.cfg.State.Path, a.logger)
		if err != nil {
			return nil, fmt.Errorf("wire sqlite repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		repo, err := tomlrepo.NewRepository(v)
		if err != nil {
			return nil, fmt.Errorf("wire toml repository: %w", err)
		}
		a.tomlRepo = repo
		return repo, nil
	}
}

func (a *app) close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	a.closers = nil
	return errors.Join(errs...)
}
