package coherence

import (
	"context"
	"math"
	"time"

	"github.com/contractiq/coherence/internal/antigaming"
	"github.com/contractiq/coherence/internal/conf"
	"github.com/contractiq/coherence/internal/datastore/entities"
	"github.com/contractiq/coherence/internal/datastore/repository"
	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/logger"
	"github.com/contractiq/coherence/internal/metrics"
	"github.com/contractiq/coherence/internal/model"
	"github.com/contractiq/coherence/internal/scoring"
)

const (
	// saveProfileTimeout is the context deadline for persisting a profile snapshot.
	saveProfileTimeout = 3 * time.Second
)

// Initialize builds a Service from settings. With a repository, persisted
// profile history is restored first and every later snapshot is saved; the
// profiles from settings are then created, or updated when their weights
// changed. The resulting registry becomes the process-wide default.
func Initialize(
	ctx context.Context,
	settings *conf.Settings,
	repo repository.WeightProfileRepository,
	m *metrics.CoherenceMetrics,
	log logger.Logger,
) (*Service, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.String("component", "coherence"))

	registry := scoring.NewRegistry()
	if repo != nil {
		if err := restoreProfiles(ctx, registry, repo, log); err != nil {
			return nil, err
		}
		registry.OnChange(persistSnapshot(repo, log))
	}
	if m != nil {
		registry.OnChange(func(p scoring.WeightProfile) {
			op := metrics.OperationUpdate
			if p.Version == 1 {
				op = metrics.OperationCreate
			}
			m.RecordProfileChange(op)
		})
	}

	if err := seedProfiles(registry, settings.Profiles, log); err != nil {
		return nil, err
	}
	scoring.SetDefaultRegistry(registry)

	agConfig := settings.AntiGamingConfig()
	opts := Options{
		Registry:         registry,
		Detector:         antigaming.NewDetector(agConfig),
		Tracker:          antigaming.NewTracker(settings.AntiGaming.TrackerMaxEvents, agConfig.LongestWindow()),
		Metrics:          m,
		Audit:            repo,
		Logger:           log,
		BatchConcurrency: settings.Batch.Concurrency,
	}
	if settings.Cache.Enabled {
		opts.Cache = scoring.NewResultCache(settings.Cache.TTL.Std(), settings.Cache.MaxEntries)
	}

	log.Info("coherence service initialized",
		logger.Strings("profiles", registry.Names()),
		logger.Bool("persistence", repo != nil),
		logger.Bool("cache", settings.Cache.Enabled))
	return NewService(opts), nil
}

// restoreProfiles replays persisted history into the registry. The default
// profile is saved when storage has never seen it.
func restoreProfiles(ctx context.Context, registry *scoring.Registry, repo repository.WeightProfileRepository, log logger.Logger) error {
	rows, err := repo.ListAll(ctx)
	if err != nil {
		return errors.New(err).
			Component("coherence").
			Category(errors.CategoryDatabase).
			Build()
	}

	grouped := make(map[string][]scoring.WeightProfile)
	var order []string
	for i := range rows {
		p, err := profileFromEntity(&rows[i])
		if err != nil {
			return err
		}
		if _, seen := grouped[p.Name]; !seen {
			order = append(order, p.Name)
		}
		grouped[p.Name] = append(grouped[p.Name], p)
	}
	for _, name := range order {
		if err := registry.Restore(grouped[name]); err != nil {
			return err
		}
	}

	if _, ok := grouped[scoring.DefaultProfileName]; !ok {
		def, err := registry.GetProfile(scoring.DefaultProfileName)
		if err != nil {
			return err
		}
		if err := repo.SaveVersion(ctx, profileToEntity(def)); err != nil {
			return errors.New(err).
				Component("coherence").
				Category(errors.CategoryDatabase).
				Build()
		}
	}

	if len(order) > 0 {
		log.Info("restored weight profiles",
			logger.Int("profiles", len(order)),
			logger.Int("snapshots", len(rows)))
	}
	return nil
}

// persistSnapshot returns a change hook that saves each new snapshot.
// Failures are logged; the in-memory registry stays authoritative.
func persistSnapshot(repo repository.WeightProfileRepository, log logger.Logger) scoring.ChangeFunc {
	return func(p scoring.WeightProfile) {
		ctx, cancel := context.WithTimeout(context.Background(), saveProfileTimeout)
		defer cancel()
		if err := repo.SaveVersion(ctx, profileToEntity(p)); err != nil {
			log.Error("failed to persist weight profile",
				logger.String("profile", p.Name),
				logger.Int("version", p.Version),
				logger.Error(err))
			return
		}
		log.Debug("persisted weight profile",
			logger.String("profile", p.Name),
			logger.Int("version", p.Version))
	}
}

// seedProfiles applies configured profiles. A profile whose current weights
// and project type already match is left alone so restarts do not grow its
// history.
func seedProfiles(registry *scoring.Registry, profiles []conf.ProfileSettings, log logger.Logger) error {
	var created, updated int
	for i := range profiles {
		ps := &profiles[i]
		weights, err := ps.CategoryWeights()
		if err != nil {
			return err
		}
		name := ps.RegistryName()

		configured := scoring.WeightProfile{
			Name:        name,
			ProjectType: ps.ProjectType,
			Weights:     weights,
		}

		current, err := registry.GetProfile(name)
		if err != nil {
			if _, err := registry.CreateProfile(configured, ps.Normalize); err != nil {
				return err
			}
			created++
			continue
		}

		target := weights
		if ps.Normalize {
			if target, err = scoring.NormalizeWeights(weights); err != nil {
				return err
			}
		}
		if current.ProjectType == ps.ProjectType && sameWeights(current.Weights, target) {
			continue
		}
		// UpdateProfile keeps the stored project type; re-creating carries the
		// configured one into the new snapshot.
		if _, err := registry.CreateProfile(configured, ps.Normalize); err != nil {
			return err
		}
		updated++
	}

	if created > 0 || updated > 0 {
		log.Info("seeded weight profiles from configuration",
			logger.Int("created", created),
			logger.Int("updated", updated))
	}
	return nil
}

func sameWeights(a, b model.Weights) bool {
	if len(a) != len(b) {
		return false
	}
	for c, v := range a {
		w, ok := b[c]
		if !ok || math.Abs(v-w) > model.WeightTolerance {
			return false
		}
	}
	return true
}

func profileToEntity(p scoring.WeightProfile) *entities.WeightProfileVersion {
	weights := make(map[string]float64, len(p.Weights))
	for c, v := range p.Weights {
		weights[string(c)] = v
	}
	return &entities.WeightProfileVersion{
		ProfileName: p.Name,
		Version:     p.Version,
		ProjectType: p.ProjectType,
		Weights:     weights,
		SnapshotAt:  p.CreatedAt,
	}
}

func profileFromEntity(e *entities.WeightProfileVersion) (scoring.WeightProfile, error) {
	weights := make(model.Weights, len(e.Weights))
	for key, v := range e.Weights {
		c, err := model.ParseCategory(key)
		if err != nil {
			return scoring.WeightProfile{}, err
		}
		weights[c] = v
	}
	return scoring.WeightProfile{
		Name:        e.ProfileName,
		ProjectType: e.ProjectType,
		Weights:     weights,
		Version:     e.Version,
		CreatedAt:   e.SnapshotAt.UTC(),
	}, nil
}
