package scoring

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/model"
)

// ChangeFunc is called for every new profile snapshot, after the registry
// lock has been released.
type ChangeFunc func(snapshot WeightProfile)

// Registry stores weight profiles and their append-only version history.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	profiles map[string]WeightProfile
	history  map[string][]WeightProfile
	order    []string // creation order, for deterministic project type lookup

	onChange []ChangeFunc
	now      func() time.Time
}

// NewRegistry creates a registry holding only the default profile.
func NewRegistry() *Registry {
	r := &Registry{
		profiles: make(map[string]WeightProfile),
		history:  make(map[string][]WeightProfile),
		now:      time.Now,
	}
	r.storeLocked(WeightProfile{Name: DefaultProfileName, Weights: model.DefaultWeights()})
	return r
}

// OnChange registers fn to observe every new snapshot.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// CreateProfile stores profile under its name, appending a snapshot to the
// name's history. With normalize=false the weights must already validate and
// are stored verbatim.
func (r *Registry) CreateProfile(profile WeightProfile, normalize bool) (WeightProfile, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return WeightProfile{}, errors.Newf("%w: profile name is required", ErrInvalidProfile).
			Component("scoring").
			Category(errors.CategoryValidation).
			Build()
	}

	weights, err := prepareWeights(profile.Weights, normalize)
	if err != nil {
		return WeightProfile{}, err
	}

	r.mu.Lock()
	snapshot := r.storeLocked(WeightProfile{
		Name:        name,
		ProjectType: profile.ProjectType,
		Weights:     weights,
	})
	hooks := slices.Clone(r.onChange)
	r.mu.Unlock()

	r.notify(hooks, snapshot)
	return snapshot.Clone(), nil
}

// UpdateProfile re-creates an existing profile with new weights, keeping its
// project type. Earlier history entries are untouched.
func (r *Registry) UpdateProfile(name string, weights model.Weights, normalize bool) (WeightProfile, error) {
	prepared, err := prepareWeights(weights, normalize)
	if err != nil {
		return WeightProfile{}, err
	}

	r.mu.Lock()
	current, ok := r.profiles[name]
	if !ok {
		r.mu.Unlock()
		return WeightProfile{}, profileNotFound(name)
	}
	snapshot := r.storeLocked(WeightProfile{
		Name:        name,
		ProjectType: current.ProjectType,
		Weights:     prepared,
	})
	hooks := slices.Clone(r.onChange)
	r.mu.Unlock()

	r.notify(hooks, snapshot)
	return snapshot.Clone(), nil
}

// GetProfile returns a copy of the current profile called name.
func (r *Registry) GetProfile(name string) (WeightProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[name]
	if !ok {
		return WeightProfile{}, profileNotFound(name)
	}
	return p.Clone(), nil
}

// GetByProjectType returns the first profile, in creation order, whose
// project type matches, falling back to the default profile.
func (r *Registry) GetByProjectType(projectType string) WeightProfile {
	r.mu.Lock()
	defer r.mu.Unlock()

	if projectType != "" {
		for _, name := range r.order {
			if p := r.profiles[name]; p.ProjectType == projectType {
				return p.Clone()
			}
		}
	}
	return r.profiles[DefaultProfileName].Clone()
}

// Resolve picks the profile for a tenant and project type: the tenant's own
// profile when registered, else the project type match, else the default.
func (r *Registry) Resolve(tenantID, projectType string) WeightProfile {
	if tenantID != "" {
		if p, err := r.GetProfile(TenantProfileName(tenantID)); err == nil {
			return p
		}
	}
	return r.GetByProjectType(projectType)
}

// GetHistory returns every snapshot of name in chronological order. Unknown
// names yield an empty slice.
func (r *Registry) GetHistory(name string) []WeightProfile {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.history[name]
	out := make([]WeightProfile, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	return out
}

// Names returns the registered profile names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := slices.Clone(r.order)
	slices.Sort(names)
	return names
}

// Restore replays persisted snapshots of one profile into the registry,
// replacing whatever history the name had. Snapshots must be in
// chronological order and each must validate. Change hooks are not called.
func (r *Registry) Restore(snapshots []WeightProfile) error {
	if len(snapshots) == 0 {
		return nil
	}
	name := snapshots[0].Name
	restored := make([]WeightProfile, len(snapshots))
	for i, s := range snapshots {
		if s.Name != name {
			return errors.Newf("%w: restore mixes profiles %q and %q", ErrInvalidProfile, name, s.Name).
				Component("scoring").
				Category(errors.CategoryValidation).
				Build()
		}
		if err := model.Validate(s.Weights); err != nil {
			return err
		}
		restored[i] = s.Clone()
		restored[i].Version = i + 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[name]; !exists {
		r.order = append(r.order, name)
	}
	r.history[name] = restored
	r.profiles[name] = restored[len(restored)-1].Clone()
	return nil
}

// storeLocked appends a snapshot to history and makes it current. Callers
// hold r.mu.
func (r *Registry) storeLocked(p WeightProfile) WeightProfile {
	if _, exists := r.profiles[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	p.Version = len(r.history[p.Name]) + 1
	p.CreatedAt = r.now().UTC()
	p.Weights = p.Weights.Clone()

	r.history[p.Name] = append(r.history[p.Name], p.Clone())
	r.profiles[p.Name] = p
	return p
}

func (r *Registry) notify(hooks []ChangeFunc, snapshot WeightProfile) {
	for _, fn := range hooks {
		fn(snapshot.Clone())
	}
}

func prepareWeights(weights model.Weights, normalize bool) (model.Weights, error) {
	if normalize {
		return NormalizeWeights(weights)
	}
	if err := model.Validate(weights); err != nil {
		return nil, err
	}
	return weights.Clone(), nil
}

func profileNotFound(name string) error {
	return errors.Newf("%w: %q", ErrProfileNotFound, name).
		Component("scoring").
		Category(errors.CategoryNotFound).
		Context("profile", name).
		Build()
}
