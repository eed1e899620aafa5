package scoring

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/model"
)

func TestNewRegistry_HasDefault(t *testing.T) {
	r := NewRegistry()

	p, err := r.GetProfile(DefaultProfileName)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), p.Weights)
	assert.Equal(t, 1, p.Version)
	assert.Len(t, r.GetHistory(DefaultProfileName), 1)
}

func TestCreateProfile_VerbatimRequiresValidWeights(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreateProfile(WeightProfile{
		Name:    "partial",
		Weights: model.Weights{model.CategoryScope: 0.5},
	}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMissingCategories))
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = r.GetProfile("partial")
	assert.True(t, errors.Is(err, ErrProfileNotFound), "failed create must not store anything")

	w := model.DefaultWeights()
	p, err := r.CreateProfile(WeightProfile{Name: "verbatim", ProjectType: "civil", Weights: w}, false)
	require.NoError(t, err)
	assert.Equal(t, w, p.Weights)
	assert.Equal(t, "civil", p.ProjectType)
}

func TestCreateProfile_NormalizeScalesAllCategories(t *testing.T) {
	r := NewRegistry()
	half := model.Weights{}
	for _, c := range model.Categories() {
		half[c] = 0.5 / 6
	}
	half[model.CategoryScope] += 0.05
	half[model.CategoryTime] -= 0.05

	p, err := r.CreateProfile(WeightProfile{Name: "halved", Weights: half}, true)
	require.NoError(t, err)
	require.NoError(t, model.Validate(p.Weights))
	for c, v := range half {
		assert.InDelta(t, v*2, p.Weights[c], 1e-12, "category %s should double", c)
	}
	assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-9)
}

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name    string
		in      model.Weights
		want    model.Weights
		wantErr error
	}{
		{
			name: "missing share remaining budget",
			in:   model.Weights{model.CategoryScope: 0.4, model.CategoryBudget: 0.2},
			want: model.Weights{
				model.CategoryScope: 0.4, model.CategoryBudget: 0.2,
				model.CategoryQuality: 0.1, model.CategoryTechnical: 0.1,
				model.CategoryLegal: 0.1, model.CategoryTime: 0.1,
			},
		},
		{
			name: "empty map splits evenly",
			in:   model.Weights{},
			want: evenWeights(),
		},
		{
			name: "all present zero sum splits evenly",
			in: model.Weights{
				model.CategoryScope: 0, model.CategoryBudget: 0, model.CategoryQuality: 0,
				model.CategoryTechnical: 0, model.CategoryLegal: 0, model.CategoryTime: 0,
			},
			want: evenWeights(),
		},
		{
			name: "given exactly one leaves zero for missing",
			in:   model.Weights{model.CategoryScope: 0.5, model.CategoryBudget: 0.5},
			want: model.Weights{
				model.CategoryScope: 0.5, model.CategoryBudget: 0.5,
				model.CategoryQuality: 0, model.CategoryTechnical: 0,
				model.CategoryLegal: 0, model.CategoryTime: 0,
			},
		},
		{
			name:    "given above one is impossible",
			in:      model.Weights{model.CategoryScope: 0.8, model.CategoryBudget: 0.4},
			wantErr: ErrNormalizationImpossible,
		},
		{
			name:    "unknown category",
			in:      model.Weights{"MARKETING": 0.2},
			wantErr: model.ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeWeights(tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, model.Validate(got))
			for c, v := range tt.want {
				assert.InDelta(t, v, got[c], 1e-12, "category %s", c)
			}
		})
	}
}

func TestCreateProfile_RejectsNonFiniteWeights(t *testing.T) {
	r := NewRegistry()

	verbatim := model.DefaultWeights()
	verbatim[model.CategoryBudget] = math.NaN()
	_, err := r.CreateProfile(WeightProfile{Name: "nan", Weights: verbatim}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrWeightsNotNormalized))

	_, err = r.CreateProfile(WeightProfile{
		Name:    "inf",
		Weights: model.Weights{model.CategoryScope: math.Inf(1)},
	}, true)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	assert.Equal(t, []string{DefaultProfileName}, r.Names())
}

func TestNormalizeWeights_DoesNotMutateInput(t *testing.T) {
	in := model.Weights{model.CategoryScope: 0.3}
	_, err := NormalizeWeights(in)
	require.NoError(t, err)
	assert.Len(t, in, 1)
}

func TestNormalizedPartialProfilesAlwaysValidate(t *testing.T) {
	r := NewRegistry()
	cats := model.Categories()

	// Every non-empty subset of categories with weights summing below one.
	for mask := 1; mask < 1<<len(cats); mask++ {
		w := model.Weights{}
		for i, c := range cats {
			if mask&(1<<i) != 0 {
				w[c] = 0.9 / float64(len(cats))
			}
		}
		p, err := r.CreateProfile(WeightProfile{Name: fmt.Sprintf("subset-%d", mask), Weights: w}, true)
		require.NoError(t, err, "mask %b", mask)
		assert.NoError(t, model.Validate(p.Weights), "mask %b", mask)
	}
}

func TestUpdateProfile_AppendsHistory(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateProfile(WeightProfile{Name: "infra", ProjectType: "infrastructure", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)

	updated, err := r.UpdateProfile("infra", model.Weights{model.CategoryBudget: 0.5}, true)
	require.NoError(t, err)
	assert.Equal(t, "infrastructure", updated.ProjectType, "update keeps project type")
	assert.Equal(t, 2, updated.Version)
	assert.InDelta(t, 0.5, updated.Weights[model.CategoryBudget], 1e-12)

	history := r.GetHistory("infra")
	require.Len(t, history, 2)
	assert.Equal(t, model.DefaultWeights(), history[0].Weights, "earlier snapshot untouched")
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, updated.Weights, history[1].Weights)

	_, err = r.UpdateProfile("missing", model.DefaultWeights(), false)
	assert.True(t, errors.Is(err, ErrProfileNotFound))
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestRegistry_DefensiveCopies(t *testing.T) {
	r := NewRegistry()

	p, err := r.GetProfile(DefaultProfileName)
	require.NoError(t, err)
	p.Weights[model.CategoryScope] = 0.99
	delete(p.Weights, model.CategoryLegal)

	again, err := r.GetProfile(DefaultProfileName)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), again.Weights)

	history := r.GetHistory(DefaultProfileName)
	history[0].Weights[model.CategoryTime] = 0
	assert.InDelta(t, 0.15, r.GetHistory(DefaultProfileName)[0].Weights[model.CategoryTime], 1e-12)

	input := model.DefaultWeights()
	_, err = r.CreateProfile(WeightProfile{Name: "copy", Weights: input}, false)
	require.NoError(t, err)
	input[model.CategoryScope] = 0.7
	stored, err := r.GetProfile("copy")
	require.NoError(t, err)
	assert.InDelta(t, 0.20, stored.Weights[model.CategoryScope], 1e-12)
}

func TestGetByProjectType(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateProfile(WeightProfile{Name: "b-first", ProjectType: "building", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)
	_, err = r.CreateProfile(WeightProfile{Name: "a-second", ProjectType: "building", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)

	assert.Equal(t, "b-first", r.GetByProjectType("building").Name, "first created wins")
	assert.Equal(t, DefaultProfileName, r.GetByProjectType("railway").Name)
	assert.Equal(t, DefaultProfileName, r.GetByProjectType("").Name)
}

func TestResolve_TenantThenProjectType(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateProfile(WeightProfile{Name: "civil", ProjectType: "civil", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)
	_, err = r.CreateProfile(WeightProfile{Name: TenantProfileName("acme"), Weights: model.Weights{model.CategoryLegal: 0.4}}, true)
	require.NoError(t, err)

	assert.Equal(t, "tenant:acme", r.Resolve("acme", "civil").Name)
	assert.Equal(t, "civil", r.Resolve("other", "civil").Name)
	assert.Equal(t, DefaultProfileName, r.Resolve("", "unknown").Name)
}

func TestHistoryAndNames(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r.GetHistory("nope"))
	assert.Empty(t, r.GetHistory("nope"))

	_, err := r.CreateProfile(WeightProfile{Name: "zeta", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)
	_, err = r.CreateProfile(WeightProfile{Name: "alpha", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", DefaultProfileName, "zeta"}, r.Names())

	_, err = r.CreateProfile(WeightProfile{Name: "  ", Weights: model.DefaultWeights()}, false)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestOnChange_CalledOutsideLock(t *testing.T) {
	r := NewRegistry()
	var seen []WeightProfile
	r.OnChange(func(s WeightProfile) {
		// Re-entering the registry would deadlock if the hook ran under the lock.
		_, err := r.GetProfile(s.Name)
		assert.NoError(t, err)
		seen = append(seen, s)
	})

	_, err := r.CreateProfile(WeightProfile{Name: "hooked", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)
	_, err = r.UpdateProfile("hooked", model.Weights{}, true)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Version)
	assert.Equal(t, 2, seen[1].Version)
}

func TestRestore(t *testing.T) {
	r := NewRegistry()
	var hooked int
	r.OnChange(func(WeightProfile) { hooked++ })

	snapshots := []WeightProfile{
		{Name: "restored", ProjectType: "energy", Weights: model.DefaultWeights()},
		{Name: "restored", ProjectType: "energy", Weights: evenWeights()},
	}
	require.NoError(t, r.Restore(snapshots))
	assert.Zero(t, hooked)

	p, err := r.GetProfile("restored")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, "energy", r.GetByProjectType("energy").Name)
	assert.Len(t, r.GetHistory("restored"), 2)

	next, err := r.UpdateProfile("restored", model.DefaultWeights(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, next.Version)

	err = r.Restore([]WeightProfile{{Name: "bad", Weights: model.Weights{model.CategoryScope: 1}}})
	assert.True(t, errors.Is(err, model.ErrMissingCategories))

	err = r.Restore([]WeightProfile{
		{Name: "x", Weights: model.DefaultWeights()},
		{Name: "y", Weights: model.DefaultWeights()},
	})
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestRegistry_ConcurrentReadsAndWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry()
	_, err := r.CreateProfile(WeightProfile{Name: "shared", ProjectType: "mixed", Weights: model.DefaultWeights()}, false)
	require.NoError(t, err)

	const workers = 8
	const iterations = 50
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range iterations {
				weights := model.Weights{model.CategoryScope: float64(i%5) / 10}
				_, err := r.UpdateProfile("shared", weights, true)
				assert.NoError(t, err)
				_, err = r.CreateProfile(WeightProfile{Name: fmt.Sprintf("w%d", w), Weights: model.DefaultWeights()}, false)
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				p, err := r.GetProfile("shared")
				assert.NoError(t, err)
				assert.NoError(t, model.Validate(p.Weights))
				_ = r.GetByProjectType("mixed")
				_ = r.GetHistory("shared")
			}
		}()
	}
	wg.Wait()

	history := r.GetHistory("shared")
	assert.Len(t, history, 1+workers*iterations)
	for i, s := range history {
		assert.Equal(t, i+1, s.Version)
	}
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	first := DefaultRegistry()
	assert.Same(t, first, DefaultRegistry())

	replacement := NewRegistry()
	SetDefaultRegistry(replacement)
	t.Cleanup(func() { SetDefaultRegistry(first) })
	assert.Same(t, replacement, DefaultRegistry())
}

func evenWeights() model.Weights {
	w := model.Weights{}
	for _, c := range model.Categories() {
		w[c] = 1.0 / 6
	}
	return w
}

func TestProfileKind(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{DefaultProfileName, ProfileKindDefault},
		{TenantProfileName("acme"), ProfileKindTenant},
		{"infrastructure", ProfileKindNamed},
		{"tenantless", ProfileKindNamed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileKind(tt.name))
		})
	}
}
