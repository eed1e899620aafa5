// Package scoring holds the weight profile registry and the two score
// calculators: penalty-based category subscores and the weighted global score.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/model"
)

// DefaultProfileName is the profile that always exists in a registry.
const DefaultProfileName = "default"

// tenantProfilePrefix namespaces tenant-scoped profiles.
const tenantProfilePrefix = "tenant:"

var (
	ErrProfileNotFound         = errors.NewStd("profile not found")
	ErrNormalizationImpossible = errors.NewStd("weights cannot be normalized")
	ErrInvalidProfile          = errors.NewStd("invalid profile")
)

// WeightProfile is a named distribution of importance over categories.
type WeightProfile struct {
	Name        string        `json:"name"`
	ProjectType string        `json:"project_type,omitempty"`
	Weights     model.Weights `json:"weights"`
	Version     int           `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Clone returns a deep copy.
func (p WeightProfile) Clone() WeightProfile {
	p.Weights = p.Weights.Clone()
	return p
}

// TenantProfileName returns the registry name of a tenant-scoped profile.
func TenantProfileName(tenantID string) string {
	return tenantProfilePrefix + tenantID
}

// Profile kinds, a bounded classification of profile names for metrics.
const (
	ProfileKindDefault = "default"
	ProfileKindTenant  = "tenant"
	ProfileKindNamed   = "named"
)

// ProfileKind classifies a profile name as default, tenant-scoped or named.
func ProfileKind(name string) string {
	switch {
	case name == DefaultProfileName:
		return ProfileKindDefault
	case strings.HasPrefix(name, tenantProfilePrefix):
		return ProfileKindTenant
	default:
		return ProfileKindNamed
	}
}

// NormalizeWeights completes and rescales partial weights so they validate.
//
// Missing categories share the remaining budget 1 - sum(given) equally; this
// fails when the given weights already exceed 1.0. When every category is
// present but the sum is off, weights are rescaled proportionally, or split
// evenly when the sum is not positive.
func NormalizeWeights(weights model.Weights) (model.Weights, error) {
	out := weights.Clone()
	if out == nil {
		out = model.Weights{}
	}

	for c := range out {
		if !c.IsValid() {
			// Validate reports unknown categories with full detail.
			return nil, model.Validate(out)
		}
	}

	if missing := model.MissingCategories(out); len(missing) > 0 {
		given := out.Sum()
		if given > 1.0+model.WeightTolerance {
			return nil, errors.Newf("%w: given weights sum to %.6g, leaving nothing for %d missing categories",
				ErrNormalizationImpossible, given, len(missing)).
				Component("scoring").
				Category(errors.CategoryValidation).
				Context("weight_sum", given).
				Context("missing_count", len(missing)).
				Build()
		}
		share := math.Max(0, 1.0-given) / float64(len(missing))
		for _, c := range missing {
			out[c] = share
		}
	} else if sum := out.Sum(); math.Abs(sum-1.0) > model.WeightTolerance {
		if sum <= 0 {
			even := 1.0 / float64(len(model.Categories()))
			for _, c := range model.Categories() {
				out[c] = even
			}
		} else {
			for c, v := range out {
				out[c] = v / sum
			}
		}
	}

	if err := model.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
