// Package conf loads engine settings from defaults, an optional YAML file and
// COHERENCE_* environment variables.
package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/contractiq/coherence/internal/antigaming"
	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/model"
	"github.com/contractiq/coherence/internal/scoring"
)

// EnvPrefix is prepended to every environment override, e.g.
// COHERENCE_LOG_LEVEL or COHERENCE_ANTIGAMING_REPEAT_WINDOW.
const EnvPrefix = "COHERENCE"

// LogSettings configures the logger.
type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// AntiGamingSettings mirrors antigaming.Config with configuration types.
type AntiGamingSettings struct {
	MassChangesThreshold  int      `mapstructure:"mass_changes_threshold" yaml:"mass_changes_threshold"`
	MassChangesWindow     Duration `mapstructure:"mass_changes_window" yaml:"mass_changes_window"`
	RepeatThreshold       int      `mapstructure:"repeat_threshold" yaml:"repeat_threshold"`
	RepeatWindow          Duration `mapstructure:"repeat_window" yaml:"repeat_window"`
	HighScoreThreshold    float64  `mapstructure:"high_score_threshold" yaml:"high_score_threshold"`
	FewDocsThreshold      int      `mapstructure:"few_docs_threshold" yaml:"few_docs_threshold"`
	WeightChangeThreshold float64  `mapstructure:"weight_change_threshold" yaml:"weight_change_threshold"`
	WeightWindow          Duration `mapstructure:"weight_window" yaml:"weight_window"`
	PenaltyPerViolation   int      `mapstructure:"penalty_per_violation" yaml:"penalty_per_violation"`
	TrackerMaxEvents      int      `mapstructure:"tracker_max_events" yaml:"tracker_max_events"`
}

// ProfileSettings is a weight override seeded into the registry at start-up.
// Weights are keyed by category name; TenantID, when set, names the profile
// after the tenant and Name is ignored.
type ProfileSettings struct {
	Name        string             `mapstructure:"name" yaml:"name"`
	ProjectType string             `mapstructure:"project_type" yaml:"project_type"`
	TenantID    string             `mapstructure:"tenant_id" yaml:"tenant_id"`
	Normalize   bool               `mapstructure:"normalize" yaml:"normalize"`
	Weights     map[string]float64 `mapstructure:"weights" yaml:"weights"`
}

// CacheSettings configures the evaluation result cache.
type CacheSettings struct {
	Enabled    bool     `mapstructure:"enabled" yaml:"enabled"`
	TTL        Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxEntries int      `mapstructure:"max_entries" yaml:"max_entries"`
}

// DatabaseSettings configures profile history persistence. An empty Path
// disables it.
type DatabaseSettings struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// BatchSettings configures batch evaluation. Zero concurrency means
// GOMAXPROCS.
type BatchSettings struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// ServerSettings configures the HTTP API started by "coherence serve".
type ServerSettings struct {
	Listen          string   `mapstructure:"listen" yaml:"listen"`
	ShutdownTimeout Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	BodyLimit       string   `mapstructure:"body_limit" yaml:"body_limit"`
}

// Settings is the complete engine configuration.
type Settings struct {
	Log          LogSettings        `mapstructure:"log" yaml:"log"`
	AntiGaming   AntiGamingSettings `mapstructure:"antigaming" yaml:"antigaming"`
	Profiles     []ProfileSettings  `mapstructure:"profiles" yaml:"profiles"`
	ProfilesFile string             `mapstructure:"profiles_file" yaml:"profiles_file"`
	Cache        CacheSettings      `mapstructure:"cache" yaml:"cache"`
	Database     DatabaseSettings   `mapstructure:"database" yaml:"database"`
	Batch        BatchSettings      `mapstructure:"batch" yaml:"batch"`
	Server       ServerSettings     `mapstructure:"server" yaml:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("antigaming.mass_changes_threshold", antigaming.DefaultMassChangesThreshold)
	v.SetDefault("antigaming.mass_changes_window", antigaming.DefaultMassChangesWindow.String())
	v.SetDefault("antigaming.repeat_threshold", antigaming.DefaultRepeatThreshold)
	v.SetDefault("antigaming.repeat_window", antigaming.DefaultRepeatWindow.String())
	v.SetDefault("antigaming.high_score_threshold", antigaming.DefaultHighScoreThreshold)
	v.SetDefault("antigaming.few_docs_threshold", antigaming.DefaultFewDocsThreshold)
	v.SetDefault("antigaming.weight_change_threshold", antigaming.DefaultWeightChangeThreshold)
	v.SetDefault("antigaming.weight_window", antigaming.DefaultWeightWindow.String())
	v.SetDefault("antigaming.penalty_per_violation", antigaming.DefaultPenaltyPerViolation)
	v.SetDefault("antigaming.tracker_max_events", antigaming.DefaultTrackerMaxEvents)

	v.SetDefault("profiles_file", "")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 1000)

	v.SetDefault("database.path", "")
	v.SetDefault("batch.concurrency", 0)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.body_limit", "2M")
}

// Load reads settings from path (optional) layered over defaults and
// environment variables. When profiles_file is set, its profiles are
// appended after the inline ones.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Newf("failed to read config file %s: %w", path, err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("path", path).
				Build()
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, errors.Newf("failed to decode settings: %w", err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.ProfilesFile != "" {
		extra, err := LoadProfilesFile(settings.ProfilesFile)
		if err != nil {
			return nil, err
		}
		settings.Profiles = append(settings.Profiles, extra...)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// profilesDocument is the layout of a standalone profiles file.
type profilesDocument struct {
	Profiles []ProfileSettings `yaml:"profiles"`
}

// LoadProfilesFile reads a YAML document with a top-level profiles list.
func LoadProfilesFile(path string) ([]ProfileSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Newf("failed to read profiles file %s: %w", path, err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("path", path).
			Build()
	}

	var doc profilesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Newf("failed to parse profiles file %s: %w", path, err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("path", path).
			Build()
	}
	return doc.Profiles, nil
}

// Validate checks values that would otherwise fail far from their source.
func (s *Settings) Validate() error {
	ag := s.AntiGaming
	switch {
	case ag.MassChangesWindow < 0, ag.RepeatWindow < 0, ag.WeightWindow < 0:
		return configError("antigaming windows must not be negative")
	case ag.PenaltyPerViolation < 0:
		return configError("antigaming.penalty_per_violation must not be negative")
	case s.Cache.MaxEntries < 0:
		return configError("cache.max_entries must not be negative")
	case s.Batch.Concurrency < 0:
		return configError("batch.concurrency must not be negative")
	case s.Server.ShutdownTimeout < 0:
		return configError("server.shutdown_timeout must not be negative")
	}

	for i := range s.Profiles {
		if _, err := s.Profiles[i].CategoryWeights(); err != nil {
			return err
		}
		if s.Profiles[i].RegistryName() == "" {
			return configError(fmt.Sprintf("profiles[%d] needs a name or tenant_id", i))
		}
	}
	return nil
}

// AntiGamingConfig converts the settings to detector thresholds.
func (s *Settings) AntiGamingConfig() antigaming.Config {
	ag := s.AntiGaming
	return antigaming.Config{
		MassChangesThreshold:  ag.MassChangesThreshold,
		MassChangesWindow:     ag.MassChangesWindow.Std(),
		RepeatThreshold:       ag.RepeatThreshold,
		RepeatWindow:          ag.RepeatWindow.Std(),
		HighScoreThreshold:    ag.HighScoreThreshold,
		FewDocsThreshold:      ag.FewDocsThreshold,
		WeightChangeThreshold: ag.WeightChangeThreshold,
		WeightWindow:          ag.WeightWindow.Std(),
		PenaltyPerViolation:   ag.PenaltyPerViolation,
	}
}

// RegistryName is the name the profile is stored under.
func (p *ProfileSettings) RegistryName() string {
	if p.TenantID != "" {
		return scoring.TenantProfileName(p.TenantID)
	}
	return strings.TrimSpace(p.Name)
}

// CategoryWeights parses the weight keys into categories. Keys are matched
// case-insensitively since viper lowercases map keys.
func (p *ProfileSettings) CategoryWeights() (model.Weights, error) {
	weights := make(model.Weights, len(p.Weights))
	for key, value := range p.Weights {
		cat, err := model.ParseCategory(key)
		if err != nil {
			return nil, errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("profile", p.RegistryName()).
				Build()
		}
		weights[cat] = value
	}
	return weights, nil
}

func configError(msg string) error {
	return errors.Newf("invalid configuration: %s", msg).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Build()
}
