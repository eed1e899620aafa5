package antigaming

import "time"

// Default detector thresholds.
const (
	DefaultMassChangesThreshold  = 10
	DefaultMassChangesWindow     = 60 * time.Minute
	DefaultRepeatThreshold       = 3
	DefaultRepeatWindow          = 5 * time.Minute
	DefaultHighScoreThreshold    = 90.0
	DefaultFewDocsThreshold      = 5
	DefaultWeightChangeThreshold = 20.0
	DefaultWeightWindow          = 24 * time.Hour
	DefaultPenaltyPerViolation   = 5
)

// Config holds the detector thresholds and windows.
type Config struct {
	// MassChangesThreshold is the number of events in MassChangesWindow that
	// must be exceeded to flag mass_changes.
	MassChangesThreshold int
	MassChangesWindow    time.Duration

	// RepeatThreshold is the number of creations of one signature within
	// RepeatWindow that, together with RepeatThreshold-1 resolutions, flags
	// resolve_reintroduce.
	RepeatThreshold int
	RepeatWindow    time.Duration

	HighScoreThreshold float64
	FewDocsThreshold   int

	// WeightChangeThreshold is a percentage.
	WeightChangeThreshold float64
	WeightWindow          time.Duration

	PenaltyPerViolation int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		MassChangesThreshold:  DefaultMassChangesThreshold,
		MassChangesWindow:     DefaultMassChangesWindow,
		RepeatThreshold:       DefaultRepeatThreshold,
		RepeatWindow:          DefaultRepeatWindow,
		HighScoreThreshold:    DefaultHighScoreThreshold,
		FewDocsThreshold:      DefaultFewDocsThreshold,
		WeightChangeThreshold: DefaultWeightChangeThreshold,
		WeightWindow:          DefaultWeightWindow,
		PenaltyPerViolation:   DefaultPenaltyPerViolation,
	}
}

// LongestWindow returns the widest time window any check looks at.
func (c Config) LongestWindow() time.Duration {
	return max(c.MassChangesWindow, c.RepeatWindow, c.WeightWindow)
}
