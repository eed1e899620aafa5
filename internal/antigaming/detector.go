package antigaming

import "time"

// Inputs are the optional values a detection run can use besides the events.
// A nil Score or DocumentCount disables the suspicious_high_score check; a nil
// Now makes the latest event timestamp the reference time.
type Inputs struct {
	Score         *float64
	DocumentCount *int
	Now           *time.Time
}

// Detector runs the four gaming checks. It holds no state and is safe for
// concurrent use.
type Detector struct {
	config Config
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(config Config) *Detector {
	return &Detector{config: config}
}

// Config returns the detector thresholds.
func (d *Detector) Config() Config {
	return d.config
}

// Detect inspects events and reports which manipulation patterns occurred.
// Events need not be sorted. All timestamps are compared in UTC and every
// window is inclusive at both ends.
func (d *Detector) Detect(events []AlertEvent, in Inputs) GamingVerdict {
	ref := referenceTime(events, in.Now)

	var violations []string
	if d.massChanges(events, ref) {
		violations = append(violations, ViolationMassChanges)
	}
	if d.resolveReintroduce(events, ref) {
		violations = append(violations, ViolationResolveReintroduce)
	}
	if d.suspiciousHighScore(in.Score, in.DocumentCount) {
		violations = append(violations, ViolationSuspiciousHighScore)
	}
	if d.weightManipulation(events, ref) {
		violations = append(violations, ViolationWeightManipulation)
	}
	return newVerdict(violations, d.config.PenaltyPerViolation)
}

func referenceTime(events []AlertEvent, now *time.Time) time.Time {
	if now != nil {
		return now.UTC()
	}
	var latest time.Time
	for i := range events {
		if ts := events[i].Timestamp.UTC(); ts.After(latest) {
			latest = ts
		}
	}
	return latest
}

func (d *Detector) massChanges(events []AlertEvent, ref time.Time) bool {
	from := ref.Add(-d.config.MassChangesWindow)
	count := 0
	for i := range events {
		if events[i].Type.IsValid() && events[i].within(from, ref) {
			count++
		}
	}
	return count > d.config.MassChangesThreshold
}

func (d *Detector) resolveReintroduce(events []AlertEvent, ref time.Time) bool {
	type churn struct{ created, resolved int }

	from := ref.Add(-d.config.RepeatWindow)
	bySignature := make(map[string]*churn)
	for i := range events {
		e := &events[i]
		if !e.within(from, ref) {
			continue
		}
		c := bySignature[e.Signature]
		if c == nil {
			c = &churn{}
			bySignature[e.Signature] = c
		}
		switch e.Type {
		case EventCreated:
			c.created++
		case EventResolved:
			c.resolved++
		}
	}

	for _, c := range bySignature {
		if c.created >= d.config.RepeatThreshold && c.resolved >= d.config.RepeatThreshold-1 {
			return true
		}
	}
	return false
}

func (d *Detector) suspiciousHighScore(score *float64, documentCount *int) bool {
	if score == nil || documentCount == nil {
		return false
	}
	return *score >= d.config.HighScoreThreshold && *documentCount <= d.config.FewDocsThreshold
}

func (d *Detector) weightManipulation(events []AlertEvent, ref time.Time) bool {
	from := ref.Add(-d.config.WeightWindow)
	for i := range events {
		e := &events[i]
		if e.WeightChangePercent != nil && *e.WeightChangePercent > d.config.WeightChangeThreshold && e.within(from, ref) {
			return true
		}
	}
	return false
}
