// Package coherence evaluates projects end to end: it resolves the weight
// profile for a tenant, runs every rule set, combines the category scores into
// the global score and checks the project's recent activity for gaming.
package coherence

import (
	"context"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contractiq/coherence/internal/antigaming"
	"github.com/contractiq/coherence/internal/datastore/entities"
	"github.com/contractiq/coherence/internal/datastore/repository"
	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/logger"
	"github.com/contractiq/coherence/internal/metrics"
	"github.com/contractiq/coherence/internal/model"
	"github.com/contractiq/coherence/internal/rules"
	"github.com/contractiq/coherence/internal/scoring"
)

const (
	// saveAuditTimeout is the context deadline for persisting a gaming audit record.
	saveAuditTimeout = 3 * time.Second
)

// ProjectFacts are the structured inputs of one project evaluation. Nil rule
// contexts skip their rule set. When Events is nil the events recorded for
// the project through RecordEvent are used instead.
type ProjectFacts struct {
	ProjectID     uuid.UUID               `json:"project_id"`
	TenantID      string                  `json:"tenant_id,omitempty"`
	ProjectType   string                  `json:"project_type,omitempty"`
	Legal         *rules.LegalContext     `json:"legal,omitempty"`
	Quality       *rules.QualityContext   `json:"quality,omitempty"`
	Coherence     *rules.CoherenceContext `json:"coherence,omitempty"`
	Events        []antigaming.AlertEvent `json:"events,omitempty"`
	DocumentCount *int                    `json:"document_count,omitempty"`
	EvaluatedAt   *time.Time              `json:"evaluated_at,omitempty"`
}

// ProjectReport is the outcome of evaluating one project.
type ProjectReport struct {
	ProjectID      uuid.UUID                `json:"project_id"`
	TenantID       string                   `json:"tenant_id,omitempty"`
	ProfileName    string                   `json:"profile_name"`
	ProfileVersion int                      `json:"profile_version"`
	CategoryScores model.CategoryScores     `json:"category_scores"`
	Violations     model.Violations         `json:"violations"`
	Alerts         []model.Alert            `json:"alerts"`
	GlobalScore    int                      `json:"global_score"`
	Verdict        antigaming.GamingVerdict `json:"gaming_verdict"`
	AdjustedScore  int                      `json:"adjusted_score"`
	Cached         bool                     `json:"cached"`
}

// Clone returns a deep copy.
func (r *ProjectReport) Clone() *ProjectReport {
	out := *r
	out.CategoryScores = r.CategoryScores.Clone()
	out.Violations = r.Violations.Clone()
	out.Alerts = make([]model.Alert, len(r.Alerts))
	for i := range r.Alerts {
		out.Alerts[i] = r.Alerts[i].Clone()
	}
	out.Verdict.Violations = slices.Clone(r.Verdict.Violations)
	out.Verdict.AuditLogs = slices.Clone(r.Verdict.AuditLogs)
	return &out
}

// Options configures a Service. Registry, Detector and Logger default to a
// fresh registry, the default thresholds and a no-op logger; every other
// field is optional.
type Options struct {
	Registry         *scoring.Registry
	Detector         *antigaming.Detector
	Tracker          *antigaming.Tracker
	Cache            *scoring.ResultCache
	Metrics          *metrics.CoherenceMetrics
	Audit            repository.WeightProfileRepository
	Logger           logger.Logger
	BatchConcurrency int
}

// Service wires the rule sets, calculators and detector together.
// It is safe for concurrent use.
type Service struct {
	registry    *scoring.Registry
	legal       *rules.RuleSet[*rules.LegalContext]
	quality     *rules.RuleSet[*rules.QualityContext]
	engine      *rules.CoherenceEngine
	subscores   *scoring.SubscoreCalculator
	calculator  *scoring.ScoreCalculator
	detector    *antigaming.Detector
	tracker     *antigaming.Tracker
	cache       *scoring.ResultCache
	metrics     *metrics.CoherenceMetrics
	audit       repository.WeightProfileRepository
	log         logger.Logger
	concurrency int
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	s := &Service{
		registry:    opts.Registry,
		legal:       rules.NewLegalRules(),
		quality:     rules.NewQualityRules(),
		engine:      rules.NewCoherenceEngine(),
		subscores:   scoring.NewSubscoreCalculator(nil),
		calculator:  scoring.NewScoreCalculator(nil),
		detector:    opts.Detector,
		tracker:     opts.Tracker,
		cache:       opts.Cache,
		metrics:     opts.Metrics,
		audit:       opts.Audit,
		log:         opts.Logger,
		concurrency: opts.BatchConcurrency,
	}
	if s.registry == nil {
		s.registry = scoring.NewRegistry()
	}
	if s.detector == nil {
		s.detector = antigaming.NewDetector(antigaming.DefaultConfig())
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.concurrency <= 0 {
		s.concurrency = runtime.GOMAXPROCS(0)
	}
	return s
}

// Registry returns the profile registry used by the service.
func (s *Service) Registry() *scoring.Registry {
	return s.registry
}

// Detector returns the anti-gaming detector used by the service.
func (s *Service) Detector() *antigaming.Detector {
	return s.detector
}

// RecordEvent buffers an event for the project so later evaluations without
// explicit events can run gaming detection over it. It is a no-op without a
// tracker.
func (s *Service) RecordEvent(projectID uuid.UUID, event antigaming.AlertEvent) {
	if s.tracker == nil {
		return
	}
	s.tracker.Record(projectID.String(), event)
}

// cacheInput is what a cached report depends on besides the profile.
type cacheInput struct {
	Facts  ProjectFacts            `json:"facts"`
	Events []antigaming.AlertEvent `json:"events"`
}

// Evaluate scores one project.
func (s *Service) Evaluate(ctx context.Context, facts ProjectFacts) (*ProjectReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile := s.registry.Resolve(facts.TenantID, facts.ProjectType)
	events := s.eventsFor(&facts)

	var key string
	if s.cache != nil {
		input := cacheInput{Facts: facts, Events: events}
		input.Facts.Events = nil
		k, err := scoring.CacheKey(profile, input)
		if err != nil {
			s.log.Warn("failed to derive cache key, evaluating without cache",
				logger.String("project_id", facts.ProjectID.String()),
				logger.Error(err))
		} else {
			key = k
			cached, ok := s.cache.Get(key)
			s.recordCacheLookup(ok)
			if ok {
				report := cached.(*ProjectReport).Clone()
				report.Cached = true
				return report, nil
			}
		}
	}

	report, err := s.evaluate(&facts, profile, events)
	if err != nil {
		s.recordError(err)
		s.log.Error("project evaluation failed",
			logger.String("project_id", facts.ProjectID.String()),
			logger.String("profile", profile.Name),
			logger.Error(err))
		return nil, err
	}

	s.observe(report)
	if report.Verdict.IsGaming {
		s.saveAudit(&facts, report)
	}

	if key != "" {
		if evicted := s.cache.Set(key, report.Clone()); evicted > 0 {
			s.log.Debug("evicted cached reports", logger.Int("count", evicted))
			if s.metrics != nil {
				s.metrics.RecordCacheEvictions(evicted)
			}
		}
	}
	return report, nil
}

// EvaluateBatch scores projects concurrently and returns the reports in
// input order. The first failure cancels the remaining evaluations.
func (s *Service) EvaluateBatch(ctx context.Context, batch []ProjectFacts) ([]*ProjectReport, error) {
	reports := make([]*ProjectReport, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range batch {
		g.Go(func() error {
			report, err := s.Evaluate(gctx, batch[i])
			if err != nil {
				return errors.Newf("project %s: %w", batch[i].ProjectID, err).
					Component("coherence").
					Context("batch_index", i).
					Build()
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// evaluate is the pure part of Evaluate.
func (s *Service) evaluate(facts *ProjectFacts, profile scoring.WeightProfile, events []antigaming.AlertEvent) (*ProjectReport, error) {
	var ruleAlerts []model.Alert
	if facts.Legal != nil {
		alerts, err := s.legal.Evaluate(facts.Legal)
		if err != nil {
			return nil, err
		}
		ruleAlerts = append(ruleAlerts, alerts...)
	}
	if facts.Quality != nil {
		alerts, err := s.quality.Evaluate(facts.Quality)
		if err != nil {
			return nil, err
		}
		ruleAlerts = append(ruleAlerts, alerts...)
	}

	result := model.EvaluationResult{
		CategoryScores: model.NewCategoryScores(),
		Violations:     model.NewViolations(),
	}
	if facts.Coherence != nil {
		result = s.engine.Evaluate(facts.Coherence)
	}

	scores := result.CategoryScores.Clone()
	violations := result.Violations.Clone()
	for _, cat := range model.Categories() {
		sub := s.subscores.CalculateSubscore(ruleAlerts, cat)
		scores.Lower(cat, int(math.Round(sub)))
	}
	for i := range ruleAlerts {
		a := &ruleAlerts[i]
		if a.Category.IsValid() && !slices.Contains(violations[a.Category], a.RuleID) {
			violations.Add(a.Category, a.RuleID)
		}
	}

	alerts := slices.Concat(ruleAlerts, rules.ViolationAlerts(result))
	if alerts == nil {
		alerts = []model.Alert{}
	}

	global := s.calculator.CalculateForProfile(scores, profile)
	score := float64(global)
	verdict := s.detector.Detect(events, antigaming.Inputs{
		Score:         &score,
		DocumentCount: facts.DocumentCount,
		Now:           facts.EvaluatedAt,
	})

	return &ProjectReport{
		ProjectID:      facts.ProjectID,
		TenantID:       facts.TenantID,
		ProfileName:    profile.Name,
		ProfileVersion: profile.Version,
		CategoryScores: scores,
		Violations:     violations,
		Alerts:         alerts,
		GlobalScore:    global,
		Verdict:        verdict,
		AdjustedScore:  verdict.Apply(global),
	}, nil
}

func (s *Service) eventsFor(facts *ProjectFacts) []antigaming.AlertEvent {
	if facts.Events != nil || s.tracker == nil {
		return facts.Events
	}
	return s.tracker.Events(facts.ProjectID.String())
}

func (s *Service) observe(report *ProjectReport) {
	if report.Verdict.IsGaming {
		s.log.Warn("possible score manipulation detected",
			logger.String("project_id", report.ProjectID.String()),
			logger.String("tenant_id", report.TenantID),
			logger.String("reason", report.Verdict.ReasonString()),
			logger.Strings("violations", report.Verdict.Violations),
			logger.Int("penalty_points", report.Verdict.PenaltyPoints))
	}
	if s.metrics == nil {
		return
	}
	s.metrics.RecordEvaluation(scoring.ProfileKind(report.ProfileName), report.GlobalScore)
	for i := range report.Alerts {
		s.metrics.RecordAlert(report.Alerts[i].RuleID, string(report.Alerts[i].Severity))
	}
	if report.Verdict.IsGaming {
		s.metrics.RecordGamingVerdict(report.Verdict.ReasonString())
	}
}

func (s *Service) saveAudit(facts *ProjectFacts, report *ProjectReport) {
	if s.audit == nil {
		return
	}
	detectedAt := time.Now().UTC()
	if facts.EvaluatedAt != nil {
		detectedAt = facts.EvaluatedAt.UTC()
	}
	record := &entities.GamingAudit{
		ProjectID:     report.ProjectID.String(),
		TenantID:      report.TenantID,
		Reason:        report.Verdict.ReasonString(),
		Violations:    slices.Clone(report.Verdict.Violations),
		AuditLogs:     slices.Clone(report.Verdict.AuditLogs),
		PenaltyPoints: report.Verdict.PenaltyPoints,
		DetectedAt:    detectedAt,
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveAuditTimeout)
	defer cancel()
	if err := s.audit.SaveAudit(ctx, record); err != nil {
		s.log.Error("failed to save gaming audit",
			logger.String("project_id", record.ProjectID),
			logger.Error(err))
	}
}

func (s *Service) recordCacheLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

func (s *Service) recordError(err error) {
	if s.metrics == nil {
		return
	}
	category := errors.CategoryGeneric
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) && enhanced.GetCategory() != "" {
		category = enhanced.GetCategory()
	}
	s.metrics.RecordEvaluationError(string(category))
}
