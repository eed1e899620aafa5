package rules

import (
	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/model"
)

// ErrRuleContractViolation marks a rule that returned malformed data. It is a
// programming error, never a finding.
var ErrRuleContractViolation = errors.NewStd("rule contract violation")

// Rule is one deterministic check over a context of type C. Evaluate returns
// nil when the rule does not fire.
type Rule[C any] interface {
	ID() string
	Evaluate(c C) (*model.Alert, error)
}

// ruleFunc adapts a plain function to the Rule interface.
type ruleFunc[C any] struct {
	id string
	fn func(C) *model.Alert
}

func (r ruleFunc[C]) ID() string { return r.id }

func (r ruleFunc[C]) Evaluate(c C) (*model.Alert, error) {
	return r.fn(c), nil
}

// NewRule wraps fn as a Rule with the given id.
func NewRule[C any](id string, fn func(C) *model.Alert) Rule[C] {
	return ruleFunc[C]{id: id, fn: fn}
}

// RuleSet runs an ordered, fixed list of rules against one context.
type RuleSet[C any] struct {
	name  string
	rules []Rule[C]
}

// NewRuleSet creates a rule set. Rules run in the order given.
func NewRuleSet[C any](name string, rules ...Rule[C]) *RuleSet[C] {
	return &RuleSet[C]{name: name, rules: rules}
}

// Name identifies the rule set in logs and metrics.
func (s *RuleSet[C]) Name() string {
	return s.name
}

// RuleIDs returns the ids in registration order.
func (s *RuleSet[C]) RuleIDs() []string {
	ids := make([]string, len(s.rules))
	for i, r := range s.rules {
		ids[i] = r.ID()
	}
	return ids
}

// Evaluate runs every rule and collects the alerts that fired, preserving
// registration order. It fails only when a rule breaks its contract.
func (s *RuleSet[C]) Evaluate(c C) ([]model.Alert, error) {
	alerts := make([]model.Alert, 0, len(s.rules))
	for _, r := range s.rules {
		alert, err := r.Evaluate(c)
		if err != nil {
			return nil, contractViolation(s.name, r.ID(), err.Error())
		}
		if alert == nil {
			continue
		}
		if err := checkAlert(s.name, r.ID(), alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, nil
}

// checkAlert verifies an alert is well formed and fills mapper defaults for
// a missing category or severity.
func checkAlert(set, ruleID string, alert *model.Alert) error {
	if alert.RuleID == "" {
		return contractViolation(set, ruleID, "alert has empty rule id")
	}
	if alert.RuleID != ruleID {
		return contractViolation(set, ruleID, "alert rule id "+alert.RuleID+" does not match rule")
	}
	if alert.Category == "" {
		alert.Category = CategoryFor(ruleID)
	}
	if alert.Severity == "" {
		alert.Severity = SeverityFor(ruleID)
	}
	if !alert.Severity.IsValid() {
		return contractViolation(set, ruleID, "unknown severity "+string(alert.Severity))
	}
	if alert.Category != model.CategoryUnknown && !alert.Category.IsValid() {
		return contractViolation(set, ruleID, "unknown category "+string(alert.Category))
	}
	return nil
}

func contractViolation(set, ruleID, reason string) error {
	return errors.Newf("%w: rule %s in %s: %s", ErrRuleContractViolation, ruleID, set, reason).
		Component("rules").
		Category(errors.CategoryRuleContract).
		Context("rule_set", set).
		Context("rule_id", ruleID).
		Context("reason", reason).
		Build()
}
