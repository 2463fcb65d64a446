package domain

import (
	"errors"
	"fmt"
	"time"
)

// RuleName identifies the selection rule that produced a choice
type RuleName string

// Selection rules in priority order
const (
	RuleStickiness RuleName = "stickiness"
	RuleDeadline   RuleName = "deadline"
	RuleCost       RuleName = "cost"
)

// Selection reasons recorded in the log
const (
	ReasonPreviouslyUsed      = "previously used carrier with sufficient capacity"
	ReasonMeetsDeadlineSuffix = " and meets deadline"
	ReasonFastestForDeadline  = "fastest carrier that meets delivery deadline"
	ReasonLowestCost          = "lowest cost carrier with available capacity"
)

// SelectionInput is everything the policy looks at for one waybill
type SelectionInput struct {
	Estimates       []CarrierEstimate
	PreviousCarrier string
	ShipDate        time.Time
	Deadline        *time.Time
}

// Choice is the carrier picked for a waybill and why
type Choice struct {
	Estimate CarrierEstimate
	Rule     RuleName
	Reason   string
}

// SelectionRule proposes a carrier or passes
type SelectionRule interface {
	Name() RuleName
	Apply(in SelectionInput) (Choice, bool)
}

// StickinessRule keeps the customer's previous carrier when it is eligible and on time
type StickinessRule struct{}

// Name returns RuleStickiness
func (StickinessRule) Name() RuleName { return RuleStickiness }

// Apply matches when the previous carrier is eligible and makes the deadline, if one is set
func (r StickinessRule) Apply(in SelectionInput) (Choice, bool) {
	if in.PreviousCarrier == "" {
		return Choice{}, false
	}
	for _, e := range in.Estimates {
		if e.Carrier.Code != in.PreviousCarrier || !e.Eligible {
			continue
		}
		if !MeetsDeadline(in.ShipDate, e.LeadTime, in.Deadline) {
			return Choice{}, false
		}
		reason := ReasonPreviouslyUsed
		if in.Deadline != nil {
			reason += ReasonMeetsDeadlineSuffix
		}
		return Choice{Estimate: e, Rule: r.Name(), Reason: reason}, true
	}
	return Choice{}, false
}

// DeadlineRule picks the fastest carrier when it makes the delivery deadline
type DeadlineRule struct{}

// Name returns RuleDeadline
func (DeadlineRule) Name() RuleName { return RuleDeadline }

// Apply matches only when a deadline is set and the fastest eligible carrier makes it
func (r DeadlineRule) Apply(in SelectionInput) (Choice, bool) {
	if in.Deadline == nil {
		return Choice{}, false
	}
	fastest, ok := Fastest(in.Estimates)
	if !ok || !MeetsDeadline(in.ShipDate, fastest.LeadTime, in.Deadline) {
		return Choice{}, false
	}
	return Choice{Estimate: fastest, Rule: r.Name(), Reason: ReasonFastestForDeadline}, true
}

// CostRule picks the cheapest eligible carrier
type CostRule struct{}

// Name returns RuleCost
func (CostRule) Name() RuleName { return RuleCost }

// Apply matches whenever any carrier is eligible
func (r CostRule) Apply(in SelectionInput) (Choice, bool) {
	cheapest, ok := Cheapest(in.Estimates)
	if !ok {
		return Choice{}, false
	}
	return Choice{Estimate: cheapest, Rule: r.Name(), Reason: ReasonLowestCost}, true
}

// SelectionPolicy applies rules in order; the first rule that matches wins
type SelectionPolicy struct {
	rules []SelectionRule
}

// NewSelectionPolicy creates a policy from an ordered rule list
func NewSelectionPolicy(rules ...SelectionRule) *SelectionPolicy {
	return &SelectionPolicy{rules: rules}
}

// DefaultSelectionPolicy is stickiness, then deadline, then cost
func DefaultSelectionPolicy() *SelectionPolicy {
	return NewSelectionPolicy(StickinessRule{}, DeadlineRule{}, CostRule{})
}

// Choose returns the winning choice. When no rule matches the error wraps ErrNoEligibleCarrier
// together with each carrier's rejection error.
func (p *SelectionPolicy) Choose(in SelectionInput) (Choice, error) {
	for _, rule := range p.rules {
		if choice, ok := rule.Apply(in); ok {
			return choice, nil
		}
	}

	errs := []error{ErrNoEligibleCarrier}
	for _, e := range in.Estimates {
		if err := e.Rejection.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Carrier.Code, err))
		}
	}
	return Choice{}, errors.Join(errs...)
}
