// Package srs implements the spaced repetition scheduling policy.
//
// The policy is deliberately a pure function of (current schedule, directive,
// now) so richer progressive-interval algorithms can be substituted without
// touching the fact lifecycle orchestration.
package srs

import "time"

// DefaultResetInterval is the review interval applied on a schedule reset
// when no interval is configured.
const DefaultResetInterval = 24 * time.Hour

// Schedule is the review state carried by a fact.
type Schedule struct {
	Level        int
	NextReviewAt time.Time
}

// Directive tells the policy how a schedule should evolve.
type Directive int

const (
	// DirectiveKeep leaves the schedule untouched.
	DirectiveKeep Directive = iota
	// DirectiveReset drops the fact back to level 0 with the next review
	// one interval from now.
	DirectiveReset
)

// Grade is the outcome tier of a graded review answer.
type Grade string

const (
	GradeCorrect   Grade = "correct"
	GradePartial   Grade = "partial"
	GradeIncorrect Grade = "incorrect"
)

// Valid reports whether g is one of the defined grade tiers.
func (g Grade) Valid() bool {
	switch g {
	case GradeCorrect, GradePartial, GradeIncorrect:
		return true
	}
	return false
}

// DirectiveForGrade maps a review grade to a scheduling directive.
// An incorrect answer resets the schedule; anything else keeps it.
func DirectiveForGrade(grade Grade) Directive {
	if grade == GradeIncorrect {
		return DirectiveReset
	}
	return DirectiveKeep
}

// Policy maps a schedule and a directive to the next schedule state.
// Implementations must be side-effect free.
type Policy interface {
	Apply(current Schedule, directive Directive, now time.Time) Schedule
}

// ResetPolicy is the minimal two-state policy: reset drops to level 0 with the
// next review one Interval out, keep is a no-op.
type ResetPolicy struct {
	// Interval is the delay until the next review after a reset.
	// Zero means DefaultResetInterval.
	Interval time.Duration
}

// NewResetPolicy creates a ResetPolicy with the given reset interval.
func NewResetPolicy(interval time.Duration) *ResetPolicy {
	if interval <= 0 {
		interval = DefaultResetInterval
	}
	return &ResetPolicy{Interval: interval}
}

// Apply implements Policy.
func (p *ResetPolicy) Apply(current Schedule, directive Directive, now time.Time) Schedule {
	switch directive {
	case DirectiveReset:
		interval := p.Interval
		if interval <= 0 {
			interval = DefaultResetInterval
		}
		return Schedule{Level: 0, NextReviewAt: now.Add(interval)}
	default:
		return current
	}
}

// Initial returns the schedule assigned to a newly created fact:
// level 0, first review one reset interval from now.
func (p *ResetPolicy) Initial(now time.Time) Schedule {
	return p.Apply(Schedule{}, DirectiveReset, now)
}

var _ Policy = (*ResetPolicy)(nil)
