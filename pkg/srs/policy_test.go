package srs

import (
	"testing"
	"time"
)

func TestResetPolicy_Reset(t *testing.T) {
	policy := NewResetPolicy(24 * time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	current := Schedule{Level: 7, NextReviewAt: now.Add(30 * 24 * time.Hour)}
	next := policy.Apply(current, DirectiveReset, now)

	if next.Level != 0 {
		t.Errorf("expected level 0 after reset, got %d", next.Level)
	}
	if !next.NextReviewAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("expected next review at now+24h, got %v", next.NextReviewAt)
	}
}

func TestResetPolicy_Keep(t *testing.T) {
	policy := NewResetPolicy(24 * time.Hour)
	now := time.Now()

	current := Schedule{Level: 3, NextReviewAt: now.Add(72 * time.Hour)}
	next := policy.Apply(current, DirectiveKeep, now)

	if next != current {
		t.Errorf("keep directive must not change the schedule: got %+v, want %+v", next, current)
	}
}

func TestResetPolicy_ConfigurableInterval(t *testing.T) {
	policy := NewResetPolicy(6 * time.Hour)
	now := time.Now()

	next := policy.Apply(Schedule{Level: 2}, DirectiveReset, now)
	if !next.NextReviewAt.Equal(now.Add(6 * time.Hour)) {
		t.Errorf("expected next review at now+6h, got %v", next.NextReviewAt)
	}
}

func TestResetPolicy_DefaultInterval(t *testing.T) {
	policy := NewResetPolicy(0)
	if policy.Interval != DefaultResetInterval {
		t.Errorf("expected default interval %v, got %v", DefaultResetInterval, policy.Interval)
	}
}

func TestResetPolicy_Initial(t *testing.T) {
	policy := NewResetPolicy(24 * time.Hour)
	now := time.Now()

	initial := policy.Initial(now)
	if initial.Level != 0 {
		t.Errorf("expected initial level 0, got %d", initial.Level)
	}
	if !initial.NextReviewAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("expected first review at now+24h, got %v", initial.NextReviewAt)
	}
}

func TestDirectiveForGrade(t *testing.T) {
	tests := []struct {
		grade Grade
		want  Directive
	}{
		{GradeCorrect, DirectiveKeep},
		{GradePartial, DirectiveKeep},
		{GradeIncorrect, DirectiveReset},
	}

	for _, tt := range tests {
		if got := DirectiveForGrade(tt.grade); got != tt.want {
			t.Errorf("DirectiveForGrade(%q) = %v, want %v", tt.grade, got, tt.want)
		}
	}
}

func TestGrade_Valid(t *testing.T) {
	for _, g := range []Grade{GradeCorrect, GradePartial, GradeIncorrect} {
		if !g.Valid() {
			t.Errorf("expected %q to be valid", g)
		}
	}
	if Grade("excellent").Valid() {
		t.Error("expected unknown grade to be invalid")
	}
}
