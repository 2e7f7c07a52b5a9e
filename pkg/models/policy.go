// Package models defines the core domain models for SLA tracking and
// workflow automation.
package models

import (
	"strings"
	"time"
)

// Default escalation thresholds (percent of target time elapsed) used
// when a policy does not override them.
const (
	DefaultEscalationLevel1 = 80
	DefaultEscalationLevel2 = 95
)

// PriorityTargets holds response and resolution targets, in minutes,
// for a single ticket priority. A zero target means the priority is not
// covered by the policy.
type PriorityTargets struct {
	ResponseMinutes   int `json:"response_minutes"`
	ResolutionMinutes int `json:"resolution_minutes"`
}

// BusinessWindow is a working-hours window for one weekday.
type BusinessWindow struct {
	Weekday time.Weekday `json:"weekday"`
	Start   string       `json:"start" validate:"omitempty,len=5"` // "09:00"
	End     string       `json:"end"   validate:"omitempty,len=5"` // "17:30"
}

// BusinessHours describes the working calendar a policy counts time
// against when PauseOffHours is set.
type BusinessHours struct {
	Windows  []BusinessWindow `json:"windows"`
	Timezone string           `json:"timezone"`
	Holidays []string         `json:"holidays"` // "2025-12-25"
}

// InBusinessHours reports whether now falls inside one of the working
// windows, honoring the calendar timezone and the holiday list.
func (b BusinessHours) InBusinessHours(now time.Time) bool {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		loc = time.UTC
	}

	local := now.In(loc)

	day := local.Format("2006-01-02")
	for _, holiday := range b.Holidays {
		if holiday == day {
			return false
		}
	}

	clock := local.Format("15:04")
	for _, w := range b.Windows {
		if w.Weekday != local.Weekday() {
			continue
		}

		if clock >= w.Start && clock < w.End {
			return true
		}
	}

	return false
}

// SLAPolicy defines time budgets and escalation behavior for tickets
// matched by its scope. At most one policy may be flagged as default;
// the default acts as the fallback when no scoped policy matches.
type SLAPolicy struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,min=3"`
	Active    bool   `json:"active"`
	IsDefault bool   `json:"is_default"`

	Targets map[string]PriorityTargets `json:"targets"` // keyed by lowercase priority

	EscalationLevel1 int `json:"escalation_level1"` // percent, default 80
	EscalationLevel2 int `json:"escalation_level2"` // percent, default 95

	UseBusinessHours bool          `json:"use_business_hours"`
	BusinessHours    BusinessHours `json:"business_hours"`

	PauseOnWaiting bool `json:"pause_on_waiting"`
	PauseOnHold    bool `json:"pause_on_hold"`
	PauseOffHours  bool `json:"pause_off_hours"`

	// Scope lists are inclusion filters; empty means "matches all".
	DepartmentIDs []string `json:"department_ids,omitempty"`
	CategoryIDs   []string `json:"category_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TargetsFor returns the targets for a priority, matched
// case-insensitively. ok is false when the priority is unknown or both
// targets are zero.
func (p *SLAPolicy) TargetsFor(priority string) (PriorityTargets, bool) {
	targets, ok := p.Targets[strings.ToLower(priority)]
	if !ok {
		return PriorityTargets{}, false
	}

	if targets.ResponseMinutes <= 0 && targets.ResolutionMinutes <= 0 {
		return PriorityTargets{}, false
	}

	return targets, true
}

// Level1Threshold returns the level-1 escalation percentage, falling
// back to the default when unset.
func (p *SLAPolicy) Level1Threshold() float64 {
	if p.EscalationLevel1 <= 0 {
		return DefaultEscalationLevel1
	}

	return float64(p.EscalationLevel1)
}

// Level2Threshold returns the level-2 escalation percentage, falling
// back to the default when unset.
func (p *SLAPolicy) Level2Threshold() float64 {
	if p.EscalationLevel2 <= 0 {
		return DefaultEscalationLevel2
	}

	return float64(p.EscalationLevel2)
}

// MatchesScope reports whether the policy scope includes the given
// department and category. Absent scope lists match anything.
func (p *SLAPolicy) MatchesScope(departmentID, categoryID string) bool {
	if len(p.DepartmentIDs) > 0 && !contains(p.DepartmentIDs, departmentID) {
		return false
	}

	if len(p.CategoryIDs) > 0 && !contains(p.CategoryIDs, categoryID) {
		return false
	}

	return true
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}

	return false
}
