// Package unlock decides whether a weekly reflection can be generated.
//
// Two policies exist and exactly one is active at a time. The rolling policy
// opens a reflection every Days days, anchored on the last reflection (or first
// use). The weekday policy opens it on the closing day of the calendar week.
// Both require a decision inside the active window and both short-circuit to
// the cached reflection when one was already produced for that window.
package unlock

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/window"
)

// DefaultDays is the rolling window length.
const DefaultDays = 7

// Policy selects the unlock rule.
type Policy string

const (
	PolicyRolling Policy = "rolling"
	PolicyWeekday Policy = "weekday"
)

// ParsePolicy accepts "rolling" or "weekday" in any case. Empty means rolling.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyRolling:
		return PolicyRolling, nil
	case PolicyWeekday:
		return PolicyWeekday, nil
	}
	return "", fmt.Errorf("unknown unlock policy %q", s)
}

// Kind is the outcome of an evaluation.
type Kind string

const (
	KindCached        Kind = "CACHED_THIS_WINDOW"
	KindLockedTime    Kind = "LOCKED_TIME"
	KindLockedWeekday Kind = "LOCKED_WEEKDAY"
	KindLockedData    Kind = "LOCKED_DATA"
	KindUnlocked      Kind = "UNLOCKED"
)

// State is the evaluated unlock state. DaysRemaining is only meaningful for
// the two time-based locks.
type State struct {
	Kind          Kind `json:"kind"`
	DaysRemaining int  `json:"days_remaining,omitempty"`
}

// Unlocked reports whether a new reflection may be generated.
func (s State) Unlocked() bool { return s.Kind == KindUnlocked }

// Input carries everything an evaluation looks at.
type Input struct {
	Now                 time.Time
	Days                int
	Policy              Policy
	WeekStartDay        time.Weekday
	FirstUseAt          *time.Time
	LastReflectionAt    *time.Time
	HasDecisionInWindow bool
	CachedGeneratedAt   *time.Time
}

func (in Input) days() int {
	if in.Days <= 0 {
		return DefaultDays
	}
	return in.Days
}

// ActiveWindow returns the window the cache and decision checks refer to:
// [now - days, now] for rolling, the current calendar week for weekday.
func ActiveWindow(in Input) window.Range {
	if in.Policy == PolicyWeekday {
		return window.CurrentWeek(in.Now, in.WeekStartDay)
	}
	return window.Rolling(in.days(), in.Now)
}

// Evaluate applies the active policy. It has no side effects.
func Evaluate(in Input) State {
	if in.Policy == PolicyWeekday {
		return evaluateWeekday(in)
	}
	return evaluateRolling(in)
}

func evaluateRolling(in Input) State {
	days := in.days()
	w := window.Rolling(days, in.Now)
	if in.CachedGeneratedAt != nil && w.ContainsInclusive(*in.CachedGeneratedAt) {
		return State{Kind: KindCached}
	}

	anchor := in.LastReflectionAt
	if anchor == nil {
		anchor = in.FirstUseAt
	}
	if remaining := DaysUntilNextUnlock(anchor, days, in.Now); remaining > 0 {
		return State{Kind: KindLockedTime, DaysRemaining: remaining}
	}

	if !in.HasDecisionInWindow {
		return State{Kind: KindLockedData}
	}
	return State{Kind: KindUnlocked}
}

func evaluateWeekday(in Input) State {
	week := window.CurrentWeek(in.Now, in.WeekStartDay)
	if in.CachedGeneratedAt != nil && week.ContainsInclusive(*in.CachedGeneratedAt) {
		return State{Kind: KindCached}
	}

	if !window.IsLastDayOfWeek(in.Now, in.WeekStartDay) {
		lastDay := window.StartOfLastDay(in.Now, in.WeekStartDay)
		return State{Kind: KindLockedWeekday, DaysRemaining: ceilDays(lastDay.Sub(in.Now))}
	}

	if !in.HasDecisionInWindow {
		return State{Kind: KindLockedData}
	}
	return State{Kind: KindUnlocked}
}

// DaysUntilNextUnlock returns the whole days left before days have passed
// since anchor. A nil anchor yields days; an elapsed or future-skewed anchor
// never yields a negative count.
func DaysUntilNextUnlock(anchor *time.Time, days int, now time.Time) int {
	if anchor == nil {
		return days
	}
	remaining := time.Duration(days)*window.Day - now.Sub(*anchor)
	if remaining <= 0 {
		return 0
	}
	return ceilDays(remaining)
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(window.Day)))
}
