// Package reflection selects and renders the weekly reflection from a static,
// ordered template bank.
//
// Selection is rule based: the no-decisions template for an empty week, the
// low-data templates in declared order for one or two decisions, otherwise the
// most specific matching template. Specificity is an explicit weighted score.
package reflection

import (
	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/models"
)

// Inputs are the computed weekly metrics a template is matched against.
type Inputs struct {
	DecisionCount int                        `json:"decision_count"`
	Direction     models.DirectionStatus     `json:"direction_status"`
	Trend         models.Trend               `json:"confidence_trend"`
	FocusCategory models.Category            `json:"focus_category,omitempty"`
	FocusIsTie    bool                       `json:"focus_is_tie"`
	ByCategory    confidence.CategoryInsight `json:"by_category"`
	// Pace is empty when no pace signal exists.
	Pace models.Pace `json:"pace,omitempty"`
}

// Conditions are optional predicates over Inputs. Nil or empty fields match anything.
type Conditions struct {
	MinCount              *int
	MaxCount              *int
	Direction             []models.DirectionStatus
	Trend                 []models.Trend
	FocusIsTie            *bool
	HasFocusCategory      *bool
	ByCategoryKind        []models.InsightKind
	HasByCategoryCategory *bool
	Pace                  []models.Pace
}

// Variant is an alternate text/pattern pair.
type Variant struct {
	Text        string
	PatternLine string
}

// Template is one entry of the bank.
type Template struct {
	ID          string
	Conditions  Conditions
	Text        string
	PatternLine string
	// LimitedData replaces Text and PatternLine for one or two decisions.
	LimitedData *Variant
}

// Specificity weights. Direction and the trend-style discriminators outrank
// ranges and flags.
const (
	WeightDirection             = 3
	WeightTrend                 = 2
	WeightByCategoryKind        = 2
	WeightCountRange            = 1
	WeightFocusIsTie            = 1
	WeightHasFocusCategory      = 1
	WeightHasByCategoryCategory = 1
	WeightPace                  = 1
)

// Specificity scores how narrowly c constrains the inputs.
func Specificity(c Conditions) int {
	s := 0
	if c.MinCount != nil || c.MaxCount != nil {
		s += WeightCountRange
	}
	if len(c.Direction) > 0 {
		s += WeightDirection
	}
	if len(c.Trend) > 0 {
		s += WeightTrend
	}
	if c.FocusIsTie != nil {
		s += WeightFocusIsTie
	}
	if c.HasFocusCategory != nil {
		s += WeightHasFocusCategory
	}
	if len(c.ByCategoryKind) > 0 {
		s += WeightByCategoryKind
	}
	if c.HasByCategoryCategory != nil {
		s += WeightHasByCategoryCategory
	}
	if len(c.Pace) > 0 {
		s += WeightPace
	}
	return s
}

// Matches reports whether every present predicate of c holds for in.
func (c Conditions) Matches(in Inputs) bool {
	if c.MinCount != nil && in.DecisionCount < *c.MinCount {
		return false
	}
	if c.MaxCount != nil && in.DecisionCount > *c.MaxCount {
		return false
	}
	if len(c.Direction) > 0 && !contains(c.Direction, in.Direction) {
		return false
	}
	if len(c.Trend) > 0 && !contains(c.Trend, in.Trend) {
		return false
	}
	if c.FocusIsTie != nil && *c.FocusIsTie != in.FocusIsTie {
		return false
	}
	if c.HasFocusCategory != nil && *c.HasFocusCategory != (in.FocusCategory != "") {
		return false
	}
	if len(c.ByCategoryKind) > 0 && !contains(c.ByCategoryKind, in.ByCategory.Kind) {
		return false
	}
	if c.HasByCategoryCategory != nil && *c.HasByCategoryCategory != (in.ByCategory.Category != "") {
		return false
	}
	if len(c.Pace) > 0 && !contains(c.Pace, in.Pace) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }
