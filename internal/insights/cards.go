// Package insights builds the typed insight cards shown for a decision history.
//
// Cards are recomputed from scratch on every request. Build is pure; Collect
// gathers its input from a Source such as the decision store.
package insights

import (
	"github.com/BTreeMap/Pondr/internal/models"
)

// CardType discriminates insight card variants.
type CardType string

const (
	TypeDecisionFocus         CardType = "decision_focus"
	TypeCategoryOverlaps      CardType = "category_overlaps"
	TypeConfidenceByCategory  CardType = "confidence_by_category"
	TypeConfidenceTrend       CardType = "confidence_trend"
	TypeDecisionPace          CardType = "decision_pace"
	TypeDirectionStatus       CardType = "direction_status"
	TypeRepeatedChoicePattern CardType = "repeated_choice_pattern"
)

// Titles maps each card type to its heading.
var Titles = map[CardType]string{
	TypeDecisionFocus:         "Decision Focus",
	TypeCategoryOverlaps:      "Category Overlaps",
	TypeConfidenceByCategory:  "Confidence by Category",
	TypeConfidenceTrend:       "Confidence Trend",
	TypeDecisionPace:          "Decision Pace",
	TypeDirectionStatus:       "Direction Status",
	TypeRepeatedChoicePattern: "Repeated Pattern",
}

// Base holds the fields every card carries.
type Base struct {
	ID    string   `json:"id"`
	Type  CardType `json:"type"`
	Title string   `json:"title"`
	Copy  string   `json:"copy"`
}

func newBase(t CardType, text string) Base {
	return Base{ID: string(t), Type: t, Title: Titles[t], Copy: text}
}

// Card is implemented by every card variant.
type Card interface {
	Header() Base
}

// Header returns the shared card fields.
func (b Base) Header() Base { return b }

// FocusCard reports the most frequent category of the week. A tie between the
// top two categories carries no category.
type FocusCard struct {
	Base
	Category models.Category `json:"category,omitempty"`
	IsTie    bool            `json:"is_tie"`
}

// Pair is an unordered category pair with A < B.
type Pair struct {
	A models.Category `json:"a"`
	B models.Category `json:"b"`
}

// OverlapsCard reports decisions that carried secondary categories.
type OverlapsCard struct {
	Base
	OverlapDecisionCount int   `json:"overlap_decision_count"`
	MostCommonPair       *Pair `json:"most_common_pair"`
}

// ByCategoryCard reports the category whose decisions feel most confident.
// The placeholder variant has no category.
type ByCategoryCard struct {
	Base
	Category models.Category    `json:"category,omitempty"`
	Kind     models.InsightKind `json:"kind"`
}

// TrendCard compares this week's confidence with last week's.
type TrendCard struct {
	Base
	Trend models.Trend `json:"trend"`
}

// PaceCard compares the recent decision rate with the lifetime rate.
type PaceCard struct {
	Base
	Pace models.Pace `json:"pace"`
}

// DirectionCard carries the week's direction status.
type DirectionCard struct {
	Base
	Status models.DirectionStatus `json:"status"`
}

// RepeatedPatternCard flags a category that dominates the latest decisions.
type RepeatedPatternCard struct {
	Base
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

// Snapshot is the ordered set of cards for one request.
type Snapshot struct {
	Cards []Card `json:"cards"`
}

// Find returns the first card of type t.
func (s Snapshot) Find(t CardType) (Card, bool) {
	for _, c := range s.Cards {
		if c.Header().Type == t {
			return c, true
		}
	}
	return nil, false
}
