package insights

import (
	"fmt"

	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/models"
)

// Card copy. Each sentence substitutes at most a category name or a count.
const (
	NoClearFocusCopy      = "No clear focus yet — your decisions are spread across a few areas."
	OverlapsPlaceholder   = "Log a few overlapping decisions to see connections."
	ByCategoryPlaceholder = "Log a few decisions in each area to see confidence patterns."
	TrendPlaceholder      = "Log a few decisions over time to see confidence trends."
	PaceMoreCopy          = "You’ve been making decisions more frequently than usual."
	PaceFewerCopy         = "You’ve been making fewer decisions than usual."
	DirectionNoSignalCopy = "Not enough data yet. Patterns will appear as you log decisions over time."
	RepeatedPatternCopy   = "Some decisions lately share similar themes."
)

const minOverlapsForCopy = 2

// FocusCopy names the focus category.
func FocusCopy(c models.Category) string {
	return fmt.Sprintf("Most of your recent decisions were about %s.", c.Label())
}

// OverlapsCopy describes the overlap summary, or asks for more data below two
// overlapping decisions.
func OverlapsCopy(count int, pair *Pair) string {
	if count < minOverlapsForCopy || pair == nil {
		return OverlapsPlaceholder
	}
	return fmt.Sprintf("This week, %d decisions included more than one category. A common overlap was %s + %s.",
		count, pair.A.Label(), pair.B.Label())
}

// ByCategoryCopy names the category and whether it feels more or less confident.
func ByCategoryCopy(c models.Category, kind models.InsightKind) string {
	word := "more"
	if kind == models.InsightLess {
		word = "less"
	}
	return fmt.Sprintf("Decisions about %s tend to feel %s confident.", c.Label(), word)
}

// TrendCardCopy describes a trend; NA asks for more history.
func TrendCardCopy(t models.Trend) string {
	if t == models.TrendNA {
		return TrendPlaceholder
	}
	return confidence.TrendCopy(t)
}

// PaceCopy describes a pace.
func PaceCopy(p models.Pace) string {
	if p == models.PaceMore {
		return PaceMoreCopy
	}
	return PaceFewerCopy
}

// DirectionCardCopy describes a direction status in one line.
func DirectionCardCopy(s models.DirectionStatus) string {
	if s == models.DirectionNoSignal || s == "" {
		return DirectionNoSignalCopy
	}
	return confidence.CopyForDirection(s).Title
}
