package reflection

import (
	"strconv"
	"strings"

	"github.com/BTreeMap/Pondr/internal/models"
)

// Placeholder is substituted for a missing category.
const Placeholder = "—"

// Result is a rendered reflection.
type Result struct {
	TemplateID          string `json:"template_id"`
	ReflectionText      string `json:"reflection_text"`
	ObservedPatternText string `json:"observed_pattern_text"`
}

func isLowData(count int) bool { return count >= 1 && count <= 2 }

// Select picks the template for in.
func Select(in Inputs) Template {
	if in.DecisionCount <= 0 {
		if t, ok := ByID(NoDecisionsID); ok {
			return t
		}
		return Templates[0]
	}

	if isLowData(in.DecisionCount) {
		for _, id := range LowDataOrder {
			if t, ok := ByID(id); ok && t.Conditions.Matches(in) {
				return t
			}
		}
	}

	switch in.Direction {
	case models.DirectionGrowing, models.DirectionStable, models.DirectionDrifting:
		if t, ok := mostSpecific(in); ok {
			return t
		}
	}

	if t, ok := ByID(FallbackID); ok {
		return t
	}
	return Templates[len(Templates)-1]
}

// mostSpecific returns the highest scoring matching template; the earliest
// declared wins a tie.
func mostSpecific(in Inputs) (Template, bool) {
	best, bestScore := -1, -1
	for i, t := range Templates {
		if !t.Conditions.Matches(in) {
			continue
		}
		if s := Specificity(t.Conditions); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return Template{}, false
	}
	return Templates[best], true
}

// Render substitutes placeholders into t, using the limited-data variant for
// one or two decisions when t defines one.
func Render(t Template, in Inputs) Result {
	text, pattern := t.Text, t.PatternLine
	if isLowData(in.DecisionCount) && t.LimitedData != nil {
		text, pattern = t.LimitedData.Text, t.LimitedData.PatternLine
	}
	r := replacer(in)
	return Result{
		TemplateID:          t.ID,
		ReflectionText:      strings.TrimSpace(r.Replace(text)),
		ObservedPatternText: strings.TrimSpace(r.Replace(pattern)),
	}
}

// Reflect selects and renders in one step.
func Reflect(in Inputs) Result {
	return Render(Select(in), in)
}

// CategoryFor resolves {Category}: the focus category, then the
// confidence-by-category insight, then Placeholder.
func CategoryFor(in Inputs) string {
	if in.FocusCategory != "" {
		return string(in.FocusCategory)
	}
	if in.ByCategory.Category != "" {
		return string(in.ByCategory.Category)
	}
	return Placeholder
}

func insightCategoryFor(in Inputs) string {
	if in.ByCategory.Category != "" {
		return string(in.ByCategory.Category)
	}
	return CategoryFor(in)
}

func replacer(in Inputs) *strings.Replacer {
	noun := "decisions"
	if in.DecisionCount == 1 {
		noun = "decision"
	}
	return strings.NewReplacer(
		"{Count}", strconv.Itoa(in.DecisionCount),
		"{Decisions}", noun,
		"{InsightCategory}", insightCategoryFor(in),
		"{Category}", CategoryFor(in),
		"{TrendWord}", in.Trend.Word(),
	)
}
