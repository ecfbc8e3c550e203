package composer

import "github.com/BTreeMap/Pondr/internal/models"

// NoDecisionsText is the whole reflection for an empty week.
const NoDecisionsText = "There weren’t any decisions logged this week. Reflection will be available once decisions are recorded."

// MixedAreas stands in for a missing top category.
const MixedAreas = "a mix of areas"

var openers = []string{
	"This is a look back at the decisions you logged this week.",
	"Here is a quiet summary of the choices you recorded.",
	"This reflection gathers what showed up in your decisions this week.",
}

var summaries = []string{
	"You logged {Count} decisions, most often around {TopCategory}.",
	"This week held {Count} decisions, with {TopCategory} appearing most.",
	"Across {Count} logged decisions, {TopCategory} came up most often.",
}

var lowDataSummaries = []string{
	"You logged {Count} decision{s} this week.",
	"This week held {Count} recorded decision{s}.",
}

var overlapPatterns = []string{
	"Some decisions touched more than one area, especially {OverlapA} and {OverlapB}.",
	"A few decisions linked several areas, with {OverlapA} and {OverlapB} showing up together.",
}

var singleAreaPatterns = []string{
	"Most decisions stayed within a single area.",
	"Most decisions kept to one category at a time.",
}

var trendLines = map[models.Trend][]string{
	models.TrendUp: {
		"Confidence appeared to trend upward across the week.",
		"Overall, confidence seemed to rise a little over the week.",
	},
	models.TrendDown: {
		"Confidence appeared to drift downward across the week.",
		"Overall, confidence seemed to soften over the week.",
	},
	models.TrendSteady: {
		"Confidence tended to hold steady across the week.",
		"Overall, confidence looked fairly consistent over the week.",
	},
	models.TrendNA: {
		"There is not enough data yet to describe a confidence trend.",
		"This week does not hold enough information to describe a confidence trend.",
	},
}

var tagLines = []string{
	"One repeated tag was “{Tag}”, a small thread that kept returning in the log.",
	"“{Tag}” showed up more than once, one small thread across the week.",
}

// QuestionPool names the question pool a composition draws from.
type QuestionPool string

const (
	PoolLowData        QuestionPool = "low_data"
	PoolHighConfidence QuestionPool = "high_confidence"
	PoolLowConfidence  QuestionPool = "low_confidence"
	PoolMixed          QuestionPool = "mixed_categories"
	PoolDefault        QuestionPool = "default"
)

var questionPools = map[QuestionPool][]string{
	PoolHighConfidence: {
		"What helped things feel clearer this week?",
		"When confidence was higher, what seemed to support that clarity?",
	},
	PoolLowConfidence: {
		"Where did you want more time or information?",
		"In which moments did a decision call for more context?",
	},
	PoolMixed: {
		"Which area seemed to influence the others most?",
		"Did one category appear to shape how the others showed up?",
	},
	PoolLowData: {
		"Is there a decision from this week that went unrecorded?",
		"Is there a moment this week that was not logged but still feels relevant?",
	},
	PoolDefault: {
		"What stands out most when you look back at what you recorded?",
		"If one decision held the most attention, which was it?",
	},
}

var closings = []string{
	"Noticing patterns is often where understanding begins.",
	"Some weeks offer clarity, others simply offer information.",
	"Even small logs can hold useful signals over time.",
}

// AllPoolText returns every fixed string the composer can emit, for vetting.
func AllPoolText() []string {
	out := []string{NoDecisionsText, MixedAreas}
	for _, pool := range [][]string{openers, summaries, lowDataSummaries, overlapPatterns, singleAreaPatterns, tagLines, closings} {
		out = append(out, pool...)
	}
	for _, pool := range trendLines {
		out = append(out, pool...)
	}
	for _, pool := range questionPools {
		out = append(out, pool...)
	}
	return out
}
