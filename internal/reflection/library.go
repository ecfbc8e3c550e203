package reflection

import "github.com/BTreeMap/Pondr/internal/models"

// Template ids referenced by the selector.
const (
	NoDecisionsID = "NO_DECISIONS_1"
	FallbackID    = "FALLBACK_1"
)

// LowDataOrder is the fixed order low-data templates are tried in.
var LowDataOrder = []string{"LOW_DATA_1", "LOW_DATA_2", "LOW_DATA_3"}

var (
	growing  = []models.DirectionStatus{models.DirectionGrowing}
	stable   = []models.DirectionStatus{models.DirectionStable}
	drifting = []models.DirectionStatus{models.DirectionDrifting}
)

// Templates is the ordered bank. Declaration order breaks specificity ties.
var Templates = []Template{
	{
		ID:         NoDecisionsID,
		Conditions: Conditions{MaxCount: intp(0)},
		Text: "No decisions were logged this week. Quiet weeks and busy weeks can both look like this. " +
			"For now this is an empty snapshot, and once something is logged this space will reflect only what was recorded.",
		PatternLine: "No decisions were logged in this window.",
	},

	{
		ID:         "LOW_DATA_1",
		Conditions: Conditions{MinCount: intp(1), MaxCount: intp(2), FocusIsTie: boolp(true)},
		Text: "You logged {Count} {Decisions} this week, spread across more than one area. " +
			"With limited data the picture is light and unfinished, and that is fine. " +
			"This is a small slice of what was captured, not a summary of the whole week. " +
			"Anything that stands out may say more about what you noticed than about what the data shows.",
		PatternLine: "With limited data, decisions were spread across a few areas.",
		LimitedData: &Variant{
			Text: "You logged {Count} {Decisions} this week, and the focus is split across a few areas. " +
				"With limited data this is only a snapshot of what was recorded. Mixed signals are normal at this size.",
			PatternLine: "With limited data, no single area stands out.",
		},
	},
	{
		ID:         "LOW_DATA_2",
		Conditions: Conditions{MinCount: intp(1), MaxCount: intp(2), FocusIsTie: boolp(false), HasFocusCategory: boolp(true)},
		Text: "You logged {Count} {Decisions} this week, leaning toward {Category}. " +
			"With limited data that lean describes what was recorded, nothing more. " +
			"The snapshot is small and descriptive on purpose. " +
			"If it feels surprising, a single decision may simply have carried extra weight.",
		PatternLine: "With limited data, {Category} showed up as the most common area.",
		LimitedData: &Variant{
			Text: "You logged {Count} {Decisions} this week, and {Category} appeared most often. " +
				"With limited data this is a small slice of what was logged. " +
				"One area often stands out when there are only a couple of decisions.",
			PatternLine: "With limited data, {Category} appeared most often.",
		},
	},
	{
		ID:         "LOW_DATA_3",
		Conditions: Conditions{MinCount: intp(1), MaxCount: intp(2), HasFocusCategory: boolp(false)},
		Text: "You logged {Count} {Decisions} this week. " +
			"With limited data this space stays light, closer to a note than a conclusion. " +
			"It reflects what was recorded with no pressure to interpret it. " +
			"Patterns become easier to see as more decisions are logged over time.",
		PatternLine: "With limited data, this is a minimal snapshot.",
	},

	{
		ID:         "GROWING_FOCUS_1",
		Conditions: Conditions{MinCount: intp(3), Direction: growing, FocusIsTie: boolp(false), HasFocusCategory: boolp(true)},
		Text: "This week your decisions point toward a Growing direction. " +
			"Many of them clustered around {Category}, which can feel like momentum in one area. " +
			"Confidence has been {TrendWord} recently, adding context to the shape of the week. " +
			"This describes what was recorded and is not a verdict on the week.",
		PatternLine: "Direction looks Growing, with a concentration in {Category}.",
	},
	{
		ID: "GROWING_FOCUS_TREND_UP_1",
		Conditions: Conditions{MinCount: intp(3), Direction: growing, Trend: []models.Trend{models.TrendUp},
			FocusIsTie: boolp(false), HasFocusCategory: boolp(true)},
		Text: "This week your decisions point toward a Growing direction, with confidence trending {TrendWord}. " +
			"Many of them clustered around {Category}, so the week reads as consistent in the data. " +
			"The description stays with what was logged and leaves causes aside. " +
			"It is a snapshot of this week's record.",
		PatternLine: "Direction looks Growing, and confidence has been trending up.",
	},
	{
		ID: "GROWING_FOCUS_2",
		Conditions: Conditions{MinCount: intp(3), Direction: growing, FocusIsTie: boolp(false), HasFocusCategory: boolp(true),
			ByCategoryKind: []models.InsightKind{models.InsightMore}, HasByCategoryCategory: boolp(true)},
		Text: "This week your decisions point toward a Growing direction. " +
			"Much of the activity centered on {Category}, and confidence ran highest in {InsightCategory} among the areas you logged. " +
			"Confidence has been {TrendWord} recently, which fits the overall direction. " +
			"The snapshot stays descriptive even when the signals look clear.",
		PatternLine: "Direction looks Growing, and {InsightCategory} shows relatively higher confidence.",
	},
	{
		ID:         "GROWING_SPLIT_1",
		Conditions: Conditions{MinCount: intp(3), Direction: growing, FocusIsTie: boolp(true)},
		Text: "This week your decisions point toward a Growing direction, with focus split across a few areas rather than one. " +
			"Confidence has been {TrendWord} recently, and the direction still reads as forward. " +
			"Mixed focus can be consistent too; it simply spreads attention across categories.",
		PatternLine: "Direction looks Growing, with attention spread across multiple areas.",
	},
	{
		ID:         "GROWING_GENERAL_1",
		Conditions: Conditions{MinCount: intp(3), Direction: growing},
		Text: "This week your decisions point toward a Growing direction. " +
			"Across what you logged, confidence reads as settled. " +
			"Confidence has been {TrendWord} recently, which adds context without needing an explanation. " +
			"This only reflects the patterns that showed up in your decisions.",
		PatternLine: "Direction looks Growing based on the decisions logged this week.",
	},

	{
		ID:         "STABLE_FOCUS_1",
		Conditions: Conditions{MinCount: intp(3), Direction: stable, FocusIsTie: boolp(false), HasFocusCategory: boolp(true)},
		Text: "This week your decisions point toward a Stable direction. " +
			"Many of them clustered around {Category}, a consistent area of attention. " +
			"Confidence has been {TrendWord} recently, which sits comfortably alongside stability. " +
			"The snapshot is meant to be calm and factual, even when it is specific.",
		PatternLine: "Direction looks Stable, with a consistent focus in {Category}.",
	},
	{
		ID:         "STABLE_SPLIT_1",
		Conditions: Conditions{MinCount: intp(3), Direction: stable, FocusIsTie: boolp(true)},
		Text: "This week your decisions point toward a Stable direction. " +
			"Focus was spread across a few areas, which reads as variety rather than disorder. " +
			"Confidence has been {TrendWord} recently, and the overall pattern stays even. " +
			"This reflects only what was logged, not everything that mattered this week.",
		PatternLine: "Direction looks Stable, with decisions spread across multiple areas.",
	},
	{
		ID:         "STABLE_PACE_MORE_1",
		Conditions: Conditions{MinCount: intp(3), Direction: stable, Pace: []models.Pace{models.PaceMore}},
		Text: "This week your decisions point toward a Stable direction. " +
			"You logged decisions more often than your usual pace, which can make the week feel busier without changing its direction. " +
			"Confidence has been {TrendWord} recently, a small extra layer of context. " +
			"The snapshot stays descriptive and draws no conclusions.",
		PatternLine: "Direction looks Stable, with a higher-than-usual logging pace.",
	},
	{
		ID:         "STABLE_GENERAL_1",
		Conditions: Conditions{MinCount: intp(3), Direction: stable},
		Text: "This week your decisions point toward a Stable direction. " +
			"Confidence reads as {TrendWord}, with no sharp swings either way. " +
			"Here, stability means the signals were consistent across what you logged. " +
			"The lived week may well have felt more complex than this snapshot.",
		PatternLine: "Direction looks Stable based on the decisions logged this week.",
	},

	{
		ID:         "DRIFTING_FOCUS_1",
		Conditions: Conditions{MinCount: intp(3), Direction: drifting, FocusIsTie: boolp(false), HasFocusCategory: boolp(true)},
		Text: "This week your decisions point toward a Drifting direction. " +
			"Many of them clustered around {Category}, and confidence has been {TrendWord} recently. " +
			"Drifting is a descriptive label for lower confidence or thinner consistency in what was logged. " +
			"The snapshot holds that gently and implies nothing is wrong.",
		PatternLine: "Direction looks Drifting, with many decisions in {Category}.",
	},
	{
		ID: "DRIFTING_BYCAT_LESS_1",
		Conditions: Conditions{MinCount: intp(3), Direction: drifting,
			ByCategoryKind: []models.InsightKind{models.InsightLess}, HasByCategoryCategory: boolp(true)},
		Text: "This week your decisions point toward a Drifting direction. " +
			"One signal in the log is that confidence in {InsightCategory} ran lower than in the other areas you recorded. " +
			"Confidence has been {TrendWord} recently, which adds context to the overall direction. " +
			"This is a description of the log, not advice.",
		PatternLine: "Direction looks Drifting, and {InsightCategory} shows relatively lower confidence.",
	},
	{
		ID:         "DRIFTING_SPLIT_1",
		Conditions: Conditions{MinCount: intp(3), Direction: drifting, FocusIsTie: boolp(true)},
		Text: "This week your decisions point toward a Drifting direction. " +
			"Focus was split across a few areas, which can make the week look less settled in the data. " +
			"Confidence has been {TrendWord} recently, with no single strong signal lifting the snapshot. " +
			"The view stays simple on purpose, even when the week felt layered.",
		PatternLine: "Direction looks Drifting, with decisions spread across multiple areas.",
	},
	{
		ID: "DRIFTING_SPLIT_TREND_DOWN_1",
		Conditions: Conditions{MinCount: intp(3), Direction: drifting, Trend: []models.Trend{models.TrendDown},
			FocusIsTie: boolp(true)},
		Text: "This week your decisions point toward a Drifting direction, with confidence trending {TrendWord}. " +
			"Focus was split across a few areas, which can read as mixed signals. " +
			"The label is descriptive, not evaluative. " +
			"It reflects what the logged confidence suggests over time.",
		PatternLine: "Direction looks Drifting, and confidence has been trending down.",
	},
	{
		ID:         "DRIFTING_GENERAL_1",
		Conditions: Conditions{MinCount: intp(3), Direction: drifting},
		Text: "This week your decisions point toward a Drifting direction. " +
			"Confidence has been {TrendWord} recently, which gives context without turning it into a story. " +
			"Drifting is simply a label for what the logged confidence and consistency suggest. " +
			"Reading it as unclear rather than negative is completely fine.",
		PatternLine: "Direction looks Drifting based on the decisions logged this week.",
	},

	{
		ID:         "TREND_UP_OVERRIDE_1",
		Conditions: Conditions{MinCount: intp(3), Trend: []models.Trend{models.TrendUp}},
		Text: "One clear signal this week is that confidence has been trending up. " +
			"That can happen even while focus moves between categories, and it means no more than what was recorded. " +
			"The snapshot stays calm and leaves the cause unexplained. " +
			"It simply notes which way the numbers have been moving.",
		PatternLine: "Confidence has been trending up across the decisions logged this week.",
	},
	{
		ID:         "TREND_DOWN_OVERRIDE_1",
		Conditions: Conditions{MinCount: intp(3), Trend: []models.Trend{models.TrendDown}},
		Text: "One clear signal this week is that confidence has been trending down. " +
			"That can reflect mixed days or simply what happened to be captured. " +
			"The snapshot does not read it as a problem, only as a pattern in the log. " +
			"Data can describe without directing.",
		PatternLine: "Confidence has been trending down across the decisions logged this week.",
	},
	{
		ID:         "TREND_STEADY_OVERRIDE_1",
		Conditions: Conditions{MinCount: intp(3), Trend: []models.Trend{models.TrendSteady}},
		Text: "One clear signal this week is that confidence has been holding steady. " +
			"Steadiness can show up whether the week felt quiet or busy. " +
			"The snapshot stays factual and leaves room for nuance beyond the log. " +
			"It reflects what the logged confidence suggests over time.",
		PatternLine: "Confidence has been holding steady across the decisions logged this week.",
	},

	{
		ID:         FallbackID,
		Conditions: Conditions{},
		Text: "This is a calm snapshot of what was logged this week. " +
			"The pattern here is descriptive and draws no conclusions. " +
			"If anything feels unclear, the week may simply have held mixed signals. " +
			"Over time, more decisions make trends easier to see.",
		PatternLine: "This snapshot reflects only what was recorded.",
	},
}

// ByID returns the template with the given id.
func ByID(id string) (Template, bool) {
	for _, t := range Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
