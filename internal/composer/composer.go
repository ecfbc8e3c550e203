// Package composer produces reproducible weekly reflection prose.
//
// Every section draws from a fixed pool with its own seed derived from
// "<userId>|<weekStartIso>|<section>", so the same user and week always render
// the same text while a different week varies. The pools carry no prescriptive
// language, so output needs no runtime filter.
package composer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/window"
)

// Title heads every composition.
const Title = "Weekly Reflection"

// LowDataThreshold is the largest decision count treated as low data.
const LowDataThreshold = 2

// Section seed suffixes.
const (
	KeyOpener           = "opener"
	KeySummary          = "summary"
	KeySummaryLow       = "summary_low"
	KeyPatternOverlap   = "pattern_overlap"
	KeyPatternNoOverlap = "pattern_no_overlap"
	KeyConfidenceTrend  = "confidence_trend"
	KeyTag              = "tag"
	KeyQuestion         = "question"
	KeyClosing          = "closing"
)

// Overlap names two categories that appeared together.
type Overlap struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Metrics summarize the week being composed. Category fields hold display labels.
type Metrics struct {
	DecisionCount     int          `json:"decision_count"`
	TopCategory       string       `json:"top_category,omitempty"`
	SecondaryCategory string       `json:"secondary_category,omitempty"`
	Overlap           *Overlap     `json:"category_overlap,omitempty"`
	AvgConfidence     *float64     `json:"avg_confidence"`
	Trend             models.Trend `json:"confidence_trend"`
	MostRepeatedTag   string       `json:"most_repeated_tag,omitempty"`
	DaysWithDecisions int          `json:"days_with_decisions"`
}

// Composition is a rendered reflection.
type Composition struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	// Question is the question section on its own; empty for an empty week.
	Question string       `json:"question,omitempty"`
	Pool     QuestionPool `json:"question_pool,omitempty"`
}

// Compose renders the reflection for userID and the week starting at weekStart.
func Compose(userID string, weekStart time.Time, m Metrics) Composition {
	return ComposeISO(userID, window.ISO(weekStart), m)
}

// ComposeISO is Compose with a preformatted week-start key.
func ComposeISO(userID, weekStartISO string, m Metrics) Composition {
	if m.DecisionCount <= 0 {
		return Composition{Title: Title, Text: NoDecisionsText}
	}

	base := userID + "|" + weekStartISO
	key := func(section string) string { return base + "|" + section }
	lowData := m.DecisionCount <= LowDataThreshold

	opener := Pick(openers, key(KeyOpener))

	var summary string
	if lowData {
		summary = Pick(lowDataSummaries, key(KeySummaryLow))
	} else {
		summary = Pick(summaries, key(KeySummary))
	}
	suffix := "s"
	if m.DecisionCount == 1 {
		suffix = ""
	}
	top := m.TopCategory
	if top == "" {
		top = MixedAreas
	}
	summary = strings.NewReplacer(
		"{Count}", strconv.Itoa(m.DecisionCount),
		"{s}", suffix,
		"{TopCategory}", top,
	).Replace(summary)

	var pattern string
	if m.Overlap != nil {
		pattern = strings.NewReplacer(
			"{OverlapA}", m.Overlap.A,
			"{OverlapB}", m.Overlap.B,
		).Replace(Pick(overlapPatterns, key(KeyPatternOverlap)))
	} else {
		pattern = Pick(singleAreaPatterns, key(KeyPatternNoOverlap))
	}

	trend := m.Trend
	if _, ok := trendLines[trend]; !ok {
		trend = models.TrendNA
	}
	trendLine := Pick(trendLines[trend], key(KeyConfidenceTrend))
	if m.MostRepeatedTag != "" {
		trendLine += " " + strings.ReplaceAll(Pick(tagLines, key(KeyTag)), "{Tag}", m.MostRepeatedTag)
	}

	pool := ChoosePool(m)
	question := Pick(questionPools[pool], key(KeyQuestion))

	sections := []string{opener, summary, pattern, trendLine, question}
	if !lowData {
		sections = append(sections, Pick(closings, key(KeyClosing)))
	}

	return Composition{
		Title:    Title,
		Text:     normalizeSpacing(strings.Join(sections, "\n\n")),
		Question: question,
		Pool:     pool,
	}
}

// ChoosePool applies the question priority: low data, high confidence, low
// confidence, mixed categories, default.
func ChoosePool(m Metrics) QuestionPool {
	switch {
	case m.DecisionCount <= LowDataThreshold:
		return PoolLowData
	case m.AvgConfidence != nil && *m.AvgConfidence >= confidence.HighThreshold:
		return PoolHighConfidence
	case m.AvgConfidence != nil && *m.AvgConfidence <= confidence.LowThreshold:
		return PoolLowConfidence
	case m.TopCategory != "" && m.SecondaryCategory != "" && m.TopCategory != m.SecondaryCategory:
		return PoolMixed
	default:
		return PoolDefault
	}
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

func normalizeSpacing(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
