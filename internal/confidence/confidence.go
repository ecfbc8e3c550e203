// Package confidence provides the metric primitives over decision confidence
// scores: averages, bands, trends and per-category aggregation.
package confidence

import (
	"fmt"
	"sort"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/window"
)

// Band buckets an average confidence.
type Band string

const (
	BandHigh   Band = "HIGH"
	BandMedium Band = "MEDIUM"
	BandLow    Band = "LOW"
	BandNone   Band = "NONE"
)

// Thresholds shared by bands, direction and question pools.
const (
	HighThreshold  = 4.0
	LowThreshold   = 2.5
	TrendThreshold = 0.3
)

// Clamp rounds n to the nearest integer score in [1,5].
func Clamp(n float64) int {
	return models.ClampScore(n)
}

// Average returns the mean confidence, or nil for an empty set.
func Average(decisions []models.Decision) *float64 {
	if len(decisions) == 0 {
		return nil
	}
	sum := 0
	for _, d := range decisions {
		sum += d.Confidence
	}
	avg := float64(sum) / float64(len(decisions))
	return &avg
}

// BandFor classifies avg. A nil or non-positive average has no band.
func BandFor(avg *float64) Band {
	switch {
	case avg == nil || *avg <= 0:
		return BandNone
	case *avg >= HighThreshold:
		return BandHigh
	case *avg >= LowThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Trend compares the current average against the previous one.
func Trend(current, previous *float64) models.Trend {
	if current == nil || previous == nil {
		return models.TrendNA
	}
	delta := *current - *previous
	if delta >= TrendThreshold {
		return models.TrendUp
	}
	if delta <= -TrendThreshold {
		return models.TrendDown
	}
	return models.TrendSteady
}

// TrendForCounts only compares averages when both windows hold at least one decision.
func TrendForCounts(currentCount int, current *float64, previousCount int, previous *float64) models.Trend {
	if currentCount <= 0 || previousCount <= 0 {
		return models.TrendNA
	}
	return Trend(current, previous)
}

// TrendCopy returns the sentence describing a trend.
func TrendCopy(t models.Trend) string {
	switch t {
	case models.TrendUp:
		return "Confidence has been trending up recently."
	case models.TrendDown:
		return "Confidence has been trending down recently."
	case models.TrendSteady:
		return "Confidence has been holding steady recently."
	default:
		return "Log a few decisions over time to see a confidence trend."
	}
}

// Label is a caption/value pair for display.
type Label struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AverageLabel formats the weekly average; fewer than three decisions read as "so far".
func AverageLabel(count int, avg *float64) Label {
	if count <= 0 || avg == nil {
		return Label{Label: "Avg confidence", Value: "—"}
	}
	caption := "Avg confidence"
	if count < 3 {
		caption = "Avg confidence (so far)"
	}
	return Label{Label: caption, Value: fmt.Sprintf("%.1f", *avg)}
}

// ByCategory aggregates confidence per primary category, sorted by average
// descending. Equal averages keep the order in which categories first appear.
func ByCategory(decisions []models.Decision) []models.CategoryStat {
	type acc struct {
		sum, count int
	}
	var order []models.Category
	groups := make(map[models.Category]*acc)
	for _, d := range decisions {
		g, ok := groups[d.Category]
		if !ok {
			g = &acc{}
			groups[d.Category] = g
			order = append(order, d.Category)
		}
		g.sum += d.Confidence
		g.count++
	}

	out := make([]models.CategoryStat, 0, len(order))
	for _, c := range order {
		g := groups[c]
		out = append(out, models.CategoryStat{
			Category: c,
			Avg:      float64(g.sum) / float64(g.count),
			Count:    g.count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Avg > out[j].Avg })
	return out
}

// MinCategoryCount is the per-category sample needed for a confidence insight.
const MinCategoryCount = 2

// CategoryInsight names one category whose decisions feel more or less confident.
type CategoryInsight struct {
	Kind     models.InsightKind `json:"kind"`
	Category models.Category    `json:"category,omitempty"`
	Avg      float64            `json:"avg,omitempty"`
}

func eligible(stats []models.CategoryStat) []models.CategoryStat {
	var out []models.CategoryStat
	for _, s := range stats {
		if s.Count >= MinCategoryCount {
			out = append(out, s)
		}
	}
	return out
}

func extremes(stats []models.CategoryStat) (most, least models.CategoryStat) {
	most, least = stats[0], stats[0]
	for _, s := range stats[1:] {
		if s.Avg > most.Avg {
			most = s
		}
		if s.Avg < least.Avg {
			least = s
		}
	}
	return most, least
}

// PickCategoryInsight reports the most confident eligible category as MORE,
// including when every eligible average is equal. No eligible category yields NONE.
func PickCategoryInsight(stats []models.CategoryStat) CategoryInsight {
	el := eligible(stats)
	if len(el) == 0 {
		return CategoryInsight{Kind: models.InsightNone}
	}
	most, _ := extremes(el)
	return CategoryInsight{Kind: models.InsightMore, Category: most.Category, Avg: most.Avg}
}

// PickReflectionInsight is the variant used by weekly reflections. With two or
// more eligible categories and a drifting week it reports the least confident
// category as LESS; otherwise it behaves like PickCategoryInsight.
func PickReflectionInsight(stats []models.CategoryStat, direction models.DirectionStatus) CategoryInsight {
	el := eligible(stats)
	if len(el) == 0 {
		return CategoryInsight{Kind: models.InsightNone}
	}
	most, least := extremes(el)
	if len(el) >= 2 && direction == models.DirectionDrifting {
		return CategoryInsight{Kind: models.InsightLess, Category: least.Category, Avg: least.Avg}
	}
	return CategoryInsight{Kind: models.InsightMore, Category: most.Category, Avg: most.Avg}
}

// DailyPoint is the confidence of one local day.
type DailyPoint struct {
	Day   time.Time `json:"day"`
	Avg   *float64  `json:"avg"`
	Count int       `json:"count"`
}

// DailySeries averages confidence per local day of r.
func DailySeries(decisions []models.Decision, r window.Range) []DailyPoint {
	days := window.DaysIn(r)
	points := make([]DailyPoint, len(days))
	buckets := make([][]models.Decision, len(days))
	for _, d := range decisions {
		if !r.Contains(d.CreatedAt) {
			continue
		}
		day := window.StartOfDay(d.CreatedAt.In(r.Start.Location()))
		for i, start := range days {
			if day.Equal(start) {
				buckets[i] = append(buckets[i], d)
				break
			}
		}
	}
	for i, day := range days {
		points[i] = DailyPoint{Day: day, Avg: Average(buckets[i]), Count: len(buckets[i])}
	}
	return points
}
