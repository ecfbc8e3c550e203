package insights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/window"
)

// Windows and thresholds used by the pace and repeated-pattern cards.
const (
	PaceWindowDays      = 14
	MinDecisionsForPace = 3
	RepeatedSampleSize  = 10
	RepeatedMinSample   = 8
	RepeatedMinCategory = 5
)

// Input is everything Build needs, read against a single captured Now.
type Input struct {
	Now       time.Time
	WeekStart time.Weekday
	// Week and PreviousWeek are the decisions of the current and previous calendar weeks.
	Week         []models.Decision
	PreviousWeek []models.Decision
	// TotalCount and FirstAt describe the lifetime history.
	TotalCount int
	FirstAt    *time.Time
	// RecentCount counts decisions in the trailing 14 local days, today included.
	RecentCount int
	// Latest holds up to RepeatedSampleSize decisions, newest first.
	Latest []models.Decision
}

// Source is the read side of the decision store used by Collect.
type Source interface {
	ListDecisionsInRange(ctx context.Context, start, end time.Time) ([]models.Decision, error)
	CountInRange(ctx context.Context, start, end time.Time) (int, error)
	CountAll(ctx context.Context) (int, error)
	FirstDecisionAt(ctx context.Context) (*time.Time, error)
	RecentDecisions(ctx context.Context, limit int) ([]models.Decision, error)
}

// RecentRange is the trailing pace window: local midnight thirteen days ago up
// to the end of today.
func RecentRange(now time.Time) window.Range {
	today := window.StartOfDay(now)
	return window.Range{Start: today.AddDate(0, 0, -(PaceWindowDays - 1)), End: today.AddDate(0, 0, 1)}
}

// Collect reads an Input from src for the given now.
func Collect(ctx context.Context, src Source, now time.Time, weekStart time.Weekday) (Input, error) {
	in := Input{Now: now, WeekStart: weekStart}
	cur := window.CurrentWeek(now, weekStart)
	prev := window.PreviousWeek(now, weekStart)

	var err error
	if in.Week, err = src.ListDecisionsInRange(ctx, cur.Start, cur.End); err != nil {
		return Input{}, fmt.Errorf("failed to list current week: %w", err)
	}
	if in.PreviousWeek, err = src.ListDecisionsInRange(ctx, prev.Start, prev.End); err != nil {
		return Input{}, fmt.Errorf("failed to list previous week: %w", err)
	}
	if in.TotalCount, err = src.CountAll(ctx); err != nil {
		return Input{}, fmt.Errorf("failed to count decisions: %w", err)
	}
	if in.FirstAt, err = src.FirstDecisionAt(ctx); err != nil {
		return Input{}, fmt.Errorf("failed to read first decision time: %w", err)
	}
	recent := RecentRange(now)
	if in.RecentCount, err = src.CountInRange(ctx, recent.Start, recent.End); err != nil {
		return Input{}, fmt.Errorf("failed to count recent decisions: %w", err)
	}
	if in.Latest, err = src.RecentDecisions(ctx, RepeatedSampleSize); err != nil {
		return Input{}, fmt.Errorf("failed to list latest decisions: %w", err)
	}
	return in, nil
}

// Build computes every card that applies to in, in display order.
func Build(in Input) Snapshot {
	var cards []Card
	if c, ok := focusCard(in.Week); ok {
		cards = append(cards, c)
	}
	cards = append(cards, overlapsCard(in.Week))
	cards = append(cards, byCategoryCard(in.Week))
	cards = append(cards, trendCard(in.Week, in.PreviousWeek))
	if c, ok := paceCard(in.Now, in.TotalCount, in.FirstAt, in.RecentCount); ok {
		cards = append(cards, c)
	}
	cards = append(cards, directionCard(in.Week))
	if c, ok := repeatedPatternCard(in.Latest); ok {
		cards = append(cards, c)
	}
	return Snapshot{Cards: cards}
}

// CategoryCounts counts primary categories, most frequent first. Equal counts
// keep first-encounter order.
func CategoryCounts(decisions []models.Decision) []models.CategoryCount {
	var out []models.CategoryCount
	idx := make(map[models.Category]int)
	for _, d := range decisions {
		i, ok := idx[d.Category]
		if !ok {
			i = len(out)
			idx[d.Category] = i
			out = append(out, models.CategoryCount{Category: d.Category})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// FocusResult is the outcome of a focus computation over category counts.
type FocusResult struct {
	Copy        string
	TopCategory *models.Category
	IsTie       bool
}

// FocusFromCounts picks the focus category from count rows. A tie between the
// top two nonzero counts reports the tie copy while still naming the first
// sorted category in TopCategory.
func FocusFromCounts(rows []models.CategoryCount) FocusResult {
	if len(rows) == 0 {
		return FocusResult{Copy: NoClearFocusCopy, IsTie: true}
	}
	sorted := append([]models.CategoryCount(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	top := sorted[0].Category
	if len(sorted) > 1 && sorted[0].Count > 0 && sorted[1].Count == sorted[0].Count {
		return FocusResult{Copy: NoClearFocusCopy, TopCategory: &top, IsTie: true}
	}
	return FocusResult{Copy: FocusCopy(top), TopCategory: &top}
}

func focusCard(week []models.Decision) (FocusCard, bool) {
	counts := CategoryCounts(week)
	if len(counts) == 0 {
		return FocusCard{}, false
	}
	res := FocusFromCounts(counts)
	card := FocusCard{Base: newBase(TypeDecisionFocus, res.Copy), IsTie: res.IsTie}
	if !res.IsTie {
		card.Category = *res.TopCategory
	}
	return card, true
}

// OverlapSummary counts decisions with secondary categories and the most
// frequent (primary, secondary) pair.
type OverlapSummary struct {
	OverlapDecisionCount int   `json:"overlap_decision_count"`
	MostCommonPair       *Pair `json:"most_common_pair"`
}

// NewPair orders two categories lexicographically.
func NewPair(x, y models.Category) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Overlaps summarizes category overlaps. Pairs are counted in iteration order
// and a later pair only wins with a strictly higher count.
func Overlaps(decisions []models.Decision) OverlapSummary {
	var (
		summary OverlapSummary
		order   []Pair
		counts  = make(map[Pair]int)
	)
	for _, d := range decisions {
		if len(d.SecondaryCategories) == 0 {
			continue
		}
		summary.OverlapDecisionCount++
		for _, sec := range d.SecondaryCategories {
			p := NewPair(d.Category, sec)
			if _, ok := counts[p]; !ok {
				order = append(order, p)
			}
			counts[p]++
		}
	}

	best := 0
	for _, p := range order {
		if counts[p] > best {
			best = counts[p]
			pair := p
			summary.MostCommonPair = &pair
		}
	}
	return summary
}

func overlapsCard(week []models.Decision) OverlapsCard {
	s := Overlaps(week)
	return OverlapsCard{
		Base:                 newBase(TypeCategoryOverlaps, OverlapsCopy(s.OverlapDecisionCount, s.MostCommonPair)),
		OverlapDecisionCount: s.OverlapDecisionCount,
		MostCommonPair:       s.MostCommonPair,
	}
}

func byCategoryCard(week []models.Decision) ByCategoryCard {
	pick := confidence.PickCategoryInsight(confidence.ByCategory(week))
	if pick.Kind == models.InsightNone {
		return ByCategoryCard{Base: newBase(TypeConfidenceByCategory, ByCategoryPlaceholder), Kind: models.InsightNone}
	}
	return ByCategoryCard{
		Base:     newBase(TypeConfidenceByCategory, ByCategoryCopy(pick.Category, pick.Kind)),
		Category: pick.Category,
		Kind:     pick.Kind,
	}
}

func trendCard(week, previous []models.Decision) TrendCard {
	t := confidence.TrendForCounts(len(week), confidence.Average(week), len(previous), confidence.Average(previous))
	return TrendCard{Base: newBase(TypeConfidenceTrend, TrendCardCopy(t)), Trend: t}
}

// PaceFor compares recentCount with the lifetime 14-day rate. It reports false
// below MinDecisionsForPace decisions or without a first timestamp.
func PaceFor(now time.Time, total int, firstAt *time.Time, recentCount int) (models.Pace, bool) {
	if total < MinDecisionsForPace || firstAt == nil || firstAt.IsZero() {
		return "", false
	}
	elapsedDays := math.Floor(float64(now.Sub(*firstAt)) / float64(window.Day))
	daysSinceFirst := math.Max(PaceWindowDays, elapsedDays+1)
	avgPer14 := float64(total) / (daysSinceFirst / PaceWindowDays)
	if float64(recentCount) >= avgPer14 {
		return models.PaceMore, true
	}
	return models.PaceFewer, true
}

func paceCard(now time.Time, total int, firstAt *time.Time, recent int) (PaceCard, bool) {
	p, ok := PaceFor(now, total, firstAt, recent)
	if !ok {
		return PaceCard{}, false
	}
	return PaceCard{Base: newBase(TypeDecisionPace, PaceCopy(p)), Pace: p}, true
}

func directionCard(week []models.Decision) DirectionCard {
	s := confidence.Direction(len(week), confidence.Average(week))
	return DirectionCard{Base: newBase(TypeDirectionStatus, DirectionCardCopy(s)), Status: s}
}

// RepeatedCategory looks at up to the newest RepeatedSampleSize decisions and
// reports a category appearing at least RepeatedMinCategory times, given a
// sample of at least RepeatedMinSample.
func RepeatedCategory(latest []models.Decision) (models.CategoryCount, bool) {
	if len(latest) > RepeatedSampleSize {
		latest = latest[:RepeatedSampleSize]
	}
	if len(latest) < RepeatedMinSample {
		return models.CategoryCount{}, false
	}
	counts := CategoryCounts(latest)
	if counts[0].Count < RepeatedMinCategory {
		return models.CategoryCount{}, false
	}
	return counts[0], true
}

func repeatedPatternCard(latest []models.Decision) (RepeatedPatternCard, bool) {
	top, ok := RepeatedCategory(latest)
	if !ok {
		return RepeatedPatternCard{}, false
	}
	return RepeatedPatternCard{
		Base:     newBase(TypeRepeatedChoicePattern, RepeatedPatternCopy),
		Category: top.Category,
		Count:    top.Count,
	}, true
}
