package review

import (
	"sort"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/composer"
	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/genai"
	"github.com/BTreeMap/Pondr/internal/insights"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/questions"
	"github.com/BTreeMap/Pondr/internal/reflection"
	"github.com/BTreeMap/Pondr/internal/window"
)

// MinRepeatedTag is the number of uses before a tag counts as repeated.
const MinRepeatedTag = 2

// SummaryInput is the raw history a Summary is computed from.
type SummaryInput struct {
	Now    time.Time
	Window window.Range
	// Decisions fall in Window; Previous fall in the window before it.
	Decisions   []models.Decision
	Previous    []models.Decision
	TotalCount  int
	FirstAt     *time.Time
	RecentCount int
}

// Summary holds the weekly metrics behind reflections and the review screen.
type Summary struct {
	Window        window.Range    `json:"window"`
	DecisionCount int             `json:"decision_count"`
	TopCategory   models.Category `json:"top_category,omitempty"`
	// FocusCategory is empty when the top two categories tie.
	FocusCategory     models.Category            `json:"focus_category,omitempty"`
	FocusIsTie        bool                       `json:"focus_is_tie"`
	FocusCopy         string                     `json:"focus_copy"`
	SecondaryCategory models.Category            `json:"secondary_category,omitempty"`
	AvgConfidence     *float64                   `json:"avg_confidence"`
	AvgLabel          confidence.Label           `json:"avg_label"`
	Trend             models.Trend               `json:"trend"`
	Direction         models.DirectionStatus     `json:"direction"`
	ByCategory        confidence.CategoryInsight `json:"by_category"`
	Overlap           insights.OverlapSummary    `json:"overlap"`
	MostRepeatedTag   string                     `json:"most_repeated_tag,omitempty"`
	DaysWithDecisions int                        `json:"days_with_decisions"`
	Pace              models.Pace                `json:"pace,omitempty"`
	Daily             []confidence.DailyPoint    `json:"daily,omitempty"`
}

// Summarize computes a Summary. It is pure.
func Summarize(in SummaryInput) Summary {
	s := Summary{
		Window:        in.Window,
		DecisionCount: len(in.Decisions),
	}

	counts := insights.CategoryCounts(in.Decisions)
	if len(counts) > 0 {
		s.TopCategory = counts[0].Category
	}
	if len(counts) > 1 {
		s.SecondaryCategory = counts[1].Category
	}
	if len(counts) > 0 {
		focus := insights.FocusFromCounts(counts)
		s.FocusIsTie = focus.IsTie
		s.FocusCopy = focus.Copy
		if !focus.IsTie && focus.TopCategory != nil {
			s.FocusCategory = *focus.TopCategory
		}
	}

	s.AvgConfidence = confidence.Average(in.Decisions)
	s.AvgLabel = confidence.AverageLabel(s.DecisionCount, s.AvgConfidence)
	s.Trend = confidence.TrendForCounts(len(in.Decisions), s.AvgConfidence, len(in.Previous), confidence.Average(in.Previous))
	s.Direction = confidence.Direction(s.DecisionCount, s.AvgConfidence)
	s.ByCategory = confidence.PickReflectionInsight(confidence.ByCategory(in.Decisions), s.Direction)
	s.Overlap = insights.Overlaps(in.Decisions)
	s.MostRepeatedTag = mostRepeatedTag(in.Decisions)
	s.DaysWithDecisions = daysWithDecisions(in.Decisions, in.Window.Start.Location())
	s.Daily = confidence.DailySeries(in.Decisions, in.Window)
	if p, ok := insights.PaceFor(in.Now, in.TotalCount, in.FirstAt, in.RecentCount); ok {
		s.Pace = p
	}
	return s
}

// mostRepeatedTag returns the tag used most often, at least MinRepeatedTag
// times. Tags compare case-insensitively; ties keep first use.
func mostRepeatedTag(decisions []models.Decision) string {
	type tagCount struct {
		tag   string
		count int
	}
	var order []tagCount
	idx := make(map[string]int)
	for _, d := range decisions {
		for _, raw := range d.Tags {
			tag := strings.TrimSpace(raw)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			i, ok := idx[key]
			if !ok {
				i = len(order)
				idx[key] = i
				order = append(order, tagCount{tag: tag})
			}
			order[i].count++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].count > order[j].count })
	if len(order) == 0 || order[0].count < MinRepeatedTag {
		return ""
	}
	return order[0].tag
}

func daysWithDecisions(decisions []models.Decision, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[time.Time]bool)
	for _, d := range decisions {
		days[window.StartOfDay(d.CreatedAt.In(loc))] = true
	}
	return len(days)
}

// ReflectionInputs maps the summary onto template selection inputs.
func (s Summary) ReflectionInputs() reflection.Inputs {
	return reflection.Inputs{
		DecisionCount: s.DecisionCount,
		Direction:     s.Direction,
		Trend:         s.Trend,
		FocusCategory: s.FocusCategory,
		FocusIsTie:    s.FocusIsTie,
		ByCategory:    s.ByCategory,
		Pace:          s.Pace,
	}
}

// QuestionPatterns maps the summary onto gentle-question patterns.
func (s Summary) QuestionPatterns() questions.Patterns {
	return questions.Patterns{
		DecisionCount:      s.DecisionCount,
		MostCommonCategory: s.TopCategory,
		Trend:              s.Trend,
		Direction:          s.Direction,
	}
}

// ComposerMetrics maps the summary onto composer metrics, using display labels.
func (s Summary) ComposerMetrics() composer.Metrics {
	m := composer.Metrics{
		DecisionCount:     s.DecisionCount,
		AvgConfidence:     s.AvgConfidence,
		Trend:             s.Trend,
		MostRepeatedTag:   s.MostRepeatedTag,
		DaysWithDecisions: s.DaysWithDecisions,
	}
	if s.TopCategory != "" {
		m.TopCategory = s.TopCategory.Label()
	}
	if s.SecondaryCategory != "" {
		m.SecondaryCategory = s.SecondaryCategory.Label()
	}
	if p := s.Overlap.MostCommonPair; p != nil {
		m.Overlap = &composer.Overlap{A: p.A.Label(), B: p.B.Label()}
	}
	return m
}

// RemoteMetrics maps the summary onto the bundle sent for remote generation.
func (s Summary) RemoteMetrics() genai.ReflectionMetrics {
	var notable []string
	if p := s.Overlap.MostCommonPair; p != nil {
		notable = append(notable, insights.OverlapsCopy(s.Overlap.OverlapDecisionCount, p))
	}
	if s.ByCategory.Kind != models.InsightNone && s.ByCategory.Category != "" {
		notable = append(notable, insights.ByCategoryCopy(s.ByCategory.Category, s.ByCategory.Kind))
	}
	if s.MostRepeatedTag != "" {
		notable = append(notable, "Repeated tag: "+s.MostRepeatedTag)
	}
	if s.Pace != "" {
		notable = append(notable, insights.PaceCopy(s.Pace))
	}
	return genai.ReflectionMetrics{
		WindowStart:        s.Window.Start,
		WindowEnd:          s.Window.End,
		DecisionCount:      s.DecisionCount,
		FocusInsight:       s.FocusCopy,
		MostCommonCategory: s.TopCategory,
		AvgConfidence:      s.AvgConfidence,
		Trend:              s.Trend,
		Direction:          s.Direction,
		NotablePatterns:    notable,
	}
}
