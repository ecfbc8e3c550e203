package insights

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/Pondr/internal/models"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func at(c models.Category, conf int, ts time.Time, secondary ...models.Category) models.Decision {
	return models.Decision{Category: c, Confidence: conf, SecondaryCategories: secondary, CreatedAt: ts, UpdatedAt: ts}
}

func TestOverlaps_Example(t *testing.T) {
	got := Overlaps([]models.Decision{
		at(models.CategoryCareer, 3, monday, models.CategoryHealth),
		at(models.CategoryCareer, 3, monday, models.CategoryHealth, models.CategoryLearning),
		at(models.CategoryHealth, 3, monday, models.CategoryCareer),
		at(models.CategoryLearning, 3, monday),
	})
	assert.Equal(t, 3, got.OverlapDecisionCount)
	require.NotNil(t, got.MostCommonPair)
	assert.Equal(t, Pair{A: models.CategoryCareer, B: models.CategoryHealth}, *got.MostCommonPair)
}

func TestOverlaps_TieKeepsFirstPair(t *testing.T) {
	got := Overlaps([]models.Decision{
		at(models.CategoryMoney, 3, monday, models.CategoryLifestyle),
		at(models.CategoryCareer, 3, monday, models.CategoryHealth),
	})
	require.NotNil(t, got.MostCommonPair)
	assert.Equal(t, Pair{A: models.CategoryLifestyle, B: models.CategoryMoney}, *got.MostCommonPair)
}

func TestOverlaps_None(t *testing.T) {
	got := Overlaps([]models.Decision{at(models.CategoryMoney, 3, monday)})
	assert.Equal(t, 0, got.OverlapDecisionCount)
	assert.Nil(t, got.MostCommonPair)
	assert.Equal(t, OverlapsPlaceholder, OverlapsCopy(got.OverlapDecisionCount, got.MostCommonPair))
}

func TestOverlapsCopy(t *testing.T) {
	p := &Pair{A: models.CategoryCareer, B: models.CategoryHealth}
	assert.Equal(t, OverlapsPlaceholder, OverlapsCopy(1, p))
	assert.Equal(t,
		"This week, 3 decisions included more than one category. A common overlap was Career + Health.",
		OverlapsCopy(3, p))
}

func TestFocusFromCounts(t *testing.T) {
	tie := FocusFromCounts([]models.CategoryCount{
		{Category: models.CategoryCareer, Count: 2},
		{Category: models.CategoryHealth, Count: 2},
	})
	assert.True(t, tie.IsTie)
	assert.Equal(t, NoClearFocusCopy, tie.Copy)
	require.NotNil(t, tie.TopCategory)
	assert.Equal(t, models.CategoryCareer, *tie.TopCategory)

	single := FocusFromCounts([]models.CategoryCount{
		{Category: models.CategoryHealth, Count: 1},
		{Category: models.CategoryMoney, Count: 3},
	})
	assert.False(t, single.IsTie)
	assert.Equal(t, "Most of your recent decisions were about Money.", single.Copy)

	empty := FocusFromCounts(nil)
	assert.Nil(t, empty.TopCategory)
	assert.Equal(t, NoClearFocusCopy, empty.Copy)
}

func TestPaceFor(t *testing.T) {
	now := monday.AddDate(0, 0, 30)
	first := monday

	_, ok := PaceFor(now, 2, &first, 2)
	assert.False(t, ok, "needs three decisions")
	_, ok = PaceFor(now, 5, nil, 2)
	assert.False(t, ok, "needs a first timestamp")

	// 31 days since first: avgPer14 = 10 / (31/14) ≈ 4.52
	p, ok := PaceFor(now, 10, &first, 5)
	require.True(t, ok)
	assert.Equal(t, models.PaceMore, p)
	p, _ = PaceFor(now, 10, &first, 4)
	assert.Equal(t, models.PaceFewer, p)

	// Young history is measured against a 14-day floor.
	recentFirst := now.Add(-2 * 24 * time.Hour)
	p, _ = PaceFor(now, 3, &recentFirst, 3)
	assert.Equal(t, models.PaceMore, p)
}

func TestRepeatedCategory(t *testing.T) {
	var latest []models.Decision
	for i := 0; i < 7; i++ {
		latest = append(latest, at(models.CategoryCareer, 3, monday))
	}
	_, ok := RepeatedCategory(latest)
	assert.False(t, ok, "fewer than eight decisions")

	latest = append(latest, at(models.CategoryHealth, 3, monday))
	top, ok := RepeatedCategory(latest)
	require.True(t, ok)
	assert.Equal(t, models.CategoryCareer, top.Category)
	assert.Equal(t, 7, top.Count)

	cycle := []models.Category{models.CategoryCareer, models.CategoryHealth, models.CategoryMoney}
	mixed := []models.Decision{}
	for i := 0; i < 10; i++ {
		mixed = append(mixed, at(cycle[i%3], 3, monday))
	}
	_, ok = RepeatedCategory(mixed)
	assert.False(t, ok, "no category reaches five")
}

func TestBuild_EmptyHistory(t *testing.T) {
	snap := Build(Input{Now: monday.Add(10 * time.Hour), WeekStart: time.Monday})

	_, ok := snap.Find(TypeDecisionFocus)
	assert.False(t, ok)
	_, ok = snap.Find(TypeDecisionPace)
	assert.False(t, ok)

	c, ok := snap.Find(TypeConfidenceByCategory)
	require.True(t, ok)
	assert.Equal(t, ByCategoryPlaceholder, c.Header().Copy)
	assert.Empty(t, c.(ByCategoryCard).Category)

	c, ok = snap.Find(TypeConfidenceTrend)
	require.True(t, ok)
	assert.Equal(t, models.TrendNA, c.(TrendCard).Trend)
	assert.Equal(t, TrendPlaceholder, c.Header().Copy)

	c, ok = snap.Find(TypeDirectionStatus)
	require.True(t, ok)
	assert.Equal(t, models.DirectionNoSignal, c.(DirectionCard).Status)
}

func TestBuild_FullWeek(t *testing.T) {
	now := monday.Add(3*24*time.Hour + 12*time.Hour)
	week := []models.Decision{
		at(models.CategoryCareer, 5, monday.Add(1*time.Hour), models.CategoryMoney),
		at(models.CategoryCareer, 4, monday.Add(2*time.Hour), models.CategoryMoney),
		at(models.CategoryHealth, 4, monday.Add(3*time.Hour)),
		at(models.CategoryHealth, 4, monday.Add(4*time.Hour)),
		at(models.CategoryCareer, 4, monday.Add(5*time.Hour)),
	}
	prev := []models.Decision{at(models.CategoryCareer, 3, monday.Add(-48*time.Hour))}
	first := monday.AddDate(0, 0, -40)
	latest := make([]models.Decision, len(week))
	for i := range week {
		latest[i] = week[len(week)-1-i]
	}

	snap := Build(Input{
		Now:          now,
		WeekStart:    time.Monday,
		Week:         week,
		PreviousWeek: prev,
		TotalCount:   8,
		FirstAt:      &first,
		RecentCount:  6,
		Latest:       latest,
	})

	c, ok := snap.Find(TypeDecisionFocus)
	require.True(t, ok)
	assert.Equal(t, models.CategoryCareer, c.(FocusCard).Category)

	c, _ = snap.Find(TypeCategoryOverlaps)
	assert.Equal(t, 2, c.(OverlapsCard).OverlapDecisionCount)

	c, _ = snap.Find(TypeConfidenceByCategory)
	assert.Equal(t, models.CategoryCareer, c.(ByCategoryCard).Category)
	assert.Equal(t, "Decisions about Career tend to feel more confident.", c.Header().Copy)

	c, _ = snap.Find(TypeConfidenceTrend)
	assert.Equal(t, models.TrendUp, c.(TrendCard).Trend)

	c, ok = snap.Find(TypeDecisionPace)
	require.True(t, ok)
	assert.Equal(t, models.PaceMore, c.(PaceCard).Pace)

	c, _ = snap.Find(TypeDirectionStatus)
	assert.Equal(t, models.DirectionGrowing, c.(DirectionCard).Status)

	_, ok = snap.Find(TypeRepeatedChoicePattern)
	assert.False(t, ok)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"decision_focus"`)
}

func TestBuild_FocusTieHasNoCategory(t *testing.T) {
	snap := Build(Input{
		Now:       monday.Add(time.Hour * 30),
		WeekStart: time.Monday,
		Week: []models.Decision{
			at(models.CategoryCareer, 3, monday.Add(time.Hour)),
			at(models.CategoryHealth, 3, monday.Add(2*time.Hour)),
		},
	})
	c, ok := snap.Find(TypeDecisionFocus)
	require.True(t, ok)
	fc := c.(FocusCard)
	assert.True(t, fc.IsTie)
	assert.Empty(t, fc.Category)
	assert.Equal(t, NoClearFocusCopy, fc.Copy)
}

type fakeSource struct {
	decisions []models.Decision
	err       error
}

func (f *fakeSource) ListDecisionsInRange(_ context.Context, start, end time.Time) ([]models.Decision, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Decision
	for _, d := range f.decisions {
		if !d.CreatedAt.Before(start) && d.CreatedAt.Before(end) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeSource) CountInRange(ctx context.Context, start, end time.Time) (int, error) {
	ds, err := f.ListDecisionsInRange(ctx, start, end)
	return len(ds), err
}

func (f *fakeSource) CountAll(context.Context) (int, error) { return len(f.decisions), nil }

func (f *fakeSource) FirstDecisionAt(context.Context) (*time.Time, error) {
	if len(f.decisions) == 0 {
		return nil, nil
	}
	first := f.decisions[0].CreatedAt
	return &first, nil
}

func (f *fakeSource) RecentDecisions(_ context.Context, limit int) ([]models.Decision, error) {
	var out []models.Decision
	for i := len(f.decisions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.decisions[i])
	}
	return out, nil
}

func TestCollect(t *testing.T) {
	now := monday.Add(50 * time.Hour)
	src := &fakeSource{decisions: []models.Decision{
		at(models.CategoryMoney, 2, monday.AddDate(0, 0, -20)),
		at(models.CategoryMoney, 2, monday.AddDate(0, 0, -3)),
		at(models.CategoryCareer, 4, monday.Add(time.Hour)),
		at(models.CategoryCareer, 5, monday.Add(26*time.Hour)),
	}}
	in, err := Collect(context.Background(), src, now, time.Monday)
	require.NoError(t, err)
	assert.Len(t, in.Week, 2)
	assert.Len(t, in.PreviousWeek, 1)
	assert.Equal(t, 4, in.TotalCount)
	assert.Equal(t, 3, in.RecentCount)
	require.NotNil(t, in.FirstAt)
	assert.Len(t, in.Latest, 4)
	assert.Equal(t, models.CategoryCareer, in.Latest[0].Category)

	src.err = errors.New("boom")
	_, err = Collect(context.Background(), src, now, time.Monday)
	assert.Error(t, err)
}
