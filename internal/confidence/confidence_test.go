package confidence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/window"
)

func f(v float64) *float64 { return &v }

func dec(c models.Category, conf int) models.Decision {
	return models.Decision{Category: c, Confidence: conf}
}

func TestAverage(t *testing.T) {
	assert.Nil(t, Average(nil))
	avg := Average([]models.Decision{dec(models.CategoryCareer, 2), dec(models.CategoryCareer, 5)})
	require.NotNil(t, avg)
	assert.InDelta(t, 3.5, *avg, 1e-9)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandNone, BandFor(nil))
	assert.Equal(t, BandNone, BandFor(f(0)))
	assert.Equal(t, BandHigh, BandFor(f(4.0)))
	assert.Equal(t, BandMedium, BandFor(f(2.5)))
	assert.Equal(t, BandMedium, BandFor(f(3.99)))
	assert.Equal(t, BandLow, BandFor(f(2.49)))
}

func TestTrend(t *testing.T) {
	assert.Equal(t, models.TrendNA, Trend(nil, f(3)))
	assert.Equal(t, models.TrendNA, Trend(f(3), nil))
	assert.Equal(t, models.TrendUp, Trend(f(3.5), f(3.0)))
	assert.Equal(t, models.TrendDown, Trend(f(2.5), f(3.0)))
	assert.Equal(t, models.TrendSteady, Trend(f(3.2), f(3.0)))
	assert.Equal(t, models.TrendSteady, Trend(f(2.8), f(3.0)))

	for a := 1.0; a <= 5.0; a += 0.1 {
		for b := 1.0; b <= 5.0; b += 0.1 {
			got := Trend(f(a), f(b))
			switch {
			case a-b >= TrendThreshold:
				assert.Equal(t, models.TrendUp, got)
			case a-b <= -TrendThreshold:
				assert.Equal(t, models.TrendDown, got)
			default:
				assert.Equal(t, models.TrendSteady, got)
			}
		}
	}
}

func TestTrendForCounts_GatesOnCount(t *testing.T) {
	assert.Equal(t, models.TrendNA, TrendForCounts(0, f(0), 3, f(3)))
	assert.Equal(t, models.TrendNA, TrendForCounts(2, f(4), 0, f(0)))
	assert.Equal(t, models.TrendUp, TrendForCounts(2, f(4), 1, f(3)))
}

func TestDirection(t *testing.T) {
	for _, avg := range []*float64{nil, f(0), f(1), f(5)} {
		assert.Equal(t, models.DirectionNoSignal, Direction(0, avg))
	}
	for _, n := range []int{1, 2} {
		assert.Equal(t, models.DirectionStable, Direction(n, nil))
		assert.Equal(t, models.DirectionDrifting, Direction(n, f(2.4)))
		assert.Equal(t, models.DirectionStable, Direction(n, f(2.5)))
		assert.Equal(t, models.DirectionStable, Direction(n, f(5)))
	}
	assert.Equal(t, models.DirectionGrowing, Direction(3, f(4.0)))
	assert.Equal(t, models.DirectionStable, Direction(3, f(3.9)))
	assert.Equal(t, models.DirectionDrifting, Direction(5, f(2.4)))
	assert.Equal(t, models.DirectionDrifting, Direction(5, nil))
}

func TestAverageLabel(t *testing.T) {
	assert.Equal(t, Label{"Avg confidence", "—"}, AverageLabel(0, nil))
	assert.Equal(t, Label{"Avg confidence (so far)", "3.5"}, AverageLabel(2, f(3.5)))
	assert.Equal(t, Label{"Avg confidence", "4.3"}, AverageLabel(3, f(4.333)))
}

func TestByCategory_SortedAndStable(t *testing.T) {
	got := ByCategory([]models.Decision{
		dec(models.CategoryHealth, 3),
		dec(models.CategoryCareer, 5),
		dec(models.CategoryMoney, 3),
		dec(models.CategoryCareer, 3),
	})
	want := []models.CategoryStat{
		{Category: models.CategoryCareer, Avg: 4, Count: 2},
		{Category: models.CategoryHealth, Avg: 3, Count: 1},
		{Category: models.CategoryMoney, Avg: 3, Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ByCategory mismatch (-want +got):\n%s", diff)
	}
}

func TestPickCategoryInsight(t *testing.T) {
	assert.Equal(t, models.InsightNone, PickCategoryInsight(nil).Kind)
	assert.Equal(t, models.InsightNone, PickCategoryInsight([]models.CategoryStat{
		{Category: models.CategoryCareer, Avg: 5, Count: 1},
	}).Kind)

	stats := []models.CategoryStat{
		{Category: models.CategoryCareer, Avg: 5, Count: 1},
		{Category: models.CategoryHealth, Avg: 4, Count: 2},
		{Category: models.CategoryMoney, Avg: 2, Count: 3},
	}
	got := PickCategoryInsight(stats)
	assert.Equal(t, models.InsightMore, got.Kind)
	assert.Equal(t, models.CategoryHealth, got.Category)

	tie := PickCategoryInsight([]models.CategoryStat{
		{Category: models.CategoryLearning, Avg: 3, Count: 2},
		{Category: models.CategoryMoney, Avg: 3, Count: 2},
	})
	assert.Equal(t, CategoryInsight{Kind: models.InsightMore, Category: models.CategoryLearning, Avg: 3}, tie)
}

func TestPickReflectionInsight(t *testing.T) {
	stats := []models.CategoryStat{
		{Category: models.CategoryHealth, Avg: 4, Count: 2},
		{Category: models.CategoryMoney, Avg: 2, Count: 3},
	}
	assert.Equal(t, models.InsightLess, PickReflectionInsight(stats, models.DirectionDrifting).Kind)
	assert.Equal(t, models.CategoryMoney, PickReflectionInsight(stats, models.DirectionDrifting).Category)
	assert.Equal(t, models.InsightMore, PickReflectionInsight(stats, models.DirectionStable).Kind)
	assert.Equal(t, models.InsightMore, PickReflectionInsight(stats[:1], models.DirectionDrifting).Kind)
}

func TestCopyForDirection(t *testing.T) {
	assert.Equal(t, "Not enough data yet", CopyForDirection(models.DirectionNoSignal).Title)
	assert.Equal(t, "Your current direction looks Growing.", CopyForDirection(models.DirectionGrowing).Title)
}

func TestDailySeries(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	r := window.CurrentWeek(now, time.Monday)
	ds := []models.Decision{
		{Category: models.CategoryCareer, Confidence: 4, CreatedAt: r.Start.Add(2 * time.Hour)},
		{Category: models.CategoryCareer, Confidence: 2, CreatedAt: r.Start.Add(5 * time.Hour)},
		{Category: models.CategoryCareer, Confidence: 5, CreatedAt: r.Start.Add(50 * time.Hour)},
		{Category: models.CategoryCareer, Confidence: 1, CreatedAt: r.End},
	}
	pts := DailySeries(ds, r)
	require.Len(t, pts, 7)
	require.NotNil(t, pts[0].Avg)
	assert.InDelta(t, 3.0, *pts[0].Avg, 1e-9)
	assert.Equal(t, 2, pts[0].Count)
	assert.Nil(t, pts[1].Avg)
	assert.Equal(t, 1, pts[2].Count)
}
