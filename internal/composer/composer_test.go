package composer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/tone"
)

func f(v float64) *float64 { return &v }

func sampleMetrics() Metrics {
	return Metrics{
		DecisionCount:     6,
		TopCategory:       "Health",
		SecondaryCategory: "Career",
		Overlap:           &Overlap{A: "Health", B: "Career"},
		AvgConfidence:     f(3.3),
		Trend:             models.TrendSteady,
		MostRepeatedTag:   "sleep",
		DaysWithDecisions: 4,
	}
}

func TestSeed_FNV1a(t *testing.T) {
	assert.Equal(t, uint32(0x811c9dc5), Seed(""))
	assert.Equal(t, uint32(0xe40c292c), Seed("a"))
}

func TestNewRand_Mulberry32(t *testing.T) {
	assert.InDelta(t, 0.26642920868471265, NewRand(0)(), 1e-15)
	assert.InDelta(t, 0.6270739405881613, NewRand(1)(), 1e-15)

	r := NewRand(42)
	first, second := r(), r()
	assert.NotEqual(t, first, second)
	for i := 0; i < 1000; i++ {
		v := r()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestPick(t *testing.T) {
	assert.Equal(t, "", Pick(nil, "k"))
	assert.Equal(t, "only", Pick([]string{"only"}, "k"))
	pool := []string{"a", "b", "c"}
	assert.Equal(t, Pick(pool, "same"), Pick(pool, "same"))
}

func TestCompose_Deterministic(t *testing.T) {
	week := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	a := Compose("user-123", week, sampleMetrics())
	b := Compose("user-123", week, sampleMetrics())
	assert.Equal(t, a.Text, b.Text)
	assert.Equal(t, Title, a.Title)
}

func TestCompose_KnownSeedSelection(t *testing.T) {
	out := ComposeISO("user-123", "2026-01-05T00:00:00.000Z", sampleMetrics())
	paragraphs := strings.Split(out.Text, "\n\n")
	require.Len(t, paragraphs, 6)
	assert.Equal(t, openers[2], paragraphs[0])
	assert.Equal(t, "You logged 6 decisions, most often around Health.", paragraphs[1])
	assert.Equal(t, "A few decisions linked several areas, with Health and Career showing up together.", paragraphs[2])
	assert.Equal(t, PoolMixed, out.Pool)
	assert.Equal(t, paragraphs[4], out.Question)
}

func TestCompose_NextWeekDiffers(t *testing.T) {
	a := ComposeISO("user-123", "2026-01-05T00:00:00.000Z", sampleMetrics())
	b := ComposeISO("user-123", "2026-01-12T00:00:00.000Z", sampleMetrics())
	assert.NotEqual(t, a.Text, b.Text)
}

func TestCompose_WeeksVaryAcrossSamples(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	same, total := 0, 0
	for u := 0; u < 20; u++ {
		user := fmt.Sprintf("user-%d", u)
		for w := 0; w < 10; w++ {
			week := start.AddDate(0, 0, 7*w)
			a := Compose(user, week, sampleMetrics())
			b := Compose(user, week.AddDate(0, 0, 7), sampleMetrics())
			if a.Text == b.Text {
				same++
			}
			total++
		}
	}
	assert.Less(t, same, total/20, "too many identical consecutive weeks: %d/%d", same, total)
}

func TestCompose_NoDecisions(t *testing.T) {
	out := Compose("user-123", time.Now(), Metrics{Trend: models.TrendNA})
	assert.Equal(t, NoDecisionsText, out.Text)
	assert.Empty(t, out.Question)
}

func TestCompose_LowDataOmitsClosing(t *testing.T) {
	m := Metrics{DecisionCount: 1, TopCategory: "Money", AvgConfidence: f(5), Trend: models.TrendNA}
	out := ComposeISO("u", "2026-01-05T00:00:00.000Z", m)
	paragraphs := strings.Split(out.Text, "\n\n")
	require.Len(t, paragraphs, 5)
	assert.Equal(t, PoolLowData, out.Pool)
	assert.Contains(t, questionPools[PoolLowData], out.Question)
	assert.Contains(t, paragraphs[1], "1 ")
	assert.NotContains(t, paragraphs[1], "decisions")
	for _, c := range closings {
		assert.NotContains(t, out.Text, c)
	}
}

func TestCompose_MissingTopCategory(t *testing.T) {
	m := Metrics{DecisionCount: 4, AvgConfidence: f(3), Trend: models.TrendUp}
	out := ComposeISO("u", "2026-01-05T00:00:00.000Z", m)
	assert.Contains(t, out.Text, MixedAreas)
}

func TestChoosePool(t *testing.T) {
	assert.Equal(t, PoolLowData, ChoosePool(Metrics{DecisionCount: 2, AvgConfidence: f(5)}))
	assert.Equal(t, PoolHighConfidence, ChoosePool(Metrics{DecisionCount: 3, AvgConfidence: f(4)}))
	assert.Equal(t, PoolLowConfidence, ChoosePool(Metrics{DecisionCount: 3, AvgConfidence: f(2.5)}))
	assert.Equal(t, PoolMixed, ChoosePool(Metrics{DecisionCount: 3, AvgConfidence: f(3), TopCategory: "A", SecondaryCategory: "B"}))
	assert.Equal(t, PoolDefault, ChoosePool(Metrics{DecisionCount: 3, AvgConfidence: f(3), TopCategory: "A", SecondaryCategory: "A"}))
	assert.Equal(t, PoolDefault, ChoosePool(Metrics{DecisionCount: 3}))
}

func TestCompose_SpacingNormalized(t *testing.T) {
	out := ComposeISO("u", "w", sampleMetrics())
	assert.NotContains(t, out.Text, "\n\n\n")
	for _, line := range strings.Split(out.Text, "\n") {
		assert.Equal(t, strings.TrimRight(line, " \t"), line)
	}
	assert.Equal(t, "a\n\nb", normalizeSpacing("a  \n\n\n\nb"))
}

func TestPools_NoBannedWords(t *testing.T) {
	for _, s := range AllPoolText() {
		assert.False(t, tone.ContainsBanned(s), "banned word in %q", s)
	}
}

func TestCompose_NoBannedWordsAcrossMetrics(t *testing.T) {
	trends := []models.Trend{models.TrendUp, models.TrendDown, models.TrendSteady, models.TrendNA}
	avgs := []*float64{nil, f(1.5), f(3), f(4.5)}
	for count := 0; count <= 5; count++ {
		for _, tr := range trends {
			for _, avg := range avgs {
				for u := 0; u < 5; u++ {
					m := Metrics{DecisionCount: count, TopCategory: "Learning", SecondaryCategory: "Money",
						AvgConfidence: avg, Trend: tr, MostRepeatedTag: "walks"}
					if u%2 == 0 {
						m.Overlap = &Overlap{A: "Learning", B: "Money"}
					}
					out := ComposeISO(fmt.Sprintf("user-%d", u), "2026-02-02T00:00:00.000Z", m)
					assert.Empty(t, tone.Violations(out.Text))
					if count == 0 {
						assert.Contains(t, out.Text, NoDecisionsText)
					}
				}
			}
		}
	}
}
