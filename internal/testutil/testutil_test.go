package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
)

func TestDecisionFixture(t *testing.T) {
	d := Decision("a", models.CategoryHealth, 4, Monday, WithTags("sleep"), WithWhy("rest"), WithSecondary(models.CategoryCareer), WithTitle("Sleep early"))
	if err := d.Validate(); err != nil {
		t.Fatalf("fixture should be valid: %v", err)
	}
	if d.Title != "Sleep early" || *d.WhyText != "rest" || d.Tags[0] != "sleep" || d.SecondaryCategories[0] != models.CategoryCareer {
		t.Errorf("options not applied: %+v", d)
	}
}

func TestSeriesAndStore(t *testing.T) {
	ds := Series("h", 3, models.CategoryHealth, 3, Monday, time.Hour)
	if ds[2].ID != "h-2" || !ds[2].CreatedAt.Equal(Monday.Add(2*time.Hour)) {
		t.Errorf("unexpected series tail: %+v", ds[2])
	}
	st := NewStore(t, ds...)
	n, err := st.CountAll(context.Background())
	if err != nil || n != 3 {
		t.Errorf("CountAll = %d, %v; want 3", n, err)
	}
}

func TestClock(t *testing.T) {
	c := NewClock(Monday)
	c.Advance(time.Hour)
	if !c.Now().Equal(Monday.Add(time.Hour)) {
		t.Errorf("clock = %v", c.Now())
	}
}
