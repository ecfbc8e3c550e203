// Package testutil provides common test fixtures for Pondr tests.
package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/store"
)

// Monday is the reference week start used across tests: 2026-01-05 00:00 UTC.
var Monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

// NewClock returns a Clock at t.
func NewClock(t time.Time) *Clock { return &Clock{T: t} }

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// DecisionOption adjusts a fixture decision.
type DecisionOption func(*models.Decision)

// WithSecondary sets secondary categories.
func WithSecondary(cats ...models.Category) DecisionOption {
	return func(d *models.Decision) { d.SecondaryCategories = cats }
}

// WithTags sets tags.
func WithTags(tags ...string) DecisionOption {
	return func(d *models.Decision) { d.Tags = tags }
}

// WithWhy sets the why text.
func WithWhy(why string) DecisionOption {
	return func(d *models.Decision) { d.WhyText = &why }
}

// WithTitle overrides the generated title.
func WithTitle(title string) DecisionOption {
	return func(d *models.Decision) { d.Title = title }
}

// Decision builds a valid decision created at at.
func Decision(id string, cat models.Category, confidence int, at time.Time, opts ...DecisionOption) models.Decision {
	d := models.Decision{
		ID:         id,
		Title:      "Decision " + id,
		Category:   cat,
		Confidence: confidence,
		Feeling:    models.DefaultFeeling,
		Tags:       []string{},
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Series builds n decisions in cat spaced by step from start, ids "<prefix>-<i>".
func Series(prefix string, n int, cat models.Category, confidence int, start time.Time, step time.Duration) []models.Decision {
	out := make([]models.Decision, n)
	for i := range out {
		out[i] = Decision(prefix+"-"+strconv.Itoa(i), cat, confidence, start.Add(time.Duration(i)*step))
	}
	return out
}

// NewStore returns an in-memory store holding decisions, closed at cleanup.
func NewStore(t *testing.T, decisions ...models.Decision) *store.InMemoryStore {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	Seed(t, st, decisions...)
	return st
}

// Seed inserts decisions into st, failing the test on error.
func Seed(t *testing.T, st store.Store, decisions ...models.Decision) {
	t.Helper()
	for _, d := range decisions {
		if err := st.CreateDecision(context.Background(), d); err != nil {
			t.Fatalf("failed to seed decision %s: %v", d.ID, err)
		}
	}
}
