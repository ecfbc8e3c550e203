// Package questions picks the gentle question shown with a weekly reflection.
//
// A bucket is chosen from the week's patterns, recently used questions are
// held back for a cooldown, and one of the rest is drawn at random.
package questions

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/BTreeMap/Pondr/internal/models"
)

const (
	// DefaultCooldown is how many recent selections are held back.
	DefaultCooldown = 6
	// DefaultHistoryMax bounds the stored history.
	DefaultHistoryMax = 12
	// LowDataMax is the largest decision count answered from the low-data bucket.
	LowDataMax = 2
	// Placeholder replaces {Category} when no category is known.
	Placeholder = "—"
)

// ErrEmptyBucket means the bank has no questions for a selected bucket. It is
// a packaging defect and callers must not ignore it.
var ErrEmptyBucket = errors.New("question bucket is empty")

// Patterns are the weekly signals used to choose a bucket.
type Patterns struct {
	DecisionCount      int
	MostCommonCategory models.Category
	Trend              models.Trend
	Direction          models.DirectionStatus
}

// History lists recently used question ids, newest first.
type History struct {
	LastUsedIDs []string `json:"lastUsedQuestionIds"`
}

// Selection is a chosen question with placeholders filled in.
type Selection struct {
	Question Question `json:"question"`
	Text     string   `json:"text"`
	Bucket   Bucket   `json:"bucket"`
}

// Selector draws questions from a bank.
type Selector struct {
	bank     Bank
	cooldown int
	intn     func(n int) int
}

// Option configures a Selector.
type Option func(*Selector)

// WithBank replaces the packaged bank.
func WithBank(b Bank) Option {
	return func(s *Selector) { s.bank = b }
}

// WithCooldown sets how many recent selections are excluded. Negative values
// are treated as zero.
func WithCooldown(n int) Option {
	return func(s *Selector) {
		if n < 0 {
			n = 0
		}
		s.cooldown = n
	}
}

// WithIntn injects the random source; intn(n) must return a value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(s *Selector) { s.intn = intn }
}

// NewSelector returns a Selector over DefaultBank with the default cooldown.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{bank: DefaultBank, cooldown: DefaultCooldown, intn: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChooseBucket maps weekly patterns onto one bucket.
func ChooseBucket(p Patterns) Bucket {
	if p.DecisionCount <= LowDataMax {
		return BucketLowData
	}
	switch p.Direction {
	case models.DirectionGrowing:
		return BucketDirectionGrowing
	case models.DirectionStable:
		return BucketDirectionStable
	case models.DirectionDrifting:
		return BucketDirectionDrifting
	}
	hasTrend := p.Trend != "" && p.Trend != models.TrendNA
	hasCategory := p.MostCommonCategory != ""
	switch {
	case hasTrend && hasCategory:
		return BucketCategoryConfidence
	case hasTrend:
		return BucketConfidenceTrend
	case hasCategory:
		return BucketCategoryFocus
	}
	return BucketLowData
}

// Select chooses a question for p, skipping ids on cooldown in h. When every
// question in the bucket is on cooldown the whole bucket is eligible.
func (s *Selector) Select(p Patterns, h History) (Selection, error) {
	b := ChooseBucket(p)
	pool := s.bank[b]
	if len(pool) == 0 {
		return Selection{}, fmt.Errorf("%w: %s", ErrEmptyBucket, b)
	}

	recent := h.LastUsedIDs
	if len(recent) > s.cooldown {
		recent = recent[:s.cooldown]
	}
	cooling := make(map[string]bool, len(recent))
	for _, id := range recent {
		cooling[id] = true
	}

	var eligible []Question
	for _, q := range pool {
		if !cooling[q.ID] {
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		eligible = pool
	}

	chosen := eligible[s.intn(len(eligible))]
	return Selection{Question: chosen, Text: Render(chosen.Text, p.MostCommonCategory), Bucket: b}, nil
}

// Render fills {Category} with the category's display label.
func Render(text string, c models.Category) string {
	if !strings.Contains(text, "{Category}") {
		return text
	}
	label := Placeholder
	if c != "" {
		label = c.Label()
	}
	return strings.ReplaceAll(text, "{Category}", label)
}

// Next returns h with id moved to the front, duplicates removed and the list
// truncated to max (DefaultHistoryMax when max < 1).
func Next(h History, id string, max int) History {
	if max < 1 {
		max = DefaultHistoryMax
	}
	ids := make([]string, 0, len(h.LastUsedIDs)+1)
	ids = append(ids, id)
	for _, prev := range h.LastUsedIDs {
		if prev != id {
			ids = append(ids, prev)
		}
	}
	if len(ids) > max {
		ids = ids[:max]
	}
	return History{LastUsedIDs: ids}
}
