// Package models defines the core data structures for Pondr.
//
// It includes the decision record, the closed category set and the small
// enumerations (direction status, confidence trend) shared by the analytics packages.
package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Score bounds for confidence and feeling.
const (
	MinScore = 1
	MaxScore = 5

	// DefaultFeeling is used by quick-log when no feeling is given.
	DefaultFeeling = 3

	// MaxSecondaryCategories bounds Decision.SecondaryCategories.
	MaxSecondaryCategories = 2

	// MaxTitleLength defines the maximum allowed length for a decision title
	MaxTitleLength = 200
)

// Error variables for input validation
var (
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrTitleTooLong    = errors.New("title exceeds maximum length")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidScore    = errors.New("score must be between 1 and 5")
)

// Decision is a single logged choice. Only Title and WhyText change after creation.
type Decision struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Category            Category   `json:"category"`
	SecondaryCategories []Category `json:"secondary_categories"`
	Confidence          int        `json:"confidence"`
	Feeling             int        `json:"feeling"`
	WhyText             *string    `json:"why_text,omitempty"`
	Tags                []string   `json:"tags"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DecisionDraft carries the user-supplied fields of a quick-log entry.
type DecisionDraft struct {
	Title               string
	Category            Category
	SecondaryCategories []Category
	Confidence          float64
	Feeling             int
	WhyText             *string
	Tags                []string
}

// NewDecision validates a draft and builds a Decision stamped at now.
// Confidence is rounded and clamped, secondary categories are normalized,
// and an empty category falls back to CategoryOther.
func NewDecision(id string, draft DecisionDraft, now time.Time) (Decision, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return Decision{}, ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return Decision{}, ErrTitleTooLong
	}

	category := draft.Category
	if category == "" {
		category = CategoryOther
	}
	if !IsValidCategory(category) {
		return Decision{}, ErrInvalidCategory
	}
	for _, c := range draft.SecondaryCategories {
		if !IsValidCategory(c) {
			return Decision{}, ErrInvalidCategory
		}
	}

	feeling := draft.Feeling
	if feeling == 0 {
		feeling = DefaultFeeling
	}
	if feeling < MinScore || feeling > MaxScore {
		return Decision{}, ErrInvalidScore
	}

	tags := make([]string, 0, len(draft.Tags))
	for _, t := range draft.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	var why *string
	if draft.WhyText != nil {
		if w := strings.TrimSpace(*draft.WhyText); w != "" {
			why = &w
		}
	}

	return Decision{
		ID:                  id,
		Title:               title,
		Category:            category,
		SecondaryCategories: NormalizeSecondary(category, draft.SecondaryCategories, MaxSecondaryCategories),
		Confidence:          ClampScore(draft.Confidence),
		Feeling:             feeling,
		WhyText:             why,
		Tags:                tags,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// DecisionEdit names the fields an edit may change. Nil leaves a field as is;
// an empty WhyText clears it.
type DecisionEdit struct {
	Title   *string `json:"title,omitempty"`
	WhyText *string `json:"why_text,omitempty"`
}

// ApplyEdit returns d with e applied and UpdatedAt set to now.
func (d Decision) ApplyEdit(e DecisionEdit, now time.Time) (Decision, error) {
	if e.Title != nil {
		title := strings.TrimSpace(*e.Title)
		if title == "" {
			return d, ErrEmptyTitle
		}
		if len(title) > MaxTitleLength {
			return d, ErrTitleTooLong
		}
		d.Title = title
	}
	if e.WhyText != nil {
		if w := strings.TrimSpace(*e.WhyText); w != "" {
			d.WhyText = &w
		} else {
			d.WhyText = nil
		}
	}
	d.UpdatedAt = now
	return d, nil
}

// ClampScore rounds n to the nearest integer and clamps it to [MinScore, MaxScore].
func ClampScore(n float64) int {
	if math.IsNaN(n) {
		return MinScore
	}
	r := math.Round(n)
	if r <= MinScore {
		return MinScore
	}
	if r >= MaxScore {
		return MaxScore
	}
	return int(r)
}

// Validate checks the record-level invariants of a stored decision.
func (d Decision) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if !IsValidCategory(d.Category) {
		return ErrInvalidCategory
	}
	if d.Confidence < MinScore || d.Confidence > MaxScore {
		return ErrInvalidScore
	}
	if len(d.SecondaryCategories) > MaxSecondaryCategories {
		return ErrInvalidCategory
	}
	seen := map[Category]bool{d.Category: true}
	for _, c := range d.SecondaryCategories {
		if seen[c] || !IsValidCategory(c) {
			return ErrInvalidCategory
		}
		seen[c] = true
	}
	return nil
}

// CategoryCount is one row of a per-category count aggregation.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// CategoryStat is one row of a per-category confidence aggregation.
type CategoryStat struct {
	Category Category `json:"category"`
	Avg      float64  `json:"avg"`
	Count    int      `json:"count"`
}
