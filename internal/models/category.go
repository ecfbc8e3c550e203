package models

// Category is the closed set of areas a decision can belong to.
type Category string

const (
	CategoryCareer        Category = "career"
	CategoryHealth        Category = "health"
	CategoryRelationships Category = "relationships"
	CategoryLearning      Category = "learning"
	CategoryLifestyle     Category = "lifestyle"
	CategoryMoney         Category = "money"
	CategoryOther         Category = "other"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryCareer,
	CategoryHealth,
	CategoryRelationships,
	CategoryLearning,
	CategoryLifestyle,
	CategoryMoney,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryCareer:        "Career",
	CategoryHealth:        "Health",
	CategoryRelationships: "Relationships",
	CategoryLearning:      "Learning",
	CategoryLifestyle:     "Lifestyle",
	CategoryMoney:         "Money",
	CategoryOther:         "Other",
}

// IsValidCategory checks if the given category is supported.
func IsValidCategory(c Category) bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory converts user input into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !IsValidCategory(c) {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Label returns the display label, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ToggleSecondary adds or removes value from the secondary list of a decision
// whose primary category is primary. The primary is never added, an existing
// value is removed, and adding at capacity leaves the list unchanged.
func ToggleSecondary(primary Category, current []Category, value Category, max int) []Category {
	if max <= 0 {
		max = MaxSecondaryCategories
	}
	base := NormalizeSecondary(primary, current, max)
	if value == primary {
		return base
	}
	for i, c := range base {
		if c == value {
			return append(base[:i:i], base[i+1:]...)
		}
	}
	if len(base) >= max {
		return base
	}
	return append(base, value)
}

// NormalizeSecondary de-duplicates values, strips the primary category and
// truncates to max while keeping first-seen order.
func NormalizeSecondary(primary Category, values []Category, max int) []Category {
	if max <= 0 {
		max = MaxSecondaryCategories
	}
	out := make([]Category, 0, max)
	seen := make(map[Category]bool, len(values))
	for _, c := range values {
		if c == "" || c == primary || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == max {
			break
		}
	}
	return out
}
