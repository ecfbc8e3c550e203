package models

// DirectionStatus summarizes a week's confidence pattern.
type DirectionStatus string

const (
	DirectionNoSignal DirectionStatus = "NO_SIGNAL"
	DirectionGrowing  DirectionStatus = "GROWING"
	DirectionStable   DirectionStatus = "STABLE"
	DirectionDrifting DirectionStatus = "DRIFTING"
)

// Label returns the human-facing name of the status.
func (d DirectionStatus) Label() string {
	switch d {
	case DirectionGrowing:
		return "Growing"
	case DirectionStable:
		return "Stable"
	case DirectionDrifting:
		return "Drifting"
	default:
		return "No signal"
	}
}

// Trend compares the average confidence of two windows.
type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendSteady Trend = "STEADY"
	TrendNA     Trend = "NA"
)

// Word returns "up", "down" or "steady". NA reads as steady.
func (t Trend) Word() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "steady"
	}
}

// InsightKind tags a confidence-by-category insight.
type InsightKind string

const (
	InsightMore InsightKind = "MORE"
	InsightLess InsightKind = "LESS"
	InsightNone InsightKind = "NONE"
)

// Pace compares recent decision frequency against the lifetime rate.
type Pace string

const (
	PaceMore  Pace = "more"
	PaceFewer Pace = "fewer"
)
