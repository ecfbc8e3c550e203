package confidence

import "github.com/BTreeMap/Pondr/internal/models"

// Direction classifies a week from its decision count and average confidence.
// Weeks with one or two decisions are never Growing.
func Direction(weekCount int, weekAvg *float64) models.DirectionStatus {
	if weekCount <= 0 {
		return models.DirectionNoSignal
	}

	avg := 0.0
	if weekAvg != nil {
		avg = *weekAvg
	}

	if weekCount <= 2 {
		if weekAvg != nil && avg < LowThreshold {
			return models.DirectionDrifting
		}
		return models.DirectionStable
	}

	switch {
	case avg >= HighThreshold:
		return models.DirectionGrowing
	case avg < LowThreshold:
		return models.DirectionDrifting
	default:
		return models.DirectionStable
	}
}

// DirectionCopy is the title and subtext shown for a status.
type DirectionCopy struct {
	Title   string `json:"title"`
	Subtext string `json:"subtext"`
}

// CopyForDirection returns the display copy for a status.
func CopyForDirection(status models.DirectionStatus) DirectionCopy {
	if status == models.DirectionNoSignal || status == "" {
		return DirectionCopy{
			Title:   "Not enough data yet",
			Subtext: "Patterns will appear as you log decisions over time.",
		}
	}
	return DirectionCopy{
		Title:   "Your current direction looks " + status.Label() + ".",
		Subtext: "This reflects recent confidence and consistency.",
	}
}
