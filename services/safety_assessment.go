package services

import "math"

// SafetyLevel grades how far a short put sits from spot for its time to expiry
type SafetyLevel string

const (
	SafetyVerySafe   SafetyLevel = "Very Safe"
	SafetySafe       SafetyLevel = "Safe"
	SafetyModerate   SafetyLevel = "Moderate"
	SafetyRisky      SafetyLevel = "Risky"
	SafetyVeryRisky  SafetyLevel = "Very Risky"
	SafetyUltraRisky SafetyLevel = "Ultra Risky"
)

// SafetyThresholds are the minimum distances in points for each level
type SafetyThresholds struct {
	VerySafe  int `json:"very_safe"`
	Safe      int `json:"safe"`
	Moderate  int `json:"moderate"`
	Risky     int `json:"risky"`
	VeryRisky int `json:"very_risky"`
}

// SafetyAssessment is the graded distance of a selected strike
type SafetyAssessment struct {
	Level      SafetyLevel      `json:"level"`
	Distance   float64          `json:"distance"`
	DTE        int              `json:"dte"`
	Thresholds SafetyThresholds `json:"thresholds"`
}

// ThresholdsForDTE returns distance thresholds. 0 and 1 DTE use fixed tables;
// longer tenors scale the very-safe distance as 550 + (dte-1)^0.75 * 150.
func ThresholdsForDTE(dte int) SafetyThresholds {
	switch {
	case dte <= 0:
		return fixedThresholds(300, 250, 150)
	case dte == 1:
		return fixedThresholds(550, 450, 300)
	}

	verySafe := math.Floor(550 + math.Pow(float64(dte-1), 0.75)*150)
	return SafetyThresholds{
		VerySafe:  int(verySafe),
		Safe:      int(math.Floor(verySafe * 0.82)),
		Moderate:  int(math.Floor(verySafe * 0.55)),
		Risky:     int(math.Floor(verySafe * 0.42)),
		VeryRisky: int(math.Floor(verySafe * 0.25)),
	}
}

func fixedThresholds(verySafe, safe, moderate int) SafetyThresholds {
	return SafetyThresholds{
		VerySafe:  verySafe,
		Safe:      safe,
		Moderate:  moderate,
		Risky:     moderate * 2 / 3,
		VeryRisky: moderate / 3,
	}
}

// AssessSafety grades a distance from spot for the given DTE
func AssessSafety(distance float64, dte int) SafetyAssessment {
	t := ThresholdsForDTE(dte)

	level := SafetyUltraRisky
	switch {
	case distance >= float64(t.VerySafe):
		level = SafetyVerySafe
	case distance >= float64(t.Safe):
		level = SafetySafe
	case distance >= float64(t.Moderate):
		level = SafetyModerate
	case distance >= float64(t.Risky):
		level = SafetyRisky
	case distance >= float64(t.VeryRisky):
		level = SafetyVeryRisky
	}

	return SafetyAssessment{
		Level:      level,
		Distance:   distance,
		DTE:        dte,
		Thresholds: t,
	}
}
