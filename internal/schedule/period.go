package schedule

import "github.com/gmsas95/dosekeeper-cli/internal/medicine"

// Period is the part of the day a dose time falls in
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
	Night     Period = "night"
)

// PeriodOf classifies an HH:MM time. Malformed input counts as night.
func PeriodOf(hhmm string) Period {
	hour, _, err := medicine.HourMinute(hhmm)
	if err != nil {
		return Night
	}
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}
