// Package schedule resolves which doses are still due today
package schedule

import (
	"fmt"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
)

// Dose is the next upcoming dose of one medicine today
type Dose struct {
	Medicine  medicine.Medicine `json:"medicine"`
	NextTime  string            `json:"nextTime"`
	Remaining time.Duration     `json:"remaining"`
	Label     string            `json:"timeRemaining"`
}

// Today returns the next dose for every active medicine that still has one
// scheduled later today, in input order. Doses do not roll over to tomorrow:
// a medicine whose last time has passed is omitted.
func Today(now time.Time, medicines []medicine.Medicine) []Dose {
	current := medicine.ClockOf(now)
	doses := make([]Dose, 0, len(medicines))

	for _, m := range medicines {
		if !m.IsActive {
			continue
		}
		next, ok := NextTime(m.Times, current)
		if !ok {
			continue
		}
		at, err := medicine.At(now, next)
		if err != nil {
			continue
		}
		remaining := at.Sub(now).Truncate(time.Minute)
		doses = append(doses, Dose{
			Medicine:  m,
			NextTime:  next,
			Remaining: remaining,
			Label:     FormatRemaining(remaining),
		})
	}

	return doses
}

// NextTime returns the smallest entry of times strictly after current.
// Zero-padded HH:MM strings compare chronologically.
func NextTime(times []string, current string) (string, bool) {
	next := ""
	for _, t := range times {
		if t > current && (next == "" || t < next) {
			next = t
		}
	}
	return next, next != ""
}

// FormatRemaining renders a countdown as "{h}시간 {m}분 후" or "{m}분 후"
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%d시간 %d분 후", hours, minutes)
	}
	return fmt.Sprintf("%d분 후", minutes)
}
