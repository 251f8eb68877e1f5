package medicine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
)

var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// DateLayout is the calendar date format used in intake records
const DateLayout = "2006-01-02"

// ParseTime validates a 24-hour time of day and returns it zero-padded as HH:MM.
// A single-digit hour such as "9:05" is accepted.
func ParseTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return "", apperrors.From(apperrors.ErrMalformedTime, fmt.Errorf("%q", s))
	}
	hour, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", hour, m[2]), nil
}

// HourMinute splits a normalized HH:MM string
func HourMinute(t string) (int, int, error) {
	norm, err := ParseTime(t)
	if err != nil {
		return 0, 0, err
	}
	hour, _ := strconv.Atoi(norm[:2])
	minute, _ := strconv.Atoi(norm[3:])
	return hour, minute, nil
}

// ClockOf formats the wall-clock time of an instant as HH:MM
func ClockOf(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// DateOf formats the local calendar date of an instant
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// At returns the instant on the same calendar day as day at the given HH:MM
func At(day time.Time, hhmm string) (time.Time, error) {
	hour, minute, err := HourMinute(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// AddTime inserts t into times, rejecting malformed and duplicate entries.
// The returned slice is a new, ascending-sorted slice.
func AddTime(times []string, t string) ([]string, error) {
	norm, err := ParseTime(t)
	if err != nil {
		return times, err
	}
	for _, existing := range times {
		if existing == norm {
			return times, apperrors.From(apperrors.ErrDuplicateTime, fmt.Errorf("%s", norm))
		}
	}
	out := make([]string, 0, len(times)+1)
	out = append(out, times...)
	out = append(out, norm)
	sort.Strings(out)
	return out, nil
}

// RemoveTime returns times without t
func RemoveTime(times []string, t string) []string {
	norm, err := ParseTime(t)
	if err != nil {
		norm = t
	}
	out := make([]string, 0, len(times))
	for _, existing := range times {
		if existing != norm {
			out = append(out, existing)
		}
	}
	return out
}

// NormalizeTimes validates every entry of times and returns them sorted and zero-padded
func NormalizeTimes(times []string) ([]string, error) {
	var out []string
	for _, t := range times {
		var err error
		out, err = AddTime(out, t)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
