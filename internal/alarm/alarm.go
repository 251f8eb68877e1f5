// Package alarm keeps local dose alarms in step with the medicine collection
package alarm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
)

const (
	// DefaultChannelID is the channel every dose alarm is posted to
	DefaultChannelID = "medicine-alarm"

	// Title is shown on every dose alarm
	Title = "약 복용 시간"
)

// ErrPermissionDenied is returned by a Service that may not post alarms
var ErrPermissionDenied = errors.New("notification permission denied")

// Channel describes where alarms are posted
type Channel struct {
	ID         string
	Name       string
	Importance string
}

// Trigger is one daily-repeating alarm. At is the first fire instant.
type Trigger struct {
	Key        string
	MedicineID string
	Time       string
	At         time.Time
	Title      string
	Body       string
	ChannelID  string
}

// Service is the local alarm facility
type Service interface {
	RequestPermission(ctx context.Context) error
	CreateChannel(ctx context.Context, ch Channel) error
	ScheduleDaily(ctx context.Context, t Trigger) error
	// Cancel removes an alarm. Unknown keys are not an error.
	Cancel(ctx context.Context, key string) error
}

// Lister is implemented by services that can report their scheduled keys
type Lister interface {
	Keys(prefix string) []string
}

// Key addresses the alarm for one dose time of a medicine
func Key(medicineID, hhmm string) string {
	return medicineID + "-" + hhmm
}

// ownsKey reports whether key is Key(medicineID, t) for some well-formed t
func ownsKey(medicineID, key string) bool {
	rest, ok := strings.CutPrefix(key, medicineID+"-")
	if !ok || len(rest) != 5 {
		return false
	}
	_, err := medicine.ParseTime(rest)
	return err == nil
}

// Body is the alarm text for a medicine
func Body(m medicine.Medicine) string {
	return fmt.Sprintf("%s %s를 복용하세요", m.Name, m.Dosage)
}

// NextOccurrence returns today's instant of hhmm, or tomorrow's when today's
// is strictly before now
func NextOccurrence(now time.Time, hhmm string) (time.Time, error) {
	at, err := medicine.At(now, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}
