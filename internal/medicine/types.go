package medicine

import (
	"strings"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/google/uuid"
)

// Category groups medicines for filtering and display
type Category string

const (
	CategoryPrescription Category = "prescription"
	CategoryOTC          Category = "otc"
	CategorySupplement   Category = "supplement"
)

// Categories lists every known category in display order
var Categories = []Category{CategoryPrescription, CategoryOTC, CategorySupplement}

func (c Category) Valid() bool {
	switch c {
	case CategoryPrescription, CategoryOTC, CategorySupplement:
		return true
	}
	return false
}

// ParseCategory accepts a category name case-insensitively
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", apperrors.From(apperrors.ErrBadCategory, nil)
	}
	return c, nil
}

// Frequency is the dosing preset a medicine was created with
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyTwice  Frequency = "twice"
	FrequencyThrice Frequency = "thrice"
	FrequencyCustom Frequency = "custom"
)

// Pharmacy holds where a medicine is refilled
type Pharmacy struct {
	Name    string `json:"name" yaml:"name"`
	Phone   string `json:"phone" yaml:"phone"`
	Address string `json:"address" yaml:"address"`
}

// IntakeRecord is one taken/missed event for a dose slot
type IntakeRecord struct {
	Date      string `json:"date" yaml:"date"` // YYYY-MM-DD
	Time      string `json:"time" yaml:"time"` // HH:MM
	Taken     bool   `json:"taken" yaml:"taken"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"` // ms since epoch
}

// Medicine is one registered medicine with its schedule and intake log
type Medicine struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Dosage    string    `json:"dosage" yaml:"dosage"`
	Frequency Frequency `json:"frequency" yaml:"frequency"`
	Times     []string  `json:"times" yaml:"times"`
	StartDate string    `json:"startDate" yaml:"startDate"`
	EndDate   string    `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	IsActive  bool      `json:"isActive" yaml:"isActive"`
	Category  Category  `json:"category" yaml:"category"`

	// Supply tracking
	TotalPills     *int `json:"totalPills,omitempty" yaml:"totalPills,omitempty"`
	RemainingPills *int `json:"remainingPills,omitempty" yaml:"remainingPills,omitempty"`

	IntakeHistory []IntakeRecord `json:"intakeHistory" yaml:"intakeHistory"`

	Notes         string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	PhotoURI      string    `json:"photoUri,omitempty" yaml:"photoUri,omitempty"`
	Effectiveness string    `json:"effectiveness,omitempty" yaml:"effectiveness,omitempty"`
	SideEffects   string    `json:"sideEffects,omitempty" yaml:"sideEffects,omitempty"`
	Pharmacy      *Pharmacy `json:"pharmacy,omitempty" yaml:"pharmacy,omitempty"`
}

// NewID returns a time-ordered identifier for a new medicine
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Clone returns a deep copy so callers can mutate without touching a snapshot
func (m Medicine) Clone() Medicine {
	out := m
	out.Times = append([]string(nil), m.Times...)
	if m.IntakeHistory != nil {
		// A non-nil empty history stays non-nil: it means "cleared", not "unset".
		out.IntakeHistory = append(make([]IntakeRecord, 0, len(m.IntakeHistory)), m.IntakeHistory...)
	}
	if m.TotalPills != nil {
		v := *m.TotalPills
		out.TotalPills = &v
	}
	if m.RemainingPills != nil {
		v := *m.RemainingPills
		out.RemainingPills = &v
	}
	if m.Pharmacy != nil {
		p := *m.Pharmacy
		out.Pharmacy = &p
	}
	return out
}

// LowStock reports whether the remaining supply is known and at or below threshold
func (m *Medicine) LowStock(threshold int) bool {
	return m.RemainingPills != nil && *m.RemainingPills <= threshold
}

// Pills is a convenience for building optional pill counts
func Pills(n int) *int {
	return &n
}
