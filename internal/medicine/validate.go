package medicine

import (
	"fmt"
	"strings"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/security"
)

// Validate checks a medicine before it is saved and normalizes its fields.
// Nothing is modified when an error is returned.
func (m *Medicine) Validate() error {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return apperrors.From(apperrors.ErrEmptyName, nil)
	}
	dosage := strings.TrimSpace(m.Dosage)
	if dosage == "" {
		return apperrors.From(apperrors.ErrEmptyDosage, nil)
	}
	notes := strings.TrimSpace(m.Notes)
	if err := checkText(name, dosage, notes, m.Effectiveness, m.SideEffects); err != nil {
		return err
	}
	if len(m.Times) == 0 {
		return apperrors.From(apperrors.ErrNoTimes, nil)
	}
	times, err := NormalizeTimes(m.Times)
	if err != nil {
		return err
	}

	category := m.Category
	if category == "" {
		category = CategoryOTC
	}
	if !category.Valid() {
		return apperrors.From(apperrors.ErrBadCategory, nil)
	}
	if m.TotalPills != nil && *m.TotalPills < 0 {
		return apperrors.From(apperrors.ErrNegativePills, nil)
	}
	if m.RemainingPills != nil && *m.RemainingPills < 0 {
		return apperrors.From(apperrors.ErrNegativePills, nil)
	}

	m.Name = name
	m.Dosage = dosage
	m.Times = times
	m.Category = category
	m.Notes = notes
	if m.Frequency == "" {
		m.Frequency = FrequencyCustom
	}
	if m.IntakeHistory == nil {
		m.IntakeHistory = []IntakeRecord{}
	}
	return nil
}

func checkText(name, dosage, notes, effectiveness, sideEffects string) error {
	fields := []struct {
		name  string
		value string
		check func(string) error
	}{
		{"name", name, security.ValidateInput},
		{"dosage", dosage, security.ValidateInput},
		{"notes", notes, security.ValidateNotes},
		{"effectiveness", effectiveness, security.ValidateNotes},
		{"sideEffects", sideEffects, security.ValidateNotes},
	}

	for _, f := range fields {
		if err := f.check(f.value); err != nil {
			return apperrors.From(apperrors.ErrBadText, fmt.Errorf("%s: %w", f.name, err))
		}
	}
	return nil
}
