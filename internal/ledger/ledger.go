// Package ledger records taken and missed doses
package ledger

import (
	"context"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/metrics"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"go.uber.org/zap"
)

// Ledger appends intake records to medicines in the repository
type Ledger struct {
	repo    *store.Repository
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(repo *store.Repository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		repo:    repo,
		now:     time.Now,
		logger:  logger,
		metrics: metrics.Default(),
	}
}

// WithClock replaces the clock used for record dates and timestamps
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Apply records one intake on m for the calendar date of now. Any earlier
// record for the same date and time is replaced. A taken dose
// decrements a positive remaining pill count; recording the same slot as
// taken again decrements again.
func Apply(m *medicine.Medicine, hhmm string, taken bool, now time.Time) {
	date := medicine.DateOf(now)

	history := make([]medicine.IntakeRecord, 0, len(m.IntakeHistory)+1)
	for _, r := range m.IntakeHistory {
		if r.Date == date && r.Time == hhmm {
			continue
		}
		history = append(history, r)
	}
	history = append(history, medicine.IntakeRecord{
		Date:      date,
		Time:      hhmm,
		Taken:     taken,
		Timestamp: now.UnixMilli(),
	})
	m.IntakeHistory = history

	if taken && m.RemainingPills != nil && *m.RemainingPills > 0 {
		m.RemainingPills = medicine.Pills(*m.RemainingPills - 1)
	}
}

// RecordIntake marks the dose at hhmm today as taken or missed. An unknown
// medicine id is a no-op and reports false.
func (l *Ledger) RecordIntake(ctx context.Context, medicineID, hhmm string, taken bool) (medicine.Medicine, bool, error) {
	t, err := medicine.ParseTime(hhmm)
	if err != nil {
		return medicine.Medicine{}, false, err
	}

	now := l.now()
	m, found, err := l.repo.Update(ctx, medicineID, func(m *medicine.Medicine) error {
		Apply(m, t, taken, now)
		return nil
	})
	if err != nil {
		return medicine.Medicine{}, found, err
	}
	if !found {
		l.logger.Debug("Intake for unknown medicine ignored", zap.String("id", medicineID))
		return medicine.Medicine{}, false, nil
	}

	l.metrics.RecordIntake(taken)
	l.logger.Info("Intake recorded",
		zap.String("id", medicineID),
		zap.String("time", t),
		zap.Bool("taken", taken),
	)
	return m, true, nil
}

// SetRemainingPills overrides the remaining pill count. An unknown
// medicine id is a no-op and reports false.
func (l *Ledger) SetRemainingPills(ctx context.Context, medicineID string, n int) (medicine.Medicine, bool, error) {
	if n < 0 {
		return medicine.Medicine{}, false, apperrors.From(apperrors.ErrNegativePills, nil)
	}
	return l.repo.Update(ctx, medicineID, func(m *medicine.Medicine) error {
		m.RemainingPills = medicine.Pills(n)
		return nil
	})
}
