// Package service is the operation boundary used by the CLI, TUI and API
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/adherence"
	"github.com/gmsas95/dosekeeper-cli/internal/alarm"
	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/ledger"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/metrics"
	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"go.uber.org/zap"
)

// SaveResult reports a mutation's storage and alarm outcomes separately.
// Saved is true once the collection was written; AlarmErr is set when
// alarms could not be brought in line afterwards.
type SaveResult struct {
	Medicine medicine.Medicine
	Saved    bool
	AlarmErr error
}

// Message is the line shown to the user for the result
func (r SaveResult) Message() string {
	if r.AlarmErr != nil {
		return UserMessage(r.AlarmErr)
	}
	if r.Saved {
		return "saved"
	}
	return "nothing changed"
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Category medicine.Category
	Search   string
}

// Options tune the service
type Options struct {
	LowStockThreshold int
}

// Service ties the repository, alarms, ledger and statistics together
type Service struct {
	repo     *store.Repository
	prefs    *store.Preferences
	alarms   *alarm.Synchronizer
	ledger   *ledger.Ledger
	stats    *adherence.Aggregator
	now      func() time.Time
	lowStock int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(repo *store.Repository, alarms *alarm.Synchronizer, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 5
	}
	return &Service{
		repo:     repo,
		prefs:    store.NewPreferences(repo.KV()),
		alarms:   alarms,
		ledger:   ledger.New(repo, logger),
		stats:    adherence.New(repo),
		now:      time.Now,
		lowStock: opts.LowStockThreshold,
		logger:   logger,
		metrics:  metrics.Default(),
	}
}

// WithClock replaces the clock of the service and everything it owns
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.ledger.WithClock(now)
	s.stats.WithClock(now)
	s.alarms.WithClock(now)
	return s
}

// LowStockThreshold is the remaining pill count at or below which a medicine is flagged
func (s *Service) LowStockThreshold() int {
	return s.lowStock
}

// Get returns a medicine by id
func (s *Service) Get(ctx context.Context, id string) (medicine.Medicine, bool, error) {
	return s.repo.Get(ctx, id)
}

// List returns medicines in stored order matching f. Search matches the
// name case-insensitively.
func (s *Service) List(ctx context.Context, f Filter) ([]medicine.Medicine, error) {
	meds, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]medicine.Medicine, 0, len(meds))
	for _, m := range meds {
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Save validates and stores m, then reconciles its alarms. A new medicine
// (empty id) gets an id and start date. An edit whose history is nil keeps
// the stored one; an empty non-nil history clears it. The merge with the
// stored record happens under the collection lock, so an intake recorded
// concurrently is never overwritten.
func (s *Service) Save(ctx context.Context, m medicine.Medicine) (SaveResult, error) {
	return s.put(ctx, m, false)
}

var errNoMedicine = errors.New("no medicine with that id")

// Edit is Save for an existing medicine only. An unknown id writes nothing
// and reports Saved false.
func (s *Service) Edit(ctx context.Context, m medicine.Medicine) (SaveResult, error) {
	if m.ID == "" {
		return SaveResult{}, nil
	}
	res, err := s.put(ctx, m, true)
	if errors.Is(err, errNoMedicine) {
		return SaveResult{}, nil
	}
	return res, err
}

func (s *Service) put(ctx context.Context, m medicine.Medicine, mustExist bool) (SaveResult, error) {
	stored, prev, err := s.repo.Put(ctx, m.Clone(), func(existing, m *medicine.Medicine) error {
		if existing == nil && mustExist {
			return errNoMedicine
		}
		if existing != nil {
			if m.IntakeHistory == nil {
				m.IntakeHistory = existing.IntakeHistory
			}
			if m.StartDate == "" {
				m.StartDate = existing.StartDate
			}
		}
		if err := m.Validate(); err != nil {
			return err
		}
		if m.ID == "" {
			m.ID = medicine.NewID()
		}
		if m.StartDate == "" {
			m.StartDate = s.now().Format(time.RFC3339)
		}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}

	result := SaveResult{Medicine: stored, Saved: true}
	if err := s.alarms.ReconcileChange(ctx, prev, stored); err != nil {
		s.logger.Warn("Medicine saved without alarms", zap.String("id", stored.ID), zap.Error(err))
		result.AlarmErr = err
	}
	s.logger.Info("Medicine saved",
		zap.String("id", stored.ID),
		zap.String("name", stored.Name),
		zap.Strings("times", stored.Times),
		zap.Bool("active", stored.IsActive),
	)
	return result, nil
}

// Toggle flips the active flag and reconciles alarms. Unknown ids are a no-op.
func (s *Service) Toggle(ctx context.Context, id string) (SaveResult, error) {
	m, found, err := s.repo.Update(ctx, id, func(m *medicine.Medicine) error {
		m.IsActive = !m.IsActive
		return nil
	})
	if err != nil || !found {
		return SaveResult{}, err
	}

	result := SaveResult{Medicine: m, Saved: true}
	if err := s.alarms.Reconcile(ctx, m); err != nil {
		result.AlarmErr = err
	}
	return result, nil
}

// Delete cancels every alarm of the medicine, then removes it with its
// history. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) (SaveResult, error) {
	m, found, err := s.repo.Get(ctx, id)
	if err != nil || !found {
		return SaveResult{}, err
	}

	var alarmErr error
	if err := s.alarms.Remove(ctx, m); err != nil {
		s.logger.Warn("Failed to cancel alarms of deleted medicine", zap.String("id", id), zap.Error(err))
		alarmErr = err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return SaveResult{}, err
	}
	s.logger.Info("Medicine deleted", zap.String("id", id))
	return SaveResult{Medicine: m, Saved: true, AlarmErr: alarmErr}, nil
}

// MarkTaken records the dose at hhmm today as taken or missed
func (s *Service) MarkTaken(ctx context.Context, id, hhmm string, taken bool) (medicine.Medicine, bool, error) {
	return s.ledger.RecordIntake(ctx, id, hhmm, taken)
}

// SetPills overrides the remaining pill count
func (s *Service) SetPills(ctx context.Context, id string, n int) (medicine.Medicine, bool, error) {
	return s.ledger.SetRemainingPills(ctx, id, n)
}

// Today returns the next dose of every active medicine still due today
func (s *Service) Today(ctx context.Context) ([]schedule.Dose, error) {
	meds, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.Today(s.now(), meds), nil
}

// Stats returns compliance over the last days calendar dates
func (s *Service) Stats(ctx context.Context, days int) (adherence.Report, error) {
	return s.stats.Report(ctx, days)
}

func (s *Service) Theme(ctx context.Context) (store.ThemeMode, error) {
	return s.prefs.Theme(ctx)
}

func (s *Service) SetTheme(ctx context.Context, mode store.ThemeMode) error {
	return s.prefs.SetTheme(ctx, mode)
}

// Resync brings every alarm in line with the stored collection
func (s *Service) Resync(ctx context.Context) error {
	meds, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	if err := s.alarms.ResyncAll(ctx, meds); err != nil {
		return err
	}
	s.logger.Debug("Alarms resynced", zap.Int("medicines", len(meds)))
	return nil
}

// Refresh recomputes today's due doses for the periodic view refresh
func (s *Service) Refresh(ctx context.Context) ([]schedule.Dose, error) {
	doses, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRefresh(len(doses))
	return doses, nil
}

// UserMessage converts an error into the line shown to the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case apperrors.IsAlarm(err):
		return "saved, but reminders were not set; check notification permission"
	case apperrors.GetCode(err) == apperrors.ErrStoreCorrupt.Code:
		return "saved medicines could not be read; the data file is corrupted"
	case apperrors.IsStorage(err):
		return "could not reach medicine storage; nothing was changed"
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
