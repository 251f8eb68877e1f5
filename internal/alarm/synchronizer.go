package alarm

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/metrics"
	"go.uber.org/zap"
)

// Synchronizer reconciles a medicine's dose times against the alarm service.
// Reconciliation always cancels every alarm of the medicine before
// scheduling the current set, so no alarm outlives an edit.
type Synchronizer struct {
	svc     Service
	channel Channel
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu          sync.Mutex
	initialized bool
}

// NewSynchronizer creates a synchronizer posting to channel
func NewSynchronizer(svc Service, channel Channel, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel.ID == "" {
		channel.ID = DefaultChannelID
	}
	return &Synchronizer{
		svc:     svc,
		channel: channel,
		now:     time.Now,
		logger:  logger,
		metrics: metrics.Default(),
	}
}

// WithClock replaces the clock used to compute first fire instants
func (s *Synchronizer) WithClock(now func() time.Time) *Synchronizer {
	s.now = now
	return s
}

// Initialize requests permission and creates the alarm channel. It runs at
// most once successfully per process; a failed attempt is retried by the
// next call.
func (s *Synchronizer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.svc.RequestPermission(ctx); err != nil {
		s.metrics.RecordAlarmOp("permission", err)
		return wrap(err, apperrors.ErrAlarmPermission)
	}
	if err := s.svc.CreateChannel(ctx, s.channel); err != nil {
		s.metrics.RecordAlarmOp("channel", err)
		return wrap(err, apperrors.ErrAlarmSchedule)
	}
	s.initialized = true
	return nil
}

// CancelAll cancels the alarm of every time in m.Times
func (s *Synchronizer) CancelAll(ctx context.Context, m medicine.Medicine) error {
	var errs []error
	for _, t := range m.Times {
		if err := s.cancel(ctx, Key(m.ID, t)); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

// cancelStray cancels alarms of m that no longer match a time in m.Times
func (s *Synchronizer) cancelStray(ctx context.Context, medicineID string) error {
	lister, ok := s.svc.(Lister)
	if !ok {
		return nil
	}
	var errs []error
	for _, key := range lister.Keys(medicineID + "-") {
		if !ownsKey(medicineID, key) {
			continue
		}
		if err := s.cancel(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

func (s *Synchronizer) cancel(ctx context.Context, key string) error {
	err := s.svc.Cancel(ctx, key)
	s.metrics.RecordAlarmOp("cancel", err)
	if err != nil {
		s.logger.Warn("Failed to cancel alarm", zap.String("key", key), zap.Error(err))
		return wrap(err, apperrors.ErrAlarmCancel)
	}
	return nil
}

// Schedule registers a daily alarm for every time of an active medicine.
// Inactive medicines are left without alarms.
func (s *Synchronizer) Schedule(ctx context.Context, m medicine.Medicine) error {
	if !m.IsActive || len(m.Times) == 0 {
		return nil
	}
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	now := s.now()
	body := Body(m)
	for _, t := range m.Times {
		at, err := NextOccurrence(now, t)
		if err != nil {
			return wrap(err, apperrors.ErrMalformedTime)
		}
		trigger := Trigger{
			Key:        Key(m.ID, t),
			MedicineID: m.ID,
			Time:       t,
			At:         at,
			Title:      Title,
			Body:       body,
			ChannelID:  s.channel.ID,
		}
		err = s.svc.ScheduleDaily(ctx, trigger)
		s.metrics.RecordAlarmOp("schedule", err)
		if err != nil {
			s.logger.Warn("Failed to schedule alarm",
				zap.String("key", trigger.Key),
				zap.Time("at", at),
				zap.Error(err),
			)
			if errors.Is(err, ErrPermissionDenied) {
				return wrap(err, apperrors.ErrAlarmPermission)
			}
			return wrap(err, apperrors.ErrAlarmSchedule)
		}
	}
	s.reportActive()
	return nil
}

// Reconcile cancels every alarm of m and schedules the current set
func (s *Synchronizer) Reconcile(ctx context.Context, m medicine.Medicine) error {
	if err := s.Remove(ctx, m); err != nil {
		return err
	}
	return s.Schedule(ctx, m)
}

// ReconcileChange also cancels the alarms of the previous snapshot, so times
// removed by an edit lose their alarms on services that cannot list keys
func (s *Synchronizer) ReconcileChange(ctx context.Context, prev *medicine.Medicine, next medicine.Medicine) error {
	if prev != nil {
		if err := s.CancelAll(ctx, *prev); err != nil {
			return err
		}
	}
	return s.Reconcile(ctx, next)
}

// Remove cancels every alarm of m, for deletion
func (s *Synchronizer) Remove(ctx context.Context, m medicine.Medicine) error {
	if err := s.CancelAll(ctx, m); err != nil {
		return err
	}
	if err := s.cancelStray(ctx, m.ID); err != nil {
		return err
	}
	s.reportActive()
	return nil
}

// ResyncAll reconciles every medicine, and on listing services cancels
// alarms whose medicine no longer exists
func (s *Synchronizer) ResyncAll(ctx context.Context, meds []medicine.Medicine) error {
	var errs []error

	if lister, ok := s.svc.(Lister); ok {
		for _, key := range lister.Keys("") {
			if ownedByAny(meds, key) {
				continue
			}
			if err := s.cancel(ctx, key); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, m := range meds {
		if err := s.Reconcile(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	s.reportActive()
	return joinErrors(errs)
}

func ownedByAny(meds []medicine.Medicine, key string) bool {
	for _, m := range meds {
		if ownsKey(m.ID, key) {
			return true
		}
	}
	return false
}

func (s *Synchronizer) reportActive() {
	if lister, ok := s.svc.(Lister); ok {
		s.metrics.SetActiveAlarms(len(lister.Keys("")))
	}
}

// wrap keeps an AppError produced deeper down, otherwise tags err with sentinel
func wrap(err error, sentinel *apperrors.AppError) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.From(sentinel, err)
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	// Keep the first code while every cause stays inspectable
	var first *apperrors.AppError
	if errors.As(errs[0], &first) {
		return apperrors.Wrap(errors.Join(errs...), first.Code, first.Message)
	}
	return errors.Join(errs...)
}
