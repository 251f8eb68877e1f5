package alarm

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 10, hour, minute, 0, 0, time.Local)
	}
}

func testMedicine(id string, active bool, times ...string) medicine.Medicine {
	return medicine.Medicine{
		ID:       id,
		Name:     "Aspirin",
		Dosage:   "1정",
		Times:    times,
		IsActive: active,
	}
}

func newSync(svc Service) *Synchronizer {
	return NewSynchronizer(svc, Channel{ID: DefaultChannelID, Name: "Medicine Alarms"}, nil).
		WithClock(fixedClock(9, 0))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "m1-08:00", Key("m1", "08:00"))
}

func TestOwnsKey(t *testing.T) {
	assert.True(t, ownsKey("abc", "abc-08:00"))
	assert.False(t, ownsKey("abc", "abc-def-08:00"))
	assert.False(t, ownsKey("abc", "abcd-08:00"))
	assert.False(t, ownsKey("abc", "abc-8:00"))
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 30, 0, time.Local)

	later, err := NextOccurrence(now, "21:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 21, 0, 0, 0, time.Local), later)

	passed, err := NextOccurrence(now, "08:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.Local), passed)

	// 09:00:00 is strictly before 09:00:30
	current, err := NextOccurrence(now, "09:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.Local), current)

	exact, err := NextOccurrence(time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local), "09:00")
	require.NoError(t, err)
	assert.Equal(t, 10, exact.Day())

	_, err = NextOccurrence(now, "25:00")
	assert.Error(t, err)
}

func TestSchedule_Triggers(t *testing.T) {
	rec := NewRecorder()
	s := newSync(rec)

	m := testMedicine("m1", true, "08:00", "21:00")
	require.NoError(t, s.Schedule(context.Background(), m))

	assert.Equal(t, []string{"m1-08:00", "m1-21:00"}, rec.Keys("m1-"))

	morning, ok := rec.Trigger("m1-08:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.Local), morning.At, "passed today rolls to tomorrow")
	assert.Equal(t, "약 복용 시간", morning.Title)
	assert.Equal(t, "Aspirin 1정를 복용하세요", morning.Body)
	assert.Equal(t, "medicine-alarm", morning.ChannelID)

	evening, _ := rec.Trigger("m1-21:00")
	assert.Equal(t, time.Date(2024, 3, 10, 21, 0, 0, 0, time.Local), evening.At)
}

func TestSchedule_InactiveIsNoop(t *testing.T) {
	rec := NewRecorder()
	require.NoError(t, newSync(rec).Schedule(context.Background(), testMedicine("m1", false, "08:00")))
	assert.Empty(t, rec.Keys(""))
	assert.Equal(t, 0, rec.PermissionRequests)
}

func TestInitialize_OncePerProcess(t *testing.T) {
	rec := NewRecorder()
	s := newSync(rec)
	ctx := context.Background()

	require.NoError(t, s.Schedule(ctx, testMedicine("m1", true, "08:00")))
	require.NoError(t, s.Schedule(ctx, testMedicine("m2", true, "08:00")))

	assert.Equal(t, 1, rec.PermissionRequests)
	require.Len(t, rec.Channels(), 1)
	assert.Equal(t, "medicine-alarm", rec.Channels()[0].ID)
}

func TestInitialize_RetriedAfterDenial(t *testing.T) {
	rec := NewRecorder()
	rec.FailPermission = ErrPermissionDenied
	s := newSync(rec)
	ctx := context.Background()

	err := s.Initialize(ctx)
	assert.True(t, apperrors.IsAlarm(err))

	rec.FailPermission = nil
	require.NoError(t, s.Initialize(ctx))
	assert.Equal(t, 2, rec.PermissionRequests)
}

// Reconcile leaves exactly the keys of the current times, whatever was there before
func TestReconcile_KeysMatchTimesForAnyPriorState(t *testing.T) {
	tests := []struct {
		name  string
		prior []string
		m     medicine.Medicine
		want  []string
	}{
		{
			name:  "empty prior",
			prior: nil,
			m:     testMedicine("m1", true, "08:00", "20:00"),
			want:  []string{"m1-08:00", "m1-20:00"},
		},
		{
			name:  "stale time from an edit",
			prior: []string{"m1-07:00", "m1-08:00"},
			m:     testMedicine("m1", true, "08:00", "20:00"),
			want:  []string{"m1-08:00", "m1-20:00"},
		},
		{
			name:  "deactivated",
			prior: []string{"m1-08:00", "m1-20:00"},
			m:     testMedicine("m1", false, "08:00", "20:00"),
			want:  []string{},
		},
		{
			name:  "other medicine untouched",
			prior: []string{"m1-08:00", "m10-08:00"},
			m:     testMedicine("m1", true, "09:00"),
			want:  []string{"m1-09:00", "m10-08:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder()
			for _, key := range tt.prior {
				rec.Put(Trigger{Key: key})
			}

			require.NoError(t, newSync(rec).Reconcile(context.Background(), tt.m))
			assert.Equal(t, tt.want, rec.Keys(""))
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	rec := NewRecorder()
	s := newSync(rec)
	m := testMedicine("m1", true, "08:00")

	require.NoError(t, s.Reconcile(context.Background(), m))
	require.NoError(t, s.Reconcile(context.Background(), m))
	assert.Equal(t, []string{"m1-08:00"}, rec.Keys(""))
}

func TestReconcileChange_CancelsPreviousTimes(t *testing.T) {
	rec := NewRecorder()
	// Hide Keys so only the previous snapshot can clear stale times
	svc := struct{ Service }{rec}
	s := newSync(svc)
	ctx := context.Background()

	prev := testMedicine("m1", true, "07:00", "08:00")
	require.NoError(t, s.Schedule(ctx, prev))

	next := testMedicine("m1", true, "08:00", "20:00")
	require.NoError(t, s.ReconcileChange(ctx, &prev, next))

	assert.Equal(t, []string{"m1-08:00", "m1-20:00"}, rec.Keys("m1-"))
}

func TestRemove(t *testing.T) {
	rec := NewRecorder()
	s := newSync(rec)
	ctx := context.Background()

	m := testMedicine("m1", true, "08:00", "20:00")
	require.NoError(t, s.Schedule(ctx, m))
	require.NoError(t, s.Remove(ctx, m))
	assert.Empty(t, rec.Keys(""))

	// Removing again is a no-op
	require.NoError(t, s.Remove(ctx, m))
}

func TestSchedule_FailuresAreAlarmErrors(t *testing.T) {
	ctx := context.Background()
	m := testMedicine("m1", true, "08:00")

	denied := NewRecorder()
	denied.FailPermission = ErrPermissionDenied
	err := newSync(denied).Reconcile(ctx, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlarmPermission))
	assert.False(t, apperrors.IsStorage(err))

	rejected := NewRecorder()
	rejected.FailSchedule = errors.New("quota exceeded")
	err = newSync(rejected).Reconcile(ctx, m)
	assert.True(t, errors.Is(err, apperrors.ErrAlarmSchedule))

	cancelFails := NewRecorder()
	cancelFails.FailCancel = errors.New("busy")
	err = newSync(cancelFails).Reconcile(ctx, m)
	assert.True(t, errors.Is(err, apperrors.ErrAlarmCancel))
}

func TestResyncAll_DropsOrphans(t *testing.T) {
	rec := NewRecorder()
	rec.Put(Trigger{Key: "gone-08:00"})
	rec.Put(Trigger{Key: "m1-07:00"})

	meds := []medicine.Medicine{
		testMedicine("m1", true, "08:00"),
		testMedicine("m2", false, "09:00"),
	}
	require.NoError(t, newSync(rec).ResyncAll(context.Background(), meds))
	assert.Equal(t, []string{"m1-08:00"}, rec.Keys(""))
}

func TestDaily_Next(t *testing.T) {
	first := time.Date(2024, 3, 10, 8, 0, 0, 0, time.Local)
	d := daily{first: first}

	assert.Equal(t, first, d.Next(first.Add(-time.Hour)))
	assert.Equal(t, first.Add(24*time.Hour), d.Next(first))
	assert.Equal(t, first.Add(48*time.Hour), d.Next(first.Add(30*time.Hour)))
}

type chanSink struct {
	got chan notify.Notification
}

func (s *chanSink) Name() string { return "chan" }

func (s *chanSink) Notify(ctx context.Context, n notify.Notification) error {
	s.got <- n
	return nil
}

func TestCronService_PermissionDenied(t *testing.T) {
	svc := NewCronService(nil, false, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.RequestPermission(ctx), ErrPermissionDenied)
	assert.ErrorIs(t, svc.ScheduleDaily(ctx, Trigger{Key: "m1-08:00", At: time.Now()}), ErrPermissionDenied)

	err := newSync(svc).Reconcile(ctx, testMedicine("m1", true, "08:00"))
	assert.True(t, errors.Is(err, apperrors.ErrAlarmPermission))
}

func TestCronService_ScheduleCancel(t *testing.T) {
	svc := NewCronService(nil, true, nil)
	ctx := context.Background()
	require.NoError(t, svc.RequestPermission(ctx))

	at := time.Date(2024, 3, 10, 8, 0, 0, 0, time.Local)
	require.NoError(t, svc.ScheduleDaily(ctx, Trigger{Key: "m1-08:00", At: at}))
	require.NoError(t, svc.ScheduleDaily(ctx, Trigger{Key: "m1-08:00", At: at}))
	assert.Equal(t, []string{"m1-08:00"}, svc.Keys("m1"))

	next, ok := svc.NextFire("m1-08:00", at.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, at.Add(24*time.Hour), next)

	require.NoError(t, svc.Cancel(ctx, "m1-08:00"))
	require.NoError(t, svc.Cancel(ctx, "m1-08:00"))
	assert.Empty(t, svc.Keys(""))
}

func TestCronService_Fires(t *testing.T) {
	sink := &chanSink{got: make(chan notify.Notification, 1)}
	svc := NewCronService(sink, true, nil)
	ctx := context.Background()
	require.NoError(t, svc.RequestPermission(ctx))

	svc.Start()
	defer svc.Stop()

	require.NoError(t, svc.ScheduleDaily(ctx, Trigger{
		Key:   "m1-08:00",
		At:    time.Now().Add(time.Second),
		Title: Title,
		Body:  "Aspirin 1정를 복용하세요",
	}))

	select {
	case n := <-sink.got:
		assert.Equal(t, "m1-08:00", n.Key)
		assert.Equal(t, Title, n.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("alarm did not fire")
	}
}
