package ledger

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 8, 5, 0, 0, time.Local)

func setup(t *testing.T, meds ...medicine.Medicine) (*Ledger, *store.Repository) {
	t.Helper()
	repo := store.New(store.NewMemoryKV(), nil)
	for _, m := range meds {
		require.NoError(t, repo.Upsert(context.Background(), m))
	}
	l := New(repo, nil).WithClock(func() time.Time { return fixedNow })
	return l, repo
}

func withPills(n int) medicine.Medicine {
	return medicine.Medicine{
		ID:             "m1",
		Name:           "Aspirin",
		Dosage:         "1정",
		Times:          []string{"08:00", "20:00"},
		IsActive:       true,
		RemainingPills: medicine.Pills(n),
		IntakeHistory:  []medicine.IntakeRecord{},
	}
}

func TestRecordIntake_Taken(t *testing.T) {
	l, repo := setup(t, withPills(10))
	ctx := context.Background()

	m, ok, err := l.RecordIntake(ctx, "m1", "08:00", true)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, m.IntakeHistory, 1)
	rec := m.IntakeHistory[0]
	assert.Equal(t, "2024-03-10", rec.Date)
	assert.Equal(t, "08:00", rec.Time)
	assert.True(t, rec.Taken)
	assert.Equal(t, fixedNow.UnixMilli(), rec.Timestamp)
	assert.Equal(t, 9, *m.RemainingPills)

	stored, _, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, m, stored)
}

func TestRecordIntake_OneRecordPerSlot(t *testing.T) {
	l, _ := setup(t, withPills(10))
	ctx := context.Background()

	_, _, err := l.RecordIntake(ctx, "m1", "08:00", true)
	require.NoError(t, err)
	_, _, err = l.RecordIntake(ctx, "m1", "20:00", false)
	require.NoError(t, err)
	m, _, err := l.RecordIntake(ctx, "m1", "08:00", false)
	require.NoError(t, err)

	require.Len(t, m.IntakeHistory, 2)
	assert.Equal(t, "20:00", m.IntakeHistory[0].Time)
	assert.Equal(t, "08:00", m.IntakeHistory[1].Time, "the replacement is appended")
	assert.False(t, m.IntakeHistory[1].Taken)
	assert.Equal(t, 9, *m.RemainingPills, "missed doses leave the count alone")
}

func TestRecordIntake_RepeatedTakenDecrementsAgain(t *testing.T) {
	l, _ := setup(t, withPills(10))
	ctx := context.Background()

	_, _, err := l.RecordIntake(ctx, "m1", "08:00", true)
	require.NoError(t, err)
	m, _, err := l.RecordIntake(ctx, "m1", "08:00", true)
	require.NoError(t, err)

	assert.Len(t, m.IntakeHistory, 1)
	assert.Equal(t, 8, *m.RemainingPills)
}

func TestRecordIntake_StopsAtZero(t *testing.T) {
	l, _ := setup(t, withPills(0))

	m, _, err := l.RecordIntake(context.Background(), "m1", "08:00", true)
	require.NoError(t, err)
	assert.Equal(t, 0, *m.RemainingPills)
}

func TestRecordIntake_NoPillTracking(t *testing.T) {
	m := withPills(0)
	m.RemainingPills = nil
	l, _ := setup(t, m)

	got, _, err := l.RecordIntake(context.Background(), "m1", "08:00", true)
	require.NoError(t, err)
	assert.Nil(t, got.RemainingPills)
}

func TestRecordIntake_UnknownIDIsNoop(t *testing.T) {
	l, repo := setup(t, withPills(10))
	ctx := context.Background()

	_, ok, err := l.RecordIntake(ctx, "deleted", "08:00", true)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, _, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, stored.IntakeHistory)
}

func TestRecordIntake_NormalizesTime(t *testing.T) {
	m := withPills(10)
	m.Times = []string{"08:00"}
	l, _ := setup(t, m)

	got, _, err := l.RecordIntake(context.Background(), "m1", "8:00", true)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.IntakeHistory[0].Time)

	_, _, err = l.RecordIntake(context.Background(), "m1", "8am", true)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSetRemainingPills(t *testing.T) {
	l, _ := setup(t, withPills(3))
	ctx := context.Background()

	m, ok, err := l.SetRemainingPills(ctx, "m1", 30)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30, *m.RemainingPills)

	_, _, err = l.SetRemainingPills(ctx, "m1", -1)
	assert.Equal(t, apperrors.ErrNegativePills.Code, apperrors.GetCode(err))

	_, ok, err = l.SetRemainingPills(ctx, "missing", 5)
	require.NoError(t, err)
	assert.False(t, ok)
}
