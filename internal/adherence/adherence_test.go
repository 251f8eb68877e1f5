package adherence

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

var today = time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)

func record(date, hhmm string, taken bool) medicine.IntakeRecord {
	return medicine.IntakeRecord{Date: date, Time: hhmm, Taken: taken}
}

func sampleMedicines() []medicine.Medicine {
	return []medicine.Medicine{
		{
			ID:       "a",
			Times:    []string{"08:00", "20:00"},
			IsActive: true,
			IntakeHistory: []medicine.IntakeRecord{
				record("2024-03-09", "08:00", true),
				record("2024-03-09", "20:00", true),
				record("2024-03-10", "08:00", true),
				record("2024-03-10", "20:00", false),
			},
		},
		{
			ID:       "b",
			Times:    []string{"12:00"},
			IsActive: false,
			IntakeHistory: []medicine.IntakeRecord{
				record("2024-03-09", "12:00", true),
				record("2024-03-01", "12:00", true),
			},
		},
	}
}

func TestSummarize_ThreeDays(t *testing.T) {
	got := Summarize(sampleMedicines(), today, 3)

	require.Len(t, got, 3)
	assert.Equal(t, DailySummary{Date: "2024-03-08", TotalMedicines: 3, TakenMedicines: 0, MissedMedicines: 3, Percentage: 0}, got[0])
	assert.Equal(t, DailySummary{Date: "2024-03-09", TotalMedicines: 3, TakenMedicines: 3, MissedMedicines: 0, Percentage: 100}, got[1])
	assert.Equal(t, "2024-03-10", got[2].Date)
	assert.Equal(t, 1, got[2].TakenMedicines)
	assert.Equal(t, 2, got[2].MissedMedicines)
	assert.InDelta(t, 33.333, got[2].Percentage, 0.01)
}

func TestSummarize_NonPositiveDays(t *testing.T) {
	assert.Empty(t, Summarize(sampleMedicines(), today, 0))
	assert.NotNil(t, Summarize(sampleMedicines(), today, -2))
}

func TestSummarize_CapsWindow(t *testing.T) {
	assert.Len(t, Summarize(sampleMedicines(), today, 1<<62), MaxDays)
}

func TestSummarize_NoMedicines(t *testing.T) {
	got := Summarize(nil, today, 7)
	require.Len(t, got, 7)
	for _, s := range got {
		assert.Zero(t, s.TotalMedicines)
		assert.Zero(t, s.Percentage)
	}
}

func TestSummarize_MissedIsNotClamped(t *testing.T) {
	meds := []medicine.Medicine{{
		ID:    "a",
		Times: []string{"08:00"},
		IntakeHistory: []medicine.IntakeRecord{
			record("2024-03-10", "08:00", true),
			record("2024-03-10", "09:00", true),
		},
	}}
	got := Summarize(meds, today, 1)
	assert.Equal(t, -1, got[0].MissedMedicines)
	assert.Equal(t, float64(200), got[0].Percentage)
}

func TestSummarize_CrossesMonthBoundary(t *testing.T) {
	got := Summarize(nil, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local), 2)
	assert.Equal(t, "2024-02-29", got[0].Date)
	assert.Equal(t, "2024-03-01", got[1].Date)
}

func TestBuild(t *testing.T) {
	r := Build(Summarize(sampleMedicines(), today, 3))

	assert.Equal(t, 3, r.Days)
	assert.Equal(t, 4, r.TotalTaken)
	assert.Equal(t, 5, r.TotalMissed)
	assert.InDelta(t, (0+100+33.333)/3, r.AverageCompliance, 0.01)

	empty := Build([]DailySummary{})
	assert.Zero(t, empty.AverageCompliance)
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()
	repo := store.New(store.NewMemoryKV(), nil)
	for _, m := range sampleMedicines() {
		require.NoError(t, repo.Upsert(ctx, m))
	}
	a := New(repo).WithClock(func() time.Time { return today })

	first, err := a.DailySummaries(ctx, 3)
	require.NoError(t, err)
	second, err := a.DailySummaries(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	none, err := a.DailySummaries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	r, err := a.Report(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, r.TotalTaken)

	_, err = a.Report(ctx, 0)
	assert.Equal(t, apperrors.ErrBadDays.Code, apperrors.GetCode(err))

	full, err := a.Report(ctx, MaxDays)
	require.NoError(t, err)
	assert.Len(t, full.Summaries, MaxDays)

	for _, days := range []int{MaxDays + 1, 1 << 62} {
		_, err = a.Report(ctx, days)
		assert.Equal(t, apperrors.ErrBadDays.Code, apperrors.GetCode(err), "days=%d", days)
		_, err = a.DailySummaries(ctx, days)
		assert.Equal(t, apperrors.ErrBadDays.Code, apperrors.GetCode(err), "days=%d", days)
	}
}
