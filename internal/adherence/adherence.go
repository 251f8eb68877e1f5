// Package adherence aggregates intake records into daily compliance
package adherence

import (
	"context"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
)

// MaxDays is the longest window a report covers
const MaxDays = 366

// DailySummary is the compliance of one calendar date
type DailySummary struct {
	Date            string  `json:"date" yaml:"date"`
	TotalMedicines  int     `json:"totalMedicines" yaml:"totalMedicines"`
	TakenMedicines  int     `json:"takenMedicines" yaml:"takenMedicines"`
	MissedMedicines int     `json:"missedMedicines" yaml:"missedMedicines"`
	Percentage      float64 `json:"percentage" yaml:"percentage"`
}

// Report is the statistics view over a window of days
type Report struct {
	Days              int            `json:"days" yaml:"days"`
	Summaries         []DailySummary `json:"summaries" yaml:"summaries"`
	AverageCompliance float64        `json:"averageCompliance" yaml:"averageCompliance"`
	TotalTaken        int            `json:"totalTaken" yaml:"totalTaken"`
	TotalMissed       int            `json:"totalMissed" yaml:"totalMissed"`
}

// Summarize returns one summary per calendar date for the days ending on
// today, oldest first. The expected count of every day is the number of
// dose times across all medicines, active or not, so missed can go
// negative when more records are marked taken than times exist.
func Summarize(meds []medicine.Medicine, today time.Time, days int) []DailySummary {
	if days <= 0 {
		return []DailySummary{}
	}
	if days > MaxDays {
		days = MaxDays
	}

	total := 0
	for _, m := range meds {
		total += len(m.Times)
	}

	summaries := make([]DailySummary, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := medicine.DateOf(today.AddDate(0, 0, -i))

		taken := 0
		for _, m := range meds {
			for _, r := range m.IntakeHistory {
				if r.Date == date && r.Taken {
					taken++
				}
			}
		}

		var pct float64
		if total > 0 {
			pct = float64(taken) / float64(total) * 100
		}
		summaries = append(summaries, DailySummary{
			Date:            date,
			TotalMedicines:  total,
			TakenMedicines:  taken,
			MissedMedicines: total - taken,
			Percentage:      pct,
		})
	}
	return summaries
}

// Build derives the statistics view from summaries
func Build(summaries []DailySummary) Report {
	r := Report{Days: len(summaries), Summaries: summaries}
	if len(summaries) == 0 {
		return r
	}

	var sum float64
	for _, s := range summaries {
		sum += s.Percentage
		r.TotalTaken += s.TakenMedicines
		r.TotalMissed += s.MissedMedicines
	}
	r.AverageCompliance = sum / float64(len(summaries))
	return r
}

// Aggregator reads the repository and summarizes it on every call
type Aggregator struct {
	repo *store.Repository
	now  func() time.Time
}

func New(repo *store.Repository) *Aggregator {
	return &Aggregator{repo: repo, now: time.Now}
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// DailySummaries reads the collection and summarizes it. A window longer
// than MaxDays is rejected.
func (a *Aggregator) DailySummaries(ctx context.Context, days int) ([]DailySummary, error) {
	if days > MaxDays {
		return nil, apperrors.From(apperrors.ErrBadDays, nil)
	}
	if days <= 0 {
		return []DailySummary{}, nil
	}
	meds, err := a.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(meds, a.now(), days), nil
}

// Report summarizes a window of days. days must be in 1..MaxDays.
func (a *Aggregator) Report(ctx context.Context, days int) (Report, error) {
	if days <= 0 || days > MaxDays {
		return Report{}, apperrors.From(apperrors.ErrBadDays, nil)
	}
	summaries, err := a.DailySummaries(ctx, days)
	if err != nil {
		return Report{}, err
	}
	return Build(summaries), nil
}
