package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markCall struct {
	id, time string
	taken    bool
}

type fakeService struct {
	doses    []schedule.Dose
	theme    store.ThemeMode
	todayErr error
	marks    []markCall
	toggled  []string
	resumes  bool
}

func (f *fakeService) Today(ctx context.Context) ([]schedule.Dose, error) {
	return f.doses, f.todayErr
}

func (f *fakeService) MarkTaken(ctx context.Context, id, hhmm string, taken bool) (medicine.Medicine, bool, error) {
	f.marks = append(f.marks, markCall{id, hhmm, taken})
	return medicine.Medicine{ID: id}, true, nil
}

func (f *fakeService) Toggle(ctx context.Context, id string) (service.SaveResult, error) {
	f.toggled = append(f.toggled, id)
	return service.SaveResult{Medicine: medicine.Medicine{ID: id, IsActive: f.resumes}, Saved: true}, nil
}

func (f *fakeService) Theme(ctx context.Context) (store.ThemeMode, error) {
	return f.theme, nil
}

func (f *fakeService) LowStockThreshold() int { return 5 }

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)

func newModel(svc *fakeService) Model {
	return New(context.Background(), svc).WithClock(func() time.Time { return fixedNow })
}

func sampleDoses() []schedule.Dose {
	return []schedule.Dose{
		{
			Medicine: medicine.Medicine{ID: "b", Name: "Vitamin D", Dosage: "1정", RemainingPills: medicine.Pills(2)},
			NextTime: "20:00",
			Label:    "11시간 0분 후",
		},
		{
			Medicine: medicine.Medicine{ID: "a", Name: "Aspirin", Dosage: "100mg"},
			NextTime: "12:30",
			Label:    "3시간 30분 후",
		},
	}
}

// loaded runs the model's load command and feeds the result back
func loaded(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.load()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDashboard_LoadSortsByTime(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeDark}
	m := loaded(t, newModel(svc))

	require.Len(t, m.doses, 2)
	assert.Equal(t, "12:30", m.doses[0].NextTime)
	assert.Equal(t, "20:00", m.doses[1].NextTime)
	assert.Equal(t, store.ThemeDark, m.theme)
}

func TestDashboard_View(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeLight}
	view := loaded(t, newModel(svc)).View()

	assert.Contains(t, view, "2024-03-10")
	assert.Contains(t, view, "Aspirin 100mg")
	assert.Contains(t, view, "3시간 30분 후")
	assert.Contains(t, view, "오후")
	assert.Contains(t, view, "저녁")
	assert.Contains(t, view, "⚠ 2 left")
}

func TestDashboard_ViewEmpty(t *testing.T) {
	view := loaded(t, newModel(&fakeService{theme: store.ThemeAuto})).View()
	assert.Contains(t, view, "No more doses today")
}

func TestDashboard_ViewError(t *testing.T) {
	svc := &fakeService{todayErr: errors.New("disk gone"), theme: store.ThemeAuto}
	view := loaded(t, newModel(svc)).View()
	assert.Contains(t, view, "disk gone")
}

func TestDashboard_MarkSelected(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeAuto}
	m := loaded(t, newModel(svc))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)

	next, cmd := m.Update(runes("t"))
	m = next.(Model)
	require.NotNil(t, cmd)

	msg := cmd()
	require.Equal(t, []markCall{{"b", "20:00", true}}, svc.marks)

	next, reload := m.Update(msg)
	m = next.(Model)
	assert.NotNil(t, reload)
	assert.Contains(t, m.View(), "Vitamin D 20:00 marked taken")
}

func TestDashboard_MarkMissed(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeAuto}
	m := loaded(t, newModel(svc))

	_, cmd := m.Update(runes("m"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []markCall{{"a", "12:30", false}}, svc.marks)
}

func TestDashboard_Pause(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeAuto}
	m := loaded(t, newModel(svc))

	_, cmd := m.Update(runes("p"))
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())

	assert.Equal(t, []string{"a"}, svc.toggled)
	assert.Contains(t, next.(Model).View(), "Aspirin reminders paused")
}

func TestDashboard_PauseReportsResume(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeAuto, resumes: true}
	m := loaded(t, newModel(svc))

	_, cmd := m.Update(runes("p"))
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())

	view := next.(Model).View()
	assert.Contains(t, view, "Aspirin reminders resumed")
	assert.NotContains(t, view, "paused")
}

func TestDashboard_NoSelectionIsNoop(t *testing.T) {
	svc := &fakeService{theme: store.ThemeAuto}
	m := loaded(t, newModel(svc))

	_, cmd := m.Update(runes("t"))
	assert.Nil(t, cmd)
	assert.Empty(t, svc.marks)
}

func TestDashboard_CursorBounds(t *testing.T) {
	m := loaded(t, newModel(&fakeService{doses: sampleDoses(), theme: store.ThemeAuto}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, next.(Model).cursor)

	for i := 0; i < 5; i++ {
		next, _ = next.Update(runes("j"))
	}
	assert.Equal(t, 1, next.(Model).cursor)
}

func TestDashboard_CursorClampedOnShrink(t *testing.T) {
	svc := &fakeService{doses: sampleDoses(), theme: store.ThemeAuto}
	m := loaded(t, newModel(svc))
	m.cursor = 1

	svc.doses = svc.doses[:1]
	m = loaded(t, m)
	assert.Equal(t, 0, m.cursor)
}

func TestDashboard_TickReloads(t *testing.T) {
	m := newModel(&fakeService{theme: store.ThemeAuto})
	_, cmd := m.Update(tickMsg(fixedNow))
	assert.NotNil(t, cmd)
}

func TestDashboard_Quit(t *testing.T) {
	m := newModel(&fakeService{theme: store.ThemeAuto})
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestNewStyles(t *testing.T) {
	assert.NotEqual(t, NewStyles(true).Title.GetForeground(), NewStyles(false).Title.GetForeground())
}
