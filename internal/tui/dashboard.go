// Package tui is the terminal dashboard of today's doses
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
)

// RefreshInterval is how often the dose list is recomputed
const RefreshInterval = 60 * time.Second

// Service is what the dashboard needs from the operation layer
type Service interface {
	Today(ctx context.Context) ([]schedule.Dose, error)
	MarkTaken(ctx context.Context, id, hhmm string, taken bool) (medicine.Medicine, bool, error)
	Toggle(ctx context.Context, id string) (service.SaveResult, error)
	Theme(ctx context.Context) (store.ThemeMode, error)
	LowStockThreshold() int
}

var periodLabels = map[schedule.Period]string{
	schedule.Morning:   "아침",
	schedule.Afternoon: "오후",
	schedule.Evening:   "저녁",
	schedule.Night:     "밤",
}

type tickMsg time.Time

type dosesMsg struct {
	doses []schedule.Dose
	theme store.ThemeMode
	err   error
}

type actionMsg struct {
	status string
	err    error
}

// Model is the bubbletea model of the dashboard
type Model struct {
	ctx      context.Context
	svc      Service
	now      func() time.Time
	interval time.Duration

	doses  []schedule.Dose
	cursor int
	theme  store.ThemeMode
	styles Styles
	keys   keyMap
	help   help.Model

	status string
	err    error
	loaded bool
}

// New creates a dashboard over svc
func New(ctx context.Context, svc Service) Model {
	return Model{
		ctx:      ctx,
		svc:      svc,
		now:      time.Now,
		interval: RefreshInterval,
		theme:    store.ThemeAuto,
		styles:   NewStyles(store.ThemeAuto.IsDark(time.Now())),
		keys:     defaultKeys,
		help:     help.New(),
	}
}

// WithClock replaces the time source
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	m.styles = NewStyles(m.theme.IsDark(now()))
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		theme, err := m.svc.Theme(m.ctx)
		if err != nil {
			return dosesMsg{err: err}
		}
		doses, err := m.svc.Today(m.ctx)
		return dosesMsg{doses: doses, theme: theme, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case dosesMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.theme = msg.theme
		m.styles = NewStyles(m.theme.IsDark(m.now()))
		m.doses = sortByTime(msg.doses)
		if m.cursor >= len(m.doses) {
			m.cursor = max(len(m.doses)-1, 0)
		}
		return m, nil

	case actionMsg:
		m.status, m.err = msg.status, msg.err
		return m, m.load()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.doses)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m, m.load()
	case key.Matches(msg, m.keys.Take):
		return m, m.mark(true)
	case key.Matches(msg, m.keys.Miss):
		return m, m.mark(false)
	case key.Matches(msg, m.keys.Pause):
		return m, m.pause()
	}
	return m, nil
}

func (m Model) selected() (schedule.Dose, bool) {
	if m.cursor < 0 || m.cursor >= len(m.doses) {
		return schedule.Dose{}, false
	}
	return m.doses[m.cursor], true
}

func (m Model) mark(taken bool) tea.Cmd {
	dose, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		_, _, err := m.svc.MarkTaken(m.ctx, dose.Medicine.ID, dose.NextTime, taken)
		if err != nil {
			return actionMsg{err: err}
		}
		verb := "taken"
		if !taken {
			verb = "missed"
		}
		return actionMsg{status: fmt.Sprintf("%s %s marked %s", dose.Medicine.Name, dose.NextTime, verb)}
	}
}

func (m Model) pause() tea.Cmd {
	dose, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		res, err := m.svc.Toggle(m.ctx, dose.Medicine.ID)
		if err != nil {
			return actionMsg{err: err}
		}
		if res.AlarmErr != nil {
			return actionMsg{err: res.AlarmErr}
		}
		if !res.Saved {
			return actionMsg{status: fmt.Sprintf("%s is no longer registered", dose.Medicine.Name)}
		}
		verb := "resumed"
		if !res.Medicine.IsActive {
			verb = "paused"
		}
		return actionMsg{status: fmt.Sprintf("%s reminders %s", dose.Medicine.Name, verb)}
	}
}

func (m Model) View() string {
	s := m.styles
	now := m.now()

	var b strings.Builder
	b.WriteString(s.Title.Render(fmt.Sprintf("💊 오늘의 복용 · %s", now.Format("2006-01-02 (Mon)"))))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(s.Muted.Render("  loading..."))
		b.WriteString("\n")
	case len(m.doses) == 0 && m.err == nil:
		b.WriteString(s.Muted.Render("  No more doses today"))
		b.WriteString("\n")
	}

	threshold := m.svc.LowStockThreshold()
	var current schedule.Period
	for i, d := range m.doses {
		if p := schedule.PeriodOf(d.NextTime); p != current {
			current = p
			b.WriteString(s.Period.Render(periodLabels[p]))
			b.WriteString("\n")
		}

		line := fmt.Sprintf("%s  %s %s  %s", d.NextTime, d.Medicine.Name, d.Medicine.Dosage, s.Muted.Render(d.Label))
		if d.Medicine.LowStock(threshold) {
			line += "  " + s.LowStock.Render(fmt.Sprintf("⚠ %d left", *d.Medicine.RemainingPills))
		}

		if i == m.cursor {
			b.WriteString(s.Selected.Render("▸ " + line))
		} else {
			b.WriteString(s.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(s.Error.Render(service.UserMessage(m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(s.Status.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func sortByTime(doses []schedule.Dose) []schedule.Dose {
	out := append([]schedule.Dose(nil), doses...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextTime < out[j].NextTime
	})
	return out
}

// Run shows the dashboard until the user quits or ctx is cancelled
func Run(ctx context.Context, svc Service, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, svc), opts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
