package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printer writes command output, styled only on a terminal
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer) printer {
	return printer{w: w, styled: isTerminal(w)}
}

func (p printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p printer) ok(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(okStyle, "✓ "+fmt.Sprintf(format, args...)))
}

func (p printer) warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(warnStyle, "! "+fmt.Sprintf(format, args...)))
}

func (p printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// saved reports a save outcome: warns when the alarms did not follow the write
func (p printer) saved(verb string, res service.SaveResult) {
	if !res.Saved {
		p.warn("no medicine with that id")
		return
	}
	p.ok("%s %s (%s)", verb, res.Medicine.Name, res.Medicine.ID)
	if res.AlarmErr != nil {
		p.warn("%s", service.UserMessage(res.AlarmErr))
	}
}

func (p printer) medicine(m medicine.Medicine, threshold int) {
	status := "active"
	if !m.IsActive {
		status = "paused"
	}

	line := fmt.Sprintf("%s  %s %s  [%s]  %s  %s",
		m.ID, m.Name, m.Dosage, m.Category, strings.Join(m.Times, ", "), p.render(dimStyle, status))
	if m.RemainingPills != nil {
		pills := fmt.Sprintf("%d pills left", *m.RemainingPills)
		if m.LowStock(threshold) {
			pills = p.render(warnStyle, "⚠ "+pills)
		}
		line += "  " + pills
	}
	p.line("%s", line)
}
