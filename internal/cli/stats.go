package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/gmsas95/dosekeeper-cli/internal/adherence"
	"github.com/gmsas95/dosekeeper-cli/internal/app"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"github.com/spf13/cobra"
)

func newStatsCommand(opts *options) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily compliance for the last days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !cmd.Flags().Changed("days") {
					days = a.Config.Stats.DefaultDays
				}
				report, err := a.Service.Stats(ctx, days)
				if err != nil {
					return err
				}

				md := statsMarkdown(report)
				out := cmd.OutOrStdout()
				if !isTerminal(out) {
					_, err := fmt.Fprint(out, md)
					return err
				}

				theme, err := a.Service.Theme(ctx)
				if err != nil {
					return err
				}
				style := "light"
				if theme.IsDark(time.Now()) {
					style = "dark"
				}
				r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(80))
				if err != nil {
					return err
				}
				rendered, err := r.Render(md)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, rendered)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Window of days (7, 14 or 30)")
	return cmd
}

func statsMarkdown(r adherence.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 복용 통계 (%d일)\n\n", r.Days)
	fmt.Fprintf(&b, "- Average compliance: **%.0f%%**\n", r.AverageCompliance)
	fmt.Fprintf(&b, "- Taken: %d\n", r.TotalTaken)
	fmt.Fprintf(&b, "- Missed: %d\n\n", r.TotalMissed)

	b.WriteString("| Date | Taken | Missed | Compliance |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, s := range r.Summaries {
		fmt.Fprintf(&b, "| %s | %d/%d | %d | %.0f%% |\n",
			s.Date, s.TakenMedicines, s.TotalMedicines, s.MissedMedicines, s.Percentage)
	}
	return b.String()
}

func newThemeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|auto]",
		Short:     "Show or set the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(store.ThemeLight), string(store.ThemeDark), string(store.ThemeAuto)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				p := newPrinter(cmd.OutOrStdout())
				if len(args) == 0 {
					mode, err := a.Service.Theme(ctx)
					if err != nil {
						return err
					}
					p.line("%s", mode)
					return nil
				}

				mode, err := store.ParseThemeMode(args[0])
				if err != nil {
					return err
				}
				if err := a.Service.SetTheme(ctx, mode); err != nil {
					return err
				}
				p.ok("Theme set to %s", mode)
				return nil
			})
		},
	}
}
