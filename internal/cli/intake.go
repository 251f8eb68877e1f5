package cli

import (
	"context"

	"github.com/gmsas95/dosekeeper-cli/internal/app"
	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"github.com/spf13/cobra"
)

func newTodayCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the next dose of every medicine still due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				doses, err := a.Service.Today(ctx)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				if len(doses) == 0 {
					p.line("No more doses today")
					return nil
				}
				for _, d := range doses {
					p.line("%s  %-9s  %s %s  %s  (%s)",
						d.NextTime, schedule.PeriodOf(d.NextTime), d.Medicine.Name, d.Medicine.Dosage,
						p.render(dimStyle, d.Label), d.Medicine.ID)
				}
				return nil
			})
		},
	}
}

func newTakeCommand(opts *options) *cobra.Command {
	var missed bool

	cmd := &cobra.Command{
		Use:   "take ID TIME",
		Short: "Record today's dose at TIME as taken (or missed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				m, found, err := a.Service.MarkTaken(ctx, args[0], args[1], !missed)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				if !found {
					p.warn("no medicine with that id")
					return nil
				}
				if missed {
					p.ok("%s %s marked missed", m.Name, args[1])
					return nil
				}
				p.ok("%s %s marked taken", m.Name, args[1])
				if m.RemainingPills != nil {
					p.line("%d pills left", *m.RemainingPills)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&missed, "missed", false, "Record the dose as missed")
	return cmd
}
