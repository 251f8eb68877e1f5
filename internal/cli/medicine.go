package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gmsas95/dosekeeper-cli/internal/app"
	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/spf13/cobra"
)

type medicineFlags struct {
	name      string
	dosage    string
	times     []string
	frequency string
	category  string
	total     int
	remaining int
	notes     string
	paused    bool
}

func (f *medicineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Medicine name")
	cmd.Flags().StringVar(&f.dosage, "dosage", "", "Dose per intake, e.g. 1정 or 500mg")
	cmd.Flags().StringSliceVar(&f.times, "time", nil, "Dose time HH:MM (repeatable)")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "daily, twice, thrice or custom")
	cmd.Flags().StringVar(&f.category, "category", "", "prescription, otc or supplement")
	cmd.Flags().IntVar(&f.total, "total-pills", -1, "Pills in a full supply")
	cmd.Flags().IntVar(&f.remaining, "pills", -1, "Pills remaining")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&f.paused, "paused", false, "Save without reminders")
}

// apply copies the flags that were set onto m
func (f *medicineFlags) apply(cmd *cobra.Command, m *medicine.Medicine) error {
	changed := cmd.Flags().Changed

	if changed("name") {
		m.Name = f.name
	}
	if changed("dosage") {
		m.Dosage = f.dosage
	}
	if changed("time") {
		m.Times = f.times
	}
	if changed("frequency") {
		m.Frequency = medicine.Frequency(f.frequency)
	}
	if changed("category") {
		c, err := medicine.ParseCategory(f.category)
		if err != nil {
			return err
		}
		m.Category = c
	}
	if changed("total-pills") {
		m.TotalPills = medicine.Pills(f.total)
	}
	if changed("pills") {
		m.RemainingPills = medicine.Pills(f.remaining)
	}
	if changed("notes") {
		m.Notes = f.notes
	}
	if changed("paused") {
		m.IsActive = !f.paused
	}
	return nil
}

func newAddCommand(opts *options) *cobra.Command {
	flags := &medicineFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a medicine and its dose times",
		Example: `  dosekeeper add --name 타이레놀 --dosage 1정 --time 08:00 --time 20:00
  dosekeeper add --name "Vitamin D" --dosage 1000IU --time 9:00 --category supplement --pills 60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := medicine.Medicine{IsActive: true}
			if err := flags.apply(cmd, &m); err != nil {
				return err
			}
			if m.RemainingPills != nil && m.TotalPills == nil {
				m.TotalPills = medicine.Pills(*m.RemainingPills)
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.Save(ctx, m)
				if err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).saved("Added", res)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCommand(opts *options) *cobra.Command {
	flags := &medicineFlags{}
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a medicine; only the given flags are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				m, found, err := a.Service.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return apperrors.New(apperrors.ErrNotFound.Code, fmt.Sprintf("no medicine with id %s", args[0]))
				}
				if err := flags.apply(cmd, &m); err != nil {
					return err
				}
				// nil keeps whatever history is stored when the edit is written
				m.IntakeHistory = nil
				res, err := a.Service.Edit(ctx, m)
				if err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).saved("Updated", res)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	var filter service.Filter
	var category string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List medicines",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" {
				c, err := medicine.ParseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = c
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				meds, err := a.Service.List(ctx, filter)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				if len(meds) == 0 {
					p.line("No medicines found. Add one with: dosekeeper add --name NAME --dosage DOSE --time HH:MM")
					return nil
				}
				for _, m := range meds {
					p.medicine(m, a.Service.LowStockThreshold())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only show this category")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only show names containing this text")
	return cmd
}

func newToggleCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Pause or resume reminders of a medicine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				verb := "Resumed"
				if !res.Medicine.IsActive {
					verb = "Paused"
				}
				newPrinter(cmd.OutOrStdout()).saved(verb, res)
				return nil
			})
		},
	}
}

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a medicine with its history and reminders",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).saved("Deleted", res)
				return nil
			})
		},
	}
}

func newPillsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pills ID N",
		Short: "Set the remaining pill count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.New(apperrors.ErrBadRequest.Code, fmt.Sprintf("invalid pill count %q", args[1]))
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				m, found, err := a.Service.SetPills(ctx, args[0], n)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				if !found {
					p.warn("no medicine with that id")
					return nil
				}
				p.ok("%s has %d pills left", m.Name, *m.RemainingPills)
				return nil
			})
		},
	}
}
