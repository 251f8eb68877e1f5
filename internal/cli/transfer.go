package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gmsas95/dosekeeper-cli/internal/app"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/spf13/cobra"
)

func newExportCommand(opts *options) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every medicine with its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && out != "" {
				format = string(service.FormatOf(out))
			}
			f, err := service.ParseFormat(format)
			if err != nil {
				return err
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					file, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("create export file: %w", err)
					}
					defer file.Close()
					w = file
				}
				return a.Service.Export(ctx, w, f)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import medicines from an export; records with matching ids are replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = string(service.FormatOf(args[0]))
			}
			f, err := service.ParseFormat(format)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.Import(ctx, file, f)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				p.ok("Imported %d medicines", res.Imported)
				if res.AlarmErr != nil {
					p.warn("%s", service.UserMessage(res.AlarmErr))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension)")
	return cmd
}
