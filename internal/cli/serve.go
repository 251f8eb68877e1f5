package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gmsas95/dosekeeper-cli/internal/app"
	"github.com/gmsas95/dosekeeper-cli/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Fire reminders and serve the local API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("Starting dosekeeper",
				zap.String("version", opts.version),
				zap.String("data_dir", cfg.Storage.DataDir),
			)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			application, err := app.New(ctx, cfg, logger, opts.version)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.RunServer(ctx)
		},
	}
}

func newDashboardCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard of today's doses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !isTerminal(cmd.OutOrStdout()) {
				return fmt.Errorf("the dashboard needs an interactive terminal; try dosekeeper today")
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return tui.Run(ctx, a.Service, tea.WithOutput(cmd.OutOrStdout()))
			})
		},
	}
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dosekeeper version %s\n", opts.version)
		},
	}
}
