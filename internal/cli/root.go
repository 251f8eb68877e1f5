// Package cli implements the dosekeeper command line
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gmsas95/dosekeeper-cli/internal/app"
	"github.com/gmsas95/dosekeeper-cli/internal/config"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type options struct {
	configPath string
	dataDir    string
	memory     bool
	verbose    bool
	version    string
}

// NewRootCommand builds the dosekeeper command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &options{version: version}

	root := &cobra.Command{
		Use:           "dosekeeper",
		Short:         "dosekeeper reminds you to take your medicine",
		Long:          "dosekeeper keeps your medicines, reminds you at dose times and tracks what you took.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&opts.dataDir, "data", "", "Path to data directory")
	root.PersistentFlags().BoolVar(&opts.memory, "memory", false, "Keep medicines in memory only")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		newAddCommand(opts),
		newEditCommand(opts),
		newListCommand(opts),
		newTodayCommand(opts),
		newTakeCommand(opts),
		newToggleCommand(opts),
		newDeleteCommand(opts),
		newPillsCommand(opts),
		newStatsCommand(opts),
		newThemeCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newDashboardCommand(opts),
		newServeCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", service.UserMessage(err))
		os.Exit(1)
	}
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath, o.dataDir)
	if err != nil {
		return nil, err
	}
	if o.memory {
		cfg.Storage.Backend = "memory"
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// cliLogger stays quiet below warnings so command output is not mixed with logs
func (o *options) cliLogger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	if !o.verbose {
		logCfg.Level = "warn"
	}
	return app.NewLogger(logCfg)
}

// withApp opens the store for one command and closes it afterwards
func (o *options) withApp(cmd *cobra.Command, run func(context.Context, *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := o.cliLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.New(ctx, cfg, logger, o.version)
	if err != nil {
		return err
	}
	defer application.Close()

	return run(ctx, application)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
