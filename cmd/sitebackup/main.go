package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/yurykabanov/sitebackup/internal/configfx"
	"github.com/yurykabanov/sitebackup/internal/domainfx"
	"github.com/yurykabanov/sitebackup/internal/httpfx"
	"github.com/yurykabanov/sitebackup/internal/loggerfx"
	"github.com/yurykabanov/sitebackup/internal/mysqlfx"
	"github.com/yurykabanov/sitebackup/internal/sqlfx"
	"github.com/yurykabanov/sitebackup/internal/storagefx"
)

const (
	startTimeout = 15 * time.Second
	stopTimeout  = 15 * time.Second
)

func main() {
	flags := configfx.PFlags()

	root := &cobra.Command{
		Use:           "sitebackup",
		Short:         "Backs up a site's database and content files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddFlagSet(flags)

	root.AddCommand(
		serveCommand(flags),
		runCommand(flags),
		listCommand(flags),
		deleteCommand(flags),
		statusCommand(flags),
		scheduleCommand(flags),
	)

	if err := root.Execute(); err != nil {
		loggerfx.Logger().WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func options(flags *pflag.FlagSet, extra ...fx.Option) []fx.Option {
	return append([]fx.Option{
		fx.StartTimeout(startTimeout),
		fx.StopTimeout(stopTimeout),

		fx.Logger(loggerfx.Logger()),
		fx.Supply(flags),

		loggerfx.Module,
		configfx.Module,
		sqlfx.Module,
		mysqlfx.Module,
		storagefx.Module,
		domainfx.Module,
	}, extra...)
}

func serveCommand(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the admin API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app := fx.New(options(flags,
				httpfx.Module,
				fx.Invoke(domainfx.RunScheduler),
			)...)

			app.Run()
		},
	}
}

// withApp starts the application graph without the scheduler or the admin
// API, populates targets, calls fn and stops the graph again.
func withApp(flags *pflag.FlagSet, fn func(ctx context.Context) error, targets ...interface{}) error {
	app := fx.New(options(flags, fx.Populate(targets...))...)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		return err
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		if err := app.Stop(stopCtx); err != nil {
			loggerfx.Logger().WithError(err).Warn("Unable to stop cleanly")
		}
	}()

	return fn(context.Background())
}
