package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yurykabanov/sitebackup/pkg/domain"
	"github.com/yurykabanov/sitebackup/pkg/transfer"
)

func runCommand(flags *pflag.FlagSet) *cobra.Command {
	var scheduled bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a backup now and wait for it to finish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var coordinator *domain.Coordinator

			trigger := domain.TriggerManual
			if scheduled {
				trigger = domain.TriggerScheduled
			}

			return withApp(flags, func(ctx context.Context) error {
				result := coordinator.Run(ctx, trigger)

				fmt.Fprintln(cmd.OutOrStdout(), result.Message)

				if !result.Success {
					return errors.Wrap(result.Err, "backup run failed")
				}

				if result.Uploaded {
					fmt.Fprintln(cmd.OutOrStdout(), "Uploaded to remote storage")
				}

				return nil
			}, &coordinator)
		},
	}

	cmd.Flags().BoolVar(&scheduled, "scheduled", false, "Record the run as scheduled, for use from an external cron")

	return cmd
}

func listCommand(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local and remote backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var catalog *domain.Catalog

			return withApp(flags, func(ctx context.Context) error {
				artifacts, err := catalog.ListArtifacts(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSIZE\tCREATED\tLOCATION")

				for _, a := range artifacts {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, humanize.Bytes(uint64(a.Size)), a.CreatedAt.Format(time.RFC3339), a.Location)
				}

				return w.Flush()
			}, &catalog)
		},
	}
}

func deleteCommand(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a backup locally and from remote storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var manager *transfer.Manager

			return withApp(flags, func(ctx context.Context) error {
				err := manager.Remove(ctx, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])

				return nil
			}, &manager)
		},
	}
}

func statusCommand(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last run, the run lock and the schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				coordinator *domain.Coordinator
				schedule    domain.ScheduleRepository
				settings    domain.Settings
			)

			return withApp(flags, func(ctx context.Context) error {
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "Running:   %t\n", coordinator.IsRunning(ctx))

				record, ok, err := coordinator.LastRun(ctx)
				if err != nil {
					return err
				}

				if !ok {
					fmt.Fprintln(out, "Last run:  never")
				} else {
					fmt.Fprintf(out, "Last run:  %s (%s, %s)\n", record.Timestamp.Format(time.RFC3339), record.Status, record.Trigger)

					switch record.Status {
					case domain.RunStatusCompleted:
						fmt.Fprintf(out, "Artifact:  %s (%s)\n", record.ArtifactName, humanize.Bytes(uint64(record.Size)))
					case domain.RunStatusFailed:
						fmt.Fprintf(out, "Error:     %s\n", record.Error)
					}
				}

				interval, ok, err := schedule.ScheduleInterval(ctx)
				if err != nil {
					return err
				}

				if !ok {
					interval = settings.ScheduleInterval
				}

				fmt.Fprintf(out, "Schedule:  %s\n", interval)

				return nil
			}, &coordinator, &schedule, &settings)
		},
	}
}

func scheduleCommand(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule INTERVAL",
		Short: "Change the backup interval (disabled, daily, weekly)",
		Long: "Change the backup interval (disabled, daily, weekly).\n\n" +
			"The interval is persisted in the state database; a running server picks it up on restart.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := domain.ParseInterval(args[0])
			if err != nil {
				return err
			}

			var scheduler *domain.Scheduler

			return withApp(flags, func(ctx context.Context) error {
				err := scheduler.UpdateInterval(ctx, interval)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Schedule set to %s\n", interval)

				return nil
			}, &scheduler)
		},
	}
}
