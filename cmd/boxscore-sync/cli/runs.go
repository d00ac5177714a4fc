package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/app"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/usecase"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

func newRunsCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage job runs",
	}
	cmd.AddCommand(
		newRunsListCmd(r),
		newRunsShowCmd(r),
		newRunsStopCmd(r),
		newRunsDeleteCmd(r),
		newRunsCleanupCmd(r),
	)
	return cmd
}

func newRunsListCmd(r *runner) *cobra.Command {
	var (
		q     usecase.RunQuery
		jobID uint
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("job-id") {
				q.JobID = &jobID
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				page, err := a.Control.ListRuns(ctx, q)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if ok, err := p.object(page); ok {
					return err
				}
				rows := make([][]string, 0, len(page.Runs))
				for _, run := range page.Runs {
					rows = append(rows, []string{
						strconv.FormatUint(uint64(run.ID), 10),
						run.JobName,
						string(run.TriggeredBy),
						string(run.Status),
						formatTime(&run.StartedAt),
						formatSeconds(run.DurationSeconds),
						strconv.Itoa(run.ItemsUpdated),
						run.ErrorMessage,
					})
				}
				if err := p.table([]string{"ID", "JOB", "TRIGGER", "STATUS", "STARTED", "DURATION", "ITEMS", "ERROR"}, rows); err != nil {
					return err
				}
				p.linef("%d of %d runs (offset %d)", len(page.Runs), page.Total, page.Offset)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.UintVar(&jobID, "job-id", 0, "Only runs of this job definition")
	f.StringVar(&q.JobName, "job-name", "", "Only runs of this job")
	f.StringVar((*string)(&q.Status), "status", "", "Only runs in this status (running, success, failed)")
	f.IntVar(&q.Limit, "limit", usecase.DefaultRunLimit, fmt.Sprintf("Page size (1-%d)", usecase.MaxRunLimit))
	f.IntVar(&q.Offset, "offset", 0, "Runs to skip")
	return cmd
}

func newRunsShowCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a run with its log, metrics and errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				view, err := a.Control.GetRunDetail(ctx, id)
				if err != nil {
					return err
				}
				return printRun(r.printer(cmd), view)
			})
		},
	}
}

func printRun(p *printer, v *usecase.RunView) error {
	if ok, err := p.object(v); ok {
		return err
	}
	p.linef("Run %d: %s (%s trigger)", v.ID, v.JobName, v.TriggeredBy)
	p.linef("  status:   %s", v.DisplayStatus)
	p.linef("  started:  %s", formatTime(&v.StartedAt))
	p.linef("  finished: %s", formatTime(v.CompletedAt))
	if v.ElapsedSeconds != nil {
		p.linef("  elapsed:  %s", formatSeconds(v.ElapsedSeconds))
	} else {
		p.linef("  duration: %s", formatSeconds(v.DurationSeconds))
	}
	p.linef("  items:    %d", v.ItemsUpdated)
	if v.ErrorMessage != "" {
		p.linef("  error:    %s", v.ErrorMessage)
	}
	if v.Details.Params != nil {
		p.linef("  params:   %s", v.Details.Params)
	}
	if len(v.Details.Metrics) > 0 {
		keys := make([]string, 0, len(v.Details.Metrics))
		for k := range v.Details.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.linef("Metrics:")
		for _, k := range keys {
			p.linef("  %s: %v", k, v.Details.Metrics[k])
		}
	}
	if len(v.Details.Errors) > 0 {
		p.linef("Errors:")
		for _, e := range v.Details.Errors {
			p.linef("  %s", e)
		}
	}
	if len(v.Details.Log) > 0 {
		p.linef("Log:")
		for _, entry := range v.Details.Log {
			p.linef("  %s  %s", entry.At.UTC().Format("15:04:05"), entry.Message)
		}
	}
	return nil
}

func newRunsStopCmd(r *runner) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a running run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				run, err := a.Control.StopRun(ctx, id, reason)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if ok, err := p.object(run); ok {
					return err
				}
				p.linef("Run %d is %s: %s", run.ID, run.Status, run.ErrorMessage)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", model.ReasonStoppedByUser, "Reason recorded on the run")
	return cmd
}

func newRunsDeleteCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a run, stopping it first if it is running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				if err := a.Control.DeleteRun(ctx, id); err != nil {
					return err
				}
				r.printer(cmd).linef("Run %d deleted", id)
				return nil
			})
		},
	}
}

func newRunsCleanupCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Mark runs stuck in running as failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				n, err := a.Control.CleanupStuckRuns(ctx)
				if err != nil {
					return err
				}
				r.printer(cmd).linef("Reclaimed %d stuck run(s)", n)
				return nil
			})
		},
	}
}
