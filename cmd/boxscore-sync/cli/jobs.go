package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/app"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/usecase"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// ReasonInterrupted is recorded when the operator interrupts a triggered run.
const ReasonInterrupted = "Interrupted from the command line"

func newJobsCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List, trigger and toggle jobs",
	}
	cmd.AddCommand(newJobsListCmd(r), newJobsTriggerCmd(r), newJobsToggleCmd(r))
	return cmd
}

func newJobsListCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every job with its counters and next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				jobs, err := a.Control.ListJobs(ctx)
				if err != nil {
					return err
				}
				return printJobs(r.printer(cmd), jobs)
			})
		},
	}
}

func printJobs(p *printer, jobs []*usecase.JobView) error {
	if ok, err := p.object(jobs); ok {
		return err
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(j.ID), 10),
			j.Name,
			j.Schedule,
			strconv.FormatBool(j.IsActive),
			strconv.FormatInt(j.TotalRuns, 10),
			fmt.Sprintf("%.1f%%", j.SuccessRate),
			formatTime(j.LastRunAt),
			formatTime(j.NextRun),
			j.SchedulerStatus,
		})
	}
	return p.table([]string{"ID", "NAME", "SCHEDULE", "ACTIVE", "RUNS", "SUCCESS", "LAST RUN", "NEXT RUN", "SCHEDULER"}, rows)
}

func newJobsTriggerCmd(r *runner) *cobra.Command {
	var (
		params model.TriggerParams
		wait   bool
	)
	cmd := &cobra.Command{
		Use:   "trigger <name>",
		Short: "Run a job now",
		Long: `Run a job now in this process. The command returns once the run is finalized;
with --wait it also prints the run's log, metrics and errors. Interrupting the
command stops the run cooperatively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				run, err := a.Control.TriggerJob(ctx, args[0], params)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if !p.json() {
					p.linef("Triggered %s (run %d)", run.JobName, run.ID)
				}
				waitForRun(ctx, a, run.ID)

				view, err := a.Control.GetRunDetail(ctx, run.ID)
				if err != nil {
					return err
				}
				if wait {
					if err := printRun(p, view); err != nil {
						return err
					}
				} else if ok, err := p.object(view); ok {
					if err != nil {
						return err
					}
				} else {
					p.linef("Run %d %s: %d items updated in %s", view.ID, view.Status, view.ItemsUpdated, formatSeconds(view.DurationSeconds))
				}
				if view.Status == model.RunStatusFailed {
					return fmt.Errorf("run %d failed: %s", view.ID, view.ErrorMessage)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&params.HoursBack, "hours-back", 0, "Look-back window in hours (update_finished_games, default 7)")
	f.Int64Var(&params.TeamID, "team-id", 0, "Restrict to one team by upstream id")
	f.IntVar(&params.Limit, "limit", 0, "Maximum records per team, or runs to archive")
	f.BoolVar(&params.Force, "force", false, "Ignore freshness windows")
	f.IntVar(&params.BatchSize, "batch-size", 0, "Players per batch (update_player_season_averages, default 50)")
	f.BoolVar(&wait, "wait", false, "Print the finished run in full")
	return cmd
}

// waitForRun blocks until the scheduler's manual runs are done. An interrupt stops
// runID first so it is finalized instead of left running.
func waitForRun(ctx context.Context, a *app.Application, runID uint) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		a.Scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-sigCtx.Done():
		if _, err := a.Control.StopRun(context.WithoutCancel(ctx), runID, ReasonInterrupted); err != nil {
			fmt.Fprintf(os.Stderr, "failed to stop run %d: %v\n", runID, err)
		}
		<-done
	}
}

func newJobsToggleCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				view, err := a.Control.ToggleJob(ctx, id)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if ok, err := p.object(view); ok {
					return err
				}
				state := "deactivated"
				if view.IsActive {
					state = "activated"
				}
				p.linef("Job %s %s", view.Name, state)
				return nil
			})
		},
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", usecase.ErrInvalidArgument, s)
	}
	return uint(id), nil
}
