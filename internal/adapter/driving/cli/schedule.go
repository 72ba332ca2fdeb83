package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// defaultSchedule runs on the 6th of each month at 08:00, once the previous
// month has closed on the dashboard.
const defaultSchedule = "0 8 6 * *"

func (app *CLIApp) newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the monthly report on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE:  app.runSchedule,
	}
	cmd.Flags().String("cron", defaultSchedule, "Five-field cron expression (minute hour day-of-month month day-of-week)")
	return cmd
}

func (app *CLIApp) runSchedule(cmd *cobra.Command, args []string) error {
	expr, _ := cmd.Flags().GetString("cron")

	cliArgs, err := app.parseArgs(cmd)
	if err != nil {
		return err
	}
	// Fail fast on a broken config; each run reloads it.
	if _, err := app.loadConfig(cliArgs); err != nil {
		return err
	}

	ctx := cmd.Context()
	c, id, err := newScheduler(ctx, expr, cronLogger{console: app.console}, func(ctx context.Context) {
		app.scheduledRun(ctx, cliArgs)
	})
	if err != nil {
		return err
	}

	c.Start()
	app.console.LogInfo("Scheduler started (%s). Next report run: %s",
		expr, c.Entry(id).Schedule.Next(time.Now()).Format(time.RFC1123))

	<-ctx.Done()
	app.console.LogInfo("Stopping scheduler")
	<-c.Stop().Done()
	return nil
}

// scheduledRun executes one report. Errors are logged so the scheduler keeps going.
func (app *CLIApp) scheduledRun(ctx context.Context, cliArgs *types.CLIArgs) {
	cfg, err := app.loadConfig(cliArgs)
	if err != nil {
		app.console.LogError("Scheduled run skipped: %s", err)
		return
	}

	err = app.runReport(ctx, cfg)
	switch {
	case err == nil:
	case errors.Is(err, types.ErrFleetFailures):
		app.console.LogWarning("Scheduled run finished with failures: %s", err)
	default:
		app.console.LogError("Scheduled run failed: %s", err)
	}
}

// newScheduler registers job under the cron expression expr. A trigger that
// fires while the previous run is still going is skipped.
func newScheduler(ctx context.Context, expr string, logger cron.Logger, job func(context.Context)) (*cron.Cron, cron.EntryID, error) {
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		cron.WithLogger(logger),
	)
	id, err := c.AddFunc(expr, func() { job(ctx) })
	if err != nil {
		return nil, 0, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return c, id, nil
}

// cronLogger routes the scheduler's own messages to the console. Only skips
// and errors are shown; the per-tick chatter is dropped.
type cronLogger struct {
	console types.ConsoleInterface
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.console.LogWarning("Previous report is still running; skipping this trigger")
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.console.LogError("Scheduler %s: %s%s", msg, err, formatKeysAndValues(keysAndValues))
}

func formatKeysAndValues(keysAndValues []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return b.String()
}
