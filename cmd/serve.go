package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/handlers"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled notifications until interrupted",
	Long: `Post the daily paper update every day at notification.time and, when
digest.enabled is set, a digest per topic every digest.day_of_week at
digest.time. Times are local. Stop with Ctrl+C or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := buildScheduler(cc)
	if err != nil {
		return HandleCommandError(err, cc.Logger)
	}

	if at, names, ok := sched.NextRun(sched.Now()); ok {
		cc.Logger.Info("Next scheduled run",
			logging.String("at", at.Format("2006-01-02 15:04")),
			logging.Strings("jobs", names))
	}

	if err := sched.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return HandleCommandError(err, cc.Logger)
	}
	return nil
}

// buildScheduler registers the daily notification and, if enabled, the
// weekly digest
func buildScheduler(cc *CommandContext) (*scheduler.Scheduler, error) {
	sched := scheduler.New(cc.Logger)
	source := cc.paperClient()
	base := cc.baseHandler()

	notify := handlers.NewNotifyHandler(base, source)
	if err := sched.Daily("daily-papers", cc.Config.Notification.Time, func(ctx context.Context) error {
		_, err := notify.Handle(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	if !cc.Config.Digest.Enabled {
		return sched, nil
	}
	day, err := cc.Config.Digest.Weekday()
	if err != nil {
		return nil, err
	}
	digest := handlers.NewDigestHandler(base, source, cc.optionalLLM(), cc.Prompts)
	if err := sched.Weekly("weekly-digest", day, cc.Config.Digest.Time, digest.HandleAll); err != nil {
		return nil, err
	}
	return sched, nil
}
