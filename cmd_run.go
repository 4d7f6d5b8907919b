package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"tamreport/internal/config"
	"tamreport/internal/notify"
	"tamreport/internal/portal"
	"tamreport/internal/schedule"
)

var runFlags struct {
	condition string
	preCheck  string
	post      bool
}

var runCmd = &cobra.Command{
	Use:   "run <customer>",
	Short: "Run one report job with scheduler gating applied",
	Long: "run executes a single report job the way the schedule daemon would:\n" +
		"the pre-check command runs first, its output feeds the condition, and\n" +
		"the job outcome is posted to the chat webhook if one is configured.",
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.condition, "condition", "", "Gate expression, e.g. 'sev1_count > 0' or 'weekday'")
	f.StringVar(&runFlags.preCheck, "pre-check", "", "Shell command whose output feeds the condition")
	f.BoolVar(&runFlags.post, "post", false, "Post the report to the portal after writing it")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	job := config.Schedule{
		Name:      "run " + args[0],
		Customer:  args[0],
		Condition: runFlags.condition,
		PreCheck:  runFlags.preCheck,
		Post:      runFlags.post,
	}
	notifier := notify.New(cfg.WebhookURL, log.Default())
	runner := &schedule.Runner{
		Run: func(ctx context.Context, job config.Schedule) error {
			return executeJob(ctx, cfg, job)
		},
		Notify: func(job config.Schedule, output string, err error, elapsed time.Duration) {
			notifier.PostSummary(job.Name, output, err, elapsed)
		},
		Logger: log.Default(),
	}
	ran, err := runner.RunOnce(cmd.Context(), job)
	if !ran && err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Skipped: condition not met.")
	}
	return err
}

// executeJob is the shared body for one-shot runs and the daemon: generate
// the report file and optionally post it.
func executeJob(ctx context.Context, cfg config.Config, job config.Schedule) error {
	res, err := runPipeline(ctx, cfg, job.Customer, true)
	if err != nil {
		return err
	}
	if !job.Post {
		return nil
	}
	client := portal.NewClient(cfg.Portal, log.Default())
	if err := client.Connect(ctx); err != nil {
		return err
	}
	result, err := client.Post(ctx, cfg.Customer(job.Customer), res.Report)
	if err != nil {
		return err
	}
	res.Report.APIEnvironment = result.Environment
	log.Printf("posted discussion %s for %s via %s", result.DiscussionID, job.Customer, result.Environment)
	return nil
}
