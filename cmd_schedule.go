package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"

	"tamreport/internal/config"
	"tamreport/internal/notify"
	"tamreport/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the report scheduler daemon",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Schedules) == 0 {
		return errors.New("no schedules configured; add a schedules block to config.yaml")
	}
	notifier := notify.New(cfg.WebhookURL, log.Default())
	runner := &schedule.Runner{
		Jobs: cfg.Schedules,
		Run: func(ctx context.Context, job config.Schedule) error {
			return executeJob(ctx, cfg, job)
		},
		Notify: func(job config.Schedule, output string, err error, elapsed time.Duration) {
			notifier.PostSummary(job.Name, output, err, elapsed)
		},
		Logger: log.Default(),
	}
	err = runner.Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		log.Printf("scheduler stopped")
		return err
	}
	return err
}
