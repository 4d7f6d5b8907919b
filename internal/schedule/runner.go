package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"tamreport/internal/config"
)

// JobFunc runs one scheduled report job.
type JobFunc func(ctx context.Context, job config.Schedule) error

// NotifyFunc reports a job outcome to the chat webhook.
type NotifyFunc func(job config.Schedule, output string, err error, elapsed time.Duration)

type Runner struct {
	Jobs   []config.Schedule
	Run    JobFunc
	Notify NotifyFunc
	Logger *log.Logger
}

// Start blocks, waking for each job's next cron firing until the context is
// cancelled. Cron expressions are standard 5-field.
func (r *Runner) Start(ctx context.Context) error {
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	type entry struct {
		job   config.Schedule
		sched cron.Schedule
	}
	entries := make([]entry, 0, len(r.Jobs))
	for _, job := range r.Jobs {
		sched, err := parser.Parse(job.Cron)
		if err != nil {
			return fmt.Errorf("schedule %q: invalid cron %q: %w", job.Name, job.Cron, err)
		}
		entries = append(entries, entry{job: job, sched: sched})
		r.Logger.Printf("scheduled %q (cron: %s, customer: %s)", job.Name, job.Cron, job.Customer)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no schedules configured")
	}

	for {
		now := time.Now()
		nextIdx := 0
		next := entries[0].sched.Next(now)
		for i := 1; i < len(entries); i++ {
			if n := entries[i].sched.Next(now); n.Before(next) {
				next = n
				nextIdx = i
			}
		}
		r.Logger.Printf("next job %q at %s (in %s)",
			entries[nextIdx].job.Name, next.Format("Mon Jan 2 15:04"), time.Until(next).Round(time.Minute))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}
		r.fire(ctx, entries[nextIdx].job)
	}
}

// fire gates the job on its pre-check and condition, then runs it. Job
// failures are logged and notified, never fatal to the scheduler.
func (r *Runner) fire(ctx context.Context, job config.Schedule) {
	condCtx, output := RunPreCheck(ctx, job.PreCheck)
	if !EvaluateCondition(job.Condition, condCtx, time.Now()) {
		r.Logger.Printf("job %q skipped: condition %q not met", job.Name, job.Condition)
		return
	}
	start := time.Now()
	err := r.Run(ctx, job)
	elapsed := time.Since(start)
	if err != nil {
		r.Logger.Printf("job %q failed after %s: %v", job.Name, elapsed.Round(time.Second), err)
	} else {
		r.Logger.Printf("job %q completed in %s", job.Name, elapsed.Round(time.Second))
	}
	if r.Notify != nil {
		r.Notify(job, output, err, elapsed)
	}
}

// RunOnce applies a job's gating and runs it a single time. The boolean
// reports whether the condition allowed the run.
func (r *Runner) RunOnce(ctx context.Context, job config.Schedule) (bool, error) {
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	condCtx, output := RunPreCheck(ctx, job.PreCheck)
	if !EvaluateCondition(job.Condition, condCtx, time.Now()) {
		r.Logger.Printf("job %q skipped: condition %q not met", job.Name, job.Condition)
		return false, nil
	}
	start := time.Now()
	err := r.Run(ctx, job)
	if r.Notify != nil {
		r.Notify(job, output, err, time.Since(start))
	}
	return true, err
}
