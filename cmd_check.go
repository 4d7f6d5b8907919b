package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"tamreport/internal/classify"
	"tamreport/internal/rhcase"
	"tamreport/internal/validate"
)

var checkCmd = &cobra.Command{
	Use:   "check <customer>",
	Short: "Fetch and summarize a customer's cases without writing a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

// runCheck prints the summary the scheduler's pre-check scrapes: the
// "Sev 1:" and "Total:" lines feed condition variables.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	customer := cfg.Customer(args[0])
	src := rhcase.NewCLISource(cfg.RHCasePath, log.Default())
	src.Months = cfg.Months
	if err := src.Available(ctx); err != nil {
		return err
	}
	open, err := src.Open(ctx, customer.CaseFilter())
	if err != nil {
		return err
	}
	closed, err := src.Closed(ctx, customer.CaseFilter(), cfg.ClosedWindowDays)
	if err != nil {
		return err
	}
	cases := append(open, closed...)
	vr, _ := validate.Run(cases, validate.Options{
		Threshold:      cfg.QualityThreshold,
		CheckAnomalies: cfg.CheckAnomalies,
	})
	enriched := classify.Enrich(cases)

	var sev1, rfes, bugs, escalated int
	for _, c := range enriched {
		if c.SeverityLevel == 1 && !c.IsClosed {
			sev1++
		}
		switch c.CaseType {
		case "RFE":
			rfes++
		case "Bug":
			bugs++
		}
		if c.Escalated {
			escalated++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Case summary for %s\n\n", customer.Name())
	fmt.Fprintf(out, "Sev 1: %d cases\n", sev1)
	fmt.Fprintf(out, "RFEs: %d cases\n", rfes)
	fmt.Fprintf(out, "Bugs: %d cases\n", bugs)
	fmt.Fprintf(out, "Escalated: %d cases\n", escalated)
	fmt.Fprintf(out, "Open: %d cases\n", len(open))
	fmt.Fprintf(out, "Closed (last %d days): %d cases\n", cfg.ClosedWindowDays, len(closed))
	fmt.Fprintf(out, "Total: %d cases\n", len(cases))
	fmt.Fprintf(out, "\nData quality: %.1f%% (threshold %.0f%%)\n", vr.Score*100, cfg.QualityThreshold*100)
	for _, a := range vr.Anomalies {
		fmt.Fprintf(out, "  anomaly: %s\n", a)
	}
	for _, r := range vr.Recommendations {
		fmt.Fprintf(out, "  %s\n", r)
	}
	return nil
}
