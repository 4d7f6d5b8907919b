// tamreport is the customer case reporting pipeline CLI.
//
// Usage:
//
//	tamreport check <customer>
//	tamreport update <customer> [--auto-confirm]
//	tamreport post <customer> [--dry-run]
//	tamreport run <customer> [--condition=...] [--pre-check=...] [--post]
//	tamreport schedule
//	tamreport accounts
//	tamreport onboard <customer> [--account=...] [--group-id=...]
//	tamreport config [--add-token|--test-tokens|--show-tokens]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
