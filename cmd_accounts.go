package main

import (
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tamreport/internal/rhcase"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the customer accounts visible to rhcase",
	Args:  cobra.NoArgs,
	RunE:  runAccounts,
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src := rhcase.NewCLISource(cfg.RHCasePath, log.Default())
	if err := src.Available(cmd.Context()); err != nil {
		return err
	}
	accounts, err := src.Accounts(cmd.Context())
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No accounts visible.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tNAME\tCASES")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%d\n", a.Number, a.Name, a.CaseCount)
	}
	return w.Flush()
}
