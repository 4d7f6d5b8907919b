package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"tamreport/internal/config"
	"tamreport/internal/domain"
	"tamreport/internal/portal"
	"tamreport/internal/rhcase"
)

var onboardFlags struct {
	account   string
	name      string
	groupID   string
	confirmed bool
	lookup    bool
}

var onboardCmd = &cobra.Command{
	Use:   "onboard <customer>",
	Short: "Register a customer in customers.yaml",
	Args:  cobra.ExactArgs(1),
	RunE:  runOnboard,
}

func init() {
	f := onboardCmd.Flags()
	f.StringVar(&onboardFlags.account, "account", "", "Account number")
	f.StringVar(&onboardFlags.name, "name", "", "Display name")
	f.StringVar(&onboardFlags.groupID, "group-id", "", "Portal group id for weekly posts")
	f.BoolVar(&onboardFlags.confirmed, "confirmed", false, "Mark the group id as operator-verified")
	f.BoolVar(&onboardFlags.lookup, "lookup", false, "Resolve account and group from rhcase and the portal")
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	key := args[0]
	out := cmd.OutOrStdout()

	cust := cfg.Customer(key)
	if onboardFlags.account != "" {
		cust.AccountNumber = onboardFlags.account
	}
	if onboardFlags.name != "" {
		cust.DisplayName = onboardFlags.name
	}
	if onboardFlags.groupID != "" {
		cust.PortalGroupID = onboardFlags.groupID
		cust.GroupIDConfidence = domain.ConfidenceUnverified
		if onboardFlags.confirmed {
			cust.GroupIDConfidence = domain.ConfidenceConfirmed
		}
	}

	if onboardFlags.lookup {
		if err := lookupCustomer(cmd, cfg, &cust); err != nil {
			log.Printf("onboard lookup incomplete: %v", err)
		}
	}

	cfg.Customers[key] = cust
	if err := config.SaveCustomers(cfg.Customers); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved customer %q\n", key)
	fmt.Fprintf(out, "  name: %s\n", cust.Name())
	fmt.Fprintf(out, "  account: %s\n", cust.AccountNumber)
	if cust.PortalGroupID != "" {
		fmt.Fprintf(out, "  group: %s (%s)\n", cust.PortalGroupID, cust.GroupIDConfidence)
	} else {
		fmt.Fprintln(out, "  group: none; posting disabled until one is set")
	}
	return nil
}

// lookupCustomer fills the account number from rhcase account listings and
// the portal group id from the portal's group listing. Anything found
// automatically is tagged extracted, never confirmed.
func lookupCustomer(cmd *cobra.Command, cfg config.Config, cust *domain.Customer) error {
	ctx := cmd.Context()
	if cust.AccountNumber == "" {
		src := rhcase.NewCLISource(cfg.RHCasePath, log.Default())
		accounts, err := src.Accounts(ctx)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if strings.EqualFold(a.Name, cust.Key) || strings.EqualFold(a.Name, cust.DisplayName) {
				cust.AccountNumber = a.Number
				if cust.DisplayName == "" {
					cust.DisplayName = a.Name
				}
				break
			}
		}
	}
	if cust.PortalGroupID == "" {
		client := portal.NewClient(cfg.Portal, log.Default())
		if err := client.Connect(ctx); err != nil {
			return err
		}
		groups, err := client.Groups(ctx, *cust)
		if err != nil {
			return err
		}
		if len(groups) == 1 {
			cust.PortalGroupID = groups[0].ID
			cust.GroupIDConfidence = domain.ConfidenceExtracted
		} else if len(groups) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "Multiple portal groups found, pass --group-id:\n")
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", g.ID, g.Name)
			}
		}
	}
	return nil
}
