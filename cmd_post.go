package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"tamreport/internal/portal"
)

var postFlags struct {
	dryRun bool
}

var postCmd = &cobra.Command{
	Use:   "post <customer>",
	Short: "Generate the weekly report and post it to the customer's portal group",
	Args:  cobra.ExactArgs(1),
	RunE:  runPost,
}

func init() {
	postCmd.Flags().BoolVar(&postFlags.dryRun, "dry-run", false, "Render and show the post target without posting")
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	customer := cfg.Customer(args[0])

	res, err := runPipeline(ctx, cfg, args[0], true)
	if err != nil {
		return err
	}
	r := res.Report

	if postFlags.dryRun {
		fmt.Fprintf(out, "Would post %q\n", r.Title)
		fmt.Fprintf(out, "  group: %s (%s)\n", customer.PortalGroupID, customer.GroupIDConfidence)
		fmt.Fprintf(out, "  body: %d bytes\n", len(r.MarkdownBody))
		return nil
	}

	client := portal.NewClient(cfg.Portal, log.Default())
	if err := client.Connect(ctx); err != nil {
		return err
	}
	result, err := client.Post(ctx, customer, r)
	if err != nil {
		return err
	}
	r.APIEnvironment = result.Environment
	fmt.Fprintf(out, "Posted %q\n", result.Title)
	fmt.Fprintf(out, "  discussion: %s\n", result.DiscussionID)
	fmt.Fprintf(out, "  group: %s\n", result.GroupID)
	fmt.Fprintf(out, "  environment: %s\n", result.Environment)
	return nil
}
