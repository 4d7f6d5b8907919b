package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var updateFlags struct {
	autoConfirm bool
}

var updateCmd = &cobra.Command{
	Use:   "update <customer>",
	Short: "Generate the weekly report and write it to the output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateFlags.autoConfirm, "auto-confirm", false, "Write without prompting")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !updateFlags.autoConfirm {
		fmt.Fprintf(out, "Generate report for %s into %s? [y/N] ", args[0], cfg.OutputDir)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	res, err := runPipeline(cmd.Context(), cfg, args[0], true)
	if res != nil && res.Report != nil {
		fmt.Fprintf(out, "%s\n", res.Report.Title)
		if res.Path != "" {
			fmt.Fprintf(out, "Report written: %s\n", res.Path)
		}
		fmt.Fprintf(out, "Quality score: %.1f%%\n", res.Validation.Score*100)
	}
	return err
}
