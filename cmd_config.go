package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"tamreport/internal/config"
	"tamreport/internal/portal"
)

var configFlags struct {
	addToken   bool
	testTokens bool
	showTokens bool

	apiURL      string
	ssoURL      string
	username    string
	password    string
	useKerberos bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage portal credentials",
	RunE:  runConfig,
}

func init() {
	f := configCmd.Flags()
	f.BoolVar(&configFlags.addToken, "add-token", false, "Write portal credentials to portal.conf")
	f.BoolVar(&configFlags.testTokens, "test-tokens", false, "Authenticate against the configured environments")
	f.BoolVar(&configFlags.showTokens, "show-tokens", false, "Show the stored credentials, masked")
	f.StringVar(&configFlags.apiURL, "api-url", "", "Portal API base URL (with --add-token)")
	f.StringVar(&configFlags.ssoURL, "sso-url", "", "SSO base URL (with --add-token)")
	f.StringVar(&configFlags.username, "username", "", "Portal username (with --add-token)")
	f.StringVar(&configFlags.password, "password", "", "Portal password (with --add-token)")
	f.BoolVar(&configFlags.useKerberos, "kerberos", false, "Authenticate with the local Kerberos ticket cache")
}

func runConfig(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	switch {
	case configFlags.addToken:
		if configFlags.apiURL == "" {
			return errors.New("--add-token requires --api-url")
		}
		if !configFlags.useKerberos && (configFlags.username == "" || configFlags.password == "") {
			return errors.New("--add-token requires --username and --password, or --kerberos")
		}
		if err := config.SavePortalConf(
			configFlags.apiURL, configFlags.ssoURL,
			configFlags.username, configFlags.password,
			configFlags.useKerberos,
		); err != nil {
			return err
		}
		fmt.Fprintln(out, "Credentials saved.")
		return nil

	case configFlags.testTokens:
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := portal.NewClient(cfg.Portal, log.Default())
		if err := client.Connect(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Authenticated against %s\n", client.Environment())
		return nil

	case configFlags.showTokens:
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, env := range cfg.Portal.Environments {
			fmt.Fprintf(out, "environment %s: %s\n", env.Name, env.BaseURL)
		}
		fmt.Fprintf(out, "username: %s\n", cfg.Portal.Username)
		fmt.Fprintf(out, "password: %s\n", mask(cfg.Portal.Password))
		fmt.Fprintf(out, "kerberos: %v\n", cfg.Portal.UseKerberos)
		return nil
	}
	return cmd.Help()
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
