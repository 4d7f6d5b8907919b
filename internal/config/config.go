// Package config loads the reporting pipeline configuration. Values layer
// in order: built-in defaults, the portal credentials file, config.yaml,
// then environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"tamreport/internal/domain"
)

type Environment struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

type Portal struct {
	Environments []Environment `yaml:"environments"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	UseKerberos  bool          `yaml:"use_kerberos"`
	SSOURL       string        `yaml:"sso_url"`
	AuthPath     string        `yaml:"auth_path"`
	GroupsPath   string        `yaml:"groups_path"`
	PostPath     string        `yaml:"post_path"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Schedule struct {
	Name      string `yaml:"name"`
	Cron      string `yaml:"cron"`
	Customer  string `yaml:"customer"`
	Condition string `yaml:"condition"`
	PreCheck  string `yaml:"pre_check"`
	Post      bool   `yaml:"post"`
}

type Config struct {
	RHCasePath       string  `yaml:"rhcase_path"`
	OutputDir        string  `yaml:"output_dir"`
	LogDir           string  `yaml:"log_dir"`
	TemplatePath     string  `yaml:"template_path"`
	ReportKind       string  `yaml:"report_kind"` // "troubleshooting" (default) or "rfebug"
	ContactEmail     string  `yaml:"contact_email"`
	QualityThreshold float64 `yaml:"quality_threshold"`
	Strict           bool    `yaml:"strict"`
	CheckAnomalies   bool    `yaml:"check_anomalies"`
	ClosedWindowDays int     `yaml:"closed_window_days"`
	Months           int     `yaml:"months"`
	WebhookURL       string  `yaml:"webhook_url"`

	Portal    Portal                     `yaml:"portal"`
	Schedules []Schedule                 `yaml:"schedules"`
	Customers map[string]domain.Customer `yaml:"-"`

	Debug bool `yaml:"debug"`
}

// portalConf mirrors the credentials file written by `config --add-token`.
type portalConf struct {
	APIURL      string `json:"api_url"`
	SSOURL      string `json:"sso_url"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseKerberos bool   `json:"use_kerberos"`
}

// ConfigDir returns the directory holding portal.conf and customers.yaml.
func ConfigDir() string {
	if dir := os.Getenv("TAM_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tam-automation")
}

// Load builds the effective configuration. A missing config.yaml is fine;
// a malformed one is not.
func Load() (Config, error) {
	cfg := defaults()

	if err := loadPortalConf(&cfg); err != nil {
		return cfg, err
	}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &domain.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", configPath, err)}
		}
	}

	envOverride(&cfg.RHCasePath, "RHCASE_PATH")
	envOverride(&cfg.OutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.WebhookURL, "WEBHOOK_URL")
	envOverride(&cfg.Portal.SSOURL, "PORTAL_SSO_URL")
	envOverride(&cfg.Portal.Username, "PORTAL_USERNAME")
	envOverride(&cfg.Portal.Password, "PORTAL_PASSWORD")
	envOverrideBool(&cfg.Portal.UseKerberos, "PORTAL_USE_KERBEROS")
	if url := os.Getenv("PORTAL_API_URL"); url != "" {
		cfg.Portal.Environments = []Environment{{Name: "custom", BaseURL: url}}
	}

	if err := loadCustomers(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		RHCasePath:       "rhcase",
		OutputDir:        "./reports",
		LogDir:           "./logs",
		QualityThreshold: 0.95,
		CheckAnomalies:   true,
		ClosedWindowDays: 7,
		Months:           6,
		Portal: Portal{
			AuthPath:   "/api/v1/auth/login",
			GroupsPath: "/customers/%s/groups",
			PostPath:   "/groups/%s/posts",
			Timeout:    30 * time.Second,
		},
	}
}

func loadPortalConf(cfg *Config) error {
	path := filepath.Join(ConfigDir(), "portal.conf")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.ConfigError{Reason: fmt.Sprintf("reading %s: %v", path, err)}
	}
	var pc portalConf
	if err := json.Unmarshal(data, &pc); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	if pc.APIURL != "" {
		cfg.Portal.Environments = []Environment{{Name: "default", BaseURL: pc.APIURL}}
	}
	if pc.SSOURL != "" {
		cfg.Portal.SSOURL = pc.SSOURL
	}
	if pc.Username != "" {
		cfg.Portal.Username = pc.Username
	}
	if pc.Password != "" {
		cfg.Portal.Password = pc.Password
	}
	cfg.Portal.UseKerberos = cfg.Portal.UseKerberos || pc.UseKerberos
	return nil
}

func loadCustomers(cfg *Config) error {
	path := filepath.Join(ConfigDir(), "customers.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Customers = map[string]domain.Customer{}
			return nil
		}
		return &domain.ConfigError{Reason: fmt.Sprintf("reading %s: %v", path, err)}
	}
	var file struct {
		Customers map[string]domain.Customer `yaml:"customers"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	if file.Customers == nil {
		file.Customers = map[string]domain.Customer{}
	}
	for key, c := range file.Customers {
		c.Key = key
		file.Customers[key] = c
	}
	cfg.Customers = file.Customers
	return nil
}

// SaveCustomers rewrites customers.yaml with 0644 permissions.
func SaveCustomers(customers map[string]domain.Customer) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("creating %s: %v", dir, err)}
	}
	out, err := yaml.Marshal(struct {
		Customers map[string]domain.Customer `yaml:"customers"`
	}{customers})
	if err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("encoding customers: %v", err)}
	}
	path := filepath.Join(dir, "customers.yaml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("writing %s: %v", path, err)}
	}
	return nil
}

// SavePortalConf writes the credentials file with owner-only permissions.
func SavePortalConf(apiURL, ssoURL, username, password string, useKerberos bool) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("creating %s: %v", dir, err)}
	}
	out, err := json.MarshalIndent(portalConf{
		APIURL:      apiURL,
		SSOURL:      ssoURL,
		Username:    username,
		Password:    password,
		UseKerberos: useKerberos,
	}, "", "  ")
	if err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("encoding portal.conf: %v", err)}
	}
	path := filepath.Join(dir, "portal.conf")
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("writing %s: %v", path, err)}
	}
	return nil
}

func (c Config) validate() error {
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return &domain.ConfigError{Reason: fmt.Sprintf("quality_threshold %v: must be between 0 and 1", c.QualityThreshold)}
	}
	if c.ClosedWindowDays < 1 {
		return &domain.ConfigError{Reason: fmt.Sprintf("closed_window_days %d: must be >= 1", c.ClosedWindowDays)}
	}
	if c.Months < 1 {
		return &domain.ConfigError{Reason: fmt.Sprintf("months %d: must be >= 1", c.Months)}
	}
	switch c.ReportKind {
	case "", "troubleshooting", "rfebug":
	default:
		return &domain.ConfigError{Reason: fmt.Sprintf("report_kind %q: must be troubleshooting or rfebug", c.ReportKind)}
	}
	for _, s := range c.Schedules {
		if s.Cron == "" {
			return &domain.ConfigError{Reason: fmt.Sprintf("schedule %q has no cron expression", s.Name)}
		}
		if s.Customer == "" {
			return &domain.ConfigError{Reason: fmt.Sprintf("schedule %q has no customer", s.Name)}
		}
	}
	return nil
}

// Customer resolves a customer by key, or synthesizes one so ad hoc
// customers work without onboarding.
func (c Config) Customer(key string) domain.Customer {
	if cust, ok := c.Customers[key]; ok {
		return cust
	}
	return domain.Customer{Key: key}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Printf("invalid %s '%s': %v", envKey, val, err)
			return
		}
		*field = parsed
	}
}
