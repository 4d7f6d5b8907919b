package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TAM_CONFIG_DIR", dir)
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "config.yaml"))
	for _, k := range []string{
		"RHCASE_PATH", "REPORT_OUTPUT_DIR", "WEBHOOK_URL",
		"PORTAL_API_URL", "PORTAL_SSO_URL", "PORTAL_USERNAME",
		"PORTAL_PASSWORD", "PORTAL_USE_KERBEROS",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RHCasePath != "rhcase" {
		t.Fatalf("rhcase path default = %q", cfg.RHCasePath)
	}
	if cfg.QualityThreshold != 0.95 {
		t.Fatalf("threshold default = %v", cfg.QualityThreshold)
	}
	if cfg.ClosedWindowDays != 7 || cfg.Months != 6 {
		t.Fatalf("window defaults = %d/%d", cfg.ClosedWindowDays, cfg.Months)
	}
	if cfg.Portal.GroupsPath != "/customers/%s/groups" || cfg.Portal.PostPath != "/groups/%s/posts" {
		t.Fatalf("portal path defaults = %+v", cfg.Portal)
	}
	if cfg.Portal.Timeout != 30*time.Second {
		t.Fatalf("portal timeout = %v", cfg.Portal.Timeout)
	}
	if !cfg.CheckAnomalies {
		t.Fatal("anomaly checks should default on")
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
rhcase_path: /opt/bin/rhcase
quality_threshold: 0.8
closed_window_days: 14
strict: true
`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RHCasePath != "/opt/bin/rhcase" || cfg.QualityThreshold != 0.8 || cfg.ClosedWindowDays != 14 {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if !cfg.Strict {
		t.Fatal("strict not applied")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "rhcase_path: /from/yaml\n")
	t.Setenv("RHCASE_PATH", "/from/env")
	t.Setenv("PORTAL_API_URL", "https://portal.example.com/api")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RHCasePath != "/from/env" {
		t.Fatalf("env override lost: %q", cfg.RHCasePath)
	}
	if len(cfg.Portal.Environments) != 1 || cfg.Portal.Environments[0].BaseURL != "https://portal.example.com/api" {
		t.Fatalf("environments = %+v", cfg.Portal.Environments)
	}
}

func TestPortalConfLayering(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "portal.conf"), `{
  "api_url": "https://portal.example.com",
  "username": "svc-tam",
  "password": "hunter2",
  "use_kerberos": false
}`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Portal.Username != "svc-tam" || cfg.Portal.Password != "hunter2" {
		t.Fatalf("portal.conf not applied: %+v", cfg.Portal)
	}
	if len(cfg.Portal.Environments) != 1 || cfg.Portal.Environments[0].BaseURL != "https://portal.example.com" {
		t.Fatalf("environments = %+v", cfg.Portal.Environments)
	}
}

func TestMalformedPortalConf(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "portal.conf"), "{not json")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed portal.conf")
	}
}

func TestCustomersLoadedWithKeys(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "customers.yaml"), `
customers:
  acme:
    display_name: ACME Corp
    account_number: "123456"
    portal_group_id: "42"
    group_id_confidence: confirmed
`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, ok := cfg.Customers["acme"]
	if !ok {
		t.Fatalf("customers = %+v", cfg.Customers)
	}
	if c.Key != "acme" || c.DisplayName != "ACME Corp" || c.AccountNumber != "123456" {
		t.Fatalf("customer = %+v", c)
	}
	if c.CaseFilter() != "123456" {
		t.Fatalf("case filter = %q", c.CaseFilter())
	}
}

func TestUnknownCustomerSynthesized(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := cfg.Customer("globex")
	if c.Key != "globex" || c.CaseFilter() != "globex" {
		t.Fatalf("synthesized customer = %+v", c)
	}
}

func TestValidationRejectsBadThreshold(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "quality_threshold: 1.5\n")
	if _, err := Load(); err == nil {
		t.Fatal("expected threshold validation error")
	}
}

func TestValidationRejectsScheduleWithoutCron(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
schedules:
  - name: weekly
    customer: acme
`)
	if _, err := Load(); err == nil {
		t.Fatal("expected schedule validation error")
	}
}

func TestSavePortalConfPermissions(t *testing.T) {
	isolate(t)
	if err := SavePortalConf("https://p.example.com", "", "svc", "secret", false); err != nil {
		t.Fatalf("SavePortalConf: %v", err)
	}
	path := filepath.Join(ConfigDir(), "portal.conf")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("portal.conf mode = %v, want 0600", info.Mode().Perm())
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if cfg.Portal.Username != "svc" {
		t.Fatalf("roundtrip lost username: %+v", cfg.Portal)
	}
}
