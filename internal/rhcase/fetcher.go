// Package rhcase wraps the rhcase command line tool as a case data source.
// All calls shell out with --format json and tolerate the handful of
// response shapes the tool has produced across versions.
package rhcase

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"tamreport/internal/domain"
)

const (
	listTimeout    = 30 * time.Second
	getTimeout     = 60 * time.Second
	versionTimeout = 5 * time.Second
)

// ListOptions narrows a case listing.
type ListOptions struct {
	Customer string
	Status   string
	Severity string
	Months   int
}

// Account is a customer account aggregated from case listings.
type Account struct {
	Number    string
	Name      string
	CaseCount int
}

// CaseSource abstracts the rhcase tool so the pipeline can be fed from a
// fixture in tests.
type CaseSource interface {
	List(ctx context.Context, opts ListOptions) ([]domain.Case, error)
	Get(ctx context.Context, caseNumber string) (*domain.Case, error)
	Search(ctx context.Context, query string, opts ListOptions) ([]domain.Case, error)
	Open(ctx context.Context, customer string) ([]domain.Case, error)
	Closed(ctx context.Context, customer string, days int) ([]domain.Case, error)
	Accounts(ctx context.Context) ([]Account, error)
}

// CLISource runs the rhcase binary.
type CLISource struct {
	Path   string
	Months int // listing window for open and accounts queries
	Logger *log.Logger
}

func NewCLISource(path string, logger *log.Logger) *CLISource {
	if logger == nil {
		logger = log.Default()
	}
	return &CLISource{Path: path, Months: 6, Logger: logger}
}

// runCommand executes a subprocess and returns its combined stdout. Swapped
// out in tests.
var runCommand = func(ctx context.Context, path string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.Output()
	return string(out), err
}

// Available checks that the rhcase binary exists and responds. A bare
// command name is resolved through PATH first so the error names the real
// problem.
func (s *CLISource) Available(ctx context.Context) error {
	if s.Path == "" {
		return &domain.FetchError{Op: "version", Reason: "rhcase path not configured"}
	}
	if _, err := exec.LookPath(s.Path); err != nil {
		return &domain.FetchError{Op: "version", Reason: "rhcase not found", Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	if _, err := runCommand(ctx, s.Path, "--version"); err != nil {
		return &domain.FetchError{Op: "version", Reason: "rhcase tool not available", Err: err}
	}
	return nil
}

// CaseCount counts cases matching a status over the listing window.
func (s *CLISource) CaseCount(ctx context.Context, customer, status string) (int, error) {
	cases, err := s.List(ctx, ListOptions{Customer: customer, Status: status, Months: s.Months})
	if err != nil {
		return 0, err
	}
	return len(cases), nil
}

// run invokes rhcase and parses the JSON case payload. Subprocess failures
// are logged and return an empty list so a flaky fetch degrades the report
// instead of killing the run.
func (s *CLISource) run(ctx context.Context, timeout time.Duration, args ...string) ([]domain.Case, error) {
	if s.Path == "" {
		return nil, &domain.FetchError{Op: args[0], Reason: "rhcase path not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := runCommand(ctx, s.Path, args...)
	if err != nil {
		s.Logger.Printf("rhcase %s failed: %v", strings.Join(args, " "), err)
		return nil, nil
	}
	return parseCases(out, s.Logger), nil
}

func (s *CLISource) List(ctx context.Context, opts ListOptions) ([]domain.Case, error) {
	args := []string{"list", "--format", "json"}
	if opts.Customer != "" {
		args = append(args, "--customer", opts.Customer)
	} else {
		args = append(args, "--all")
	}
	if opts.Status != "" {
		args = append(args, "--status", opts.Status)
	}
	if opts.Severity != "" {
		args = append(args, "--severity", opts.Severity)
	}
	if opts.Months > 0 {
		args = append(args, "--months", fmt.Sprintf("%d", opts.Months))
	}
	return s.run(ctx, listTimeout, args...)
}

func (s *CLISource) Get(ctx context.Context, caseNumber string) (*domain.Case, error) {
	cases, err := s.run(ctx, getTimeout, "get", caseNumber, "--format", "json")
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, &domain.FetchError{Op: "get", Reason: "case not found: " + caseNumber}
	}
	return &cases[0], nil
}

func (s *CLISource) Search(ctx context.Context, query string, opts ListOptions) ([]domain.Case, error) {
	args := []string{"search", query, "--format", "json"}
	if opts.Customer != "" {
		args = append(args, "--customer", opts.Customer)
	}
	return s.run(ctx, listTimeout, args...)
}

// Open lists the customer's currently open cases over the listing window.
func (s *CLISource) Open(ctx context.Context, customer string) ([]domain.Case, error) {
	cases, err := s.List(ctx, ListOptions{Customer: customer, Status: "open", Months: s.Months})
	if err != nil {
		return nil, err
	}
	out := cases[:0]
	for _, c := range cases {
		if !isClosedStatus(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

var closedStatuses = map[string]bool{
	"closed":   true,
	"resolved": true,
	"archived": true,
}

func isClosedStatus(c domain.Case) bool {
	return c.IsClosed || closedStatuses[strings.ToLower(c.Status)]
}

// Closed lists cases closed within the last N days. The listing itself is
// month-granular so the date cut happens client side; cases whose close
// date is missing or unparseable are kept rather than silently dropped.
func (s *CLISource) Closed(ctx context.Context, customer string, days int) ([]domain.Case, error) {
	months := days / 30
	if months < 1 {
		months = 1
	}
	cases, err := s.List(ctx, ListOptions{Customer: customer, Status: "closed", Months: months})
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	out := cases[:0]
	for _, c := range cases {
		if !isClosedStatus(c) {
			continue
		}
		c.IsClosed = true
		if c.CloseDate == "" {
			out = append(out, c)
			continue
		}
		closedAt, perr := parseCloseDate(c.CloseDate)
		if perr != nil {
			s.Logger.Printf("rhcase: unparseable close date %q on case %s", c.CloseDate, c.CaseNumber)
			out = append(out, c)
			continue
		}
		if !closedAt.Before(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

var closeDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseCloseDate(s string) (time.Time, error) {
	for _, f := range closeDateFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Accounts aggregates account numbers and names from a full listing over
// the window, preserving first-seen order.
func (s *CLISource) Accounts(ctx context.Context) ([]Account, error) {
	cases, err := s.List(ctx, ListOptions{Months: s.Months})
	if err != nil {
		return nil, err
	}
	var order []string
	byNumber := make(map[string]*Account)
	for _, c := range cases {
		key := c.AccountNumber
		if key == "" {
			key = c.AccountName
		}
		if key == "" {
			continue
		}
		a, ok := byNumber[key]
		if !ok {
			a = &Account{Number: c.AccountNumber, Name: c.AccountName}
			byNumber[key] = a
			order = append(order, key)
		}
		if a.Name == "" {
			a.Name = c.AccountName
		}
		a.CaseCount++
	}
	out := make([]Account, 0, len(order))
	for _, key := range order {
		out = append(out, *byNumber[key])
	}
	return out, nil
}
