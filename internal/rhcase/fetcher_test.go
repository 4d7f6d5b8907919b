package rhcase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"tamreport/internal/domain"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

// stubCommand swaps the subprocess runner for the test's lifetime.
func stubCommand(t *testing.T, fn func(ctx context.Context, path string, args ...string) (string, error)) {
	t.Helper()
	orig := runCommand
	runCommand = fn
	t.Cleanup(func() { runCommand = orig })
}

func TestListParsesBareArray(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return `[{"caseNumber":"<b>01234567</b>","caseType":"Bug","sbrGroup":"Shift","isClosed":false}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, err := s.List(context.Background(), ListOptions{Customer: "acme"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("got %d cases", len(cases))
	}
	c := cases[0]
	if c.CaseNumber != "01234567" {
		t.Fatalf("case number %q not normalized", c.CaseNumber)
	}
	if !c.HasClosedFlag || c.IsClosed {
		t.Fatalf("closed flag handling wrong: %+v", c)
	}
}

func TestListParsesWrappedShapes(t *testing.T) {
	for _, wrap := range []string{"cases", "data", "results"} {
		stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
			return fmt.Sprintf(`{"%s":[{"case_number":"1"},{"case_number":"2"}]}`, wrap), nil
		})
		s := NewCLISource("/usr/bin/rhcase", quiet())
		cases, err := s.List(context.Background(), ListOptions{})
		if err != nil {
			t.Fatalf("%s: %v", wrap, err)
		}
		if len(cases) != 2 {
			t.Fatalf("%s wrapper: got %d cases", wrap, len(cases))
		}
	}
}

func TestSnakeCaseFields(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return `[{"case_number":"9","case_type":"RFE","sbr_group":"Storage","is_closed":true,"hours_since_update":12.5}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, _ := s.List(context.Background(), ListOptions{})
	c := cases[0]
	if c.CaseType != "RFE" || c.SBRGroup != "Storage" || !c.IsClosed {
		t.Fatalf("snake_case fields not mapped: %+v", c)
	}
	if c.HoursSinceUpdate == nil || *c.HoursSinceUpdate != 12.5 {
		t.Fatalf("hours = %v", c.HoursSinceUpdate)
	}
}

func TestAbsentHoursStayNil(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return `[{"caseNumber":"1"}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, _ := s.List(context.Background(), ListOptions{})
	if cases[0].HoursSinceUpdate != nil || cases[0].HoursInStatus != nil {
		t.Fatalf("absent hour fields should be nil: %+v", cases[0])
	}
}

func TestGetSingleCaseWrapper(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		if args[0] != "get" || args[1] != "01234567" {
			t.Fatalf("unexpected args %v", args)
		}
		return `{"case":{"caseNumber":"01234567","subject":"broken"}}`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	c, err := s.Get(context.Background(), "01234567")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Subject != "broken" {
		t.Fatalf("got %+v", c)
	}
}

func TestTextFallback(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return "Listing results:\nCase 01234567: something broke\nCase 07654321: still broken\n\n", nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, err := s.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("got %d cases: %+v", len(cases), cases)
	}
	if cases[0].RawText != "Case 01234567: something broke" {
		t.Fatalf("raw text %q", cases[0].RawText)
	}
}

func TestSubprocessFailureYieldsEmptyList(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return "", errors.New("exit status 1")
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, err := s.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("subprocess failure should not error: %v", err)
	}
	if len(cases) != 0 {
		t.Fatalf("got %d cases", len(cases))
	}
}

func TestMissingPathErrors(t *testing.T) {
	s := NewCLISource("", quiet())
	_, err := s.List(context.Background(), ListOptions{})
	var ferr *domain.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(ferr.Error(), "not configured") {
		t.Fatalf("error = %v", ferr)
	}
}

func TestOpenFiltersClosedStatuses(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return `[{"caseNumber":"1","status":"Waiting on Red Hat"},
			{"caseNumber":"2","status":"Resolved"},
			{"caseNumber":"3","status":"CLOSED"},
			{"caseNumber":"4","status":"archived"}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, err := s.Open(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(cases) != 1 || cases[0].CaseNumber != "1" {
		t.Fatalf("got %+v", cases)
	}
}

func TestClosedWindowFiltering(t *testing.T) {
	recent := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	old := time.Now().AddDate(0, 0, -90).Format("2006-01-02")
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return fmt.Sprintf(`[
			{"caseNumber":"recent","status":"closed","closedDate":"%s"},
			{"caseNumber":"old","status":"closed","closedDate":"%s"},
			{"caseNumber":"nodate","status":"closed"},
			{"caseNumber":"baddate","status":"closed","closedDate":"last tuesday"},
			{"caseNumber":"open","status":"open"}]`, recent, old), nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, err := s.Closed(context.Background(), "acme", 30)
	if err != nil {
		t.Fatalf("Closed: %v", err)
	}
	got := make(map[string]bool)
	for _, c := range cases {
		got[c.CaseNumber] = true
		if !c.IsClosed {
			t.Errorf("case %s not marked closed", c.CaseNumber)
		}
	}
	for _, want := range []string{"recent", "nodate", "baddate"} {
		if !got[want] {
			t.Errorf("case %s missing from window", want)
		}
	}
	if got["old"] || got["open"] {
		t.Fatalf("window kept wrong cases: %v", got)
	}
}

func TestClosedMonthsFloor(t *testing.T) {
	var gotArgs []string
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		gotArgs = args
		return "[]", nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	if _, err := s.Closed(context.Background(), "acme", 7); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--months 1") {
		t.Fatalf("7 days should request 1 month, got %v", gotArgs)
	}
}

func TestAccountsAggregation(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--all") || !strings.Contains(joined, "--months 6") {
			t.Errorf("accounts should list all cases over the window, got %v", args)
		}
		return `[{"accountNumber":"100","accountName":"ACME"},
			{"accountNumber":"200","accountName":"Globex"},
			{"accountNumber":"100","accountName":"ACME"}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	accounts, err := s.Accounts(context.Background())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts", len(accounts))
	}
	if accounts[0].Number != "100" || accounts[0].CaseCount != 2 {
		t.Fatalf("got %+v", accounts[0])
	}
	if accounts[1].Name != "Globex" || accounts[1].CaseCount != 1 {
		t.Fatalf("got %+v", accounts[1])
	}
}

func TestCaseCount(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--status open") || !strings.Contains(joined, "--months 6") {
			t.Errorf("args = %v", args)
		}
		return `[{"caseNumber":"1"},{"caseNumber":"2"},{"caseNumber":"3"}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	n, err := s.CaseCount(context.Background(), "acme", "open")
	if err != nil {
		t.Fatalf("CaseCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d", n)
	}
}

func TestTrackerParsing(t *testing.T) {
	stubCommand(t, func(ctx context.Context, path string, args ...string) (string, error) {
		return `[{"caseNumber":"1","trackers":[{"system":"jira","key":"OCPBUGS-1","status":"New"}]}]`, nil
	})
	s := NewCLISource("/usr/bin/rhcase", quiet())
	cases, _ := s.List(context.Background(), ListOptions{})
	if len(cases[0].Trackers) != 1 {
		t.Fatalf("trackers = %+v", cases[0].Trackers)
	}
	tr := cases[0].Trackers[0]
	if tr.System != "jira" || tr.ResourceKey != "OCPBUGS-1" || tr.Status != "New" {
		t.Fatalf("tracker = %+v", tr)
	}
}
