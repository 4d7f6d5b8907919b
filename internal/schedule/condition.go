// Package schedule runs configured report jobs on cron expressions, gated
// by day-of-week conditions and optional pre-check commands.
package schedule

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	comparisonRe = regexp.MustCompile(`(\w+)\s*([<>=!]+)\s*(\d+)`)
	colonCountRe = regexp.MustCompile(`(\w+):\s*(\d+)`)
	equalCountRe = regexp.MustCompile(`(\w+)=(\d+)`)
	sev1Re       = regexp.MustCompile(`[Ss]ev\s*1[:\s]+(\d+)`)
	totalRe      = regexp.MustCompile(`[Tt]otal[:\s]+(\d+)`)
	bareNameRe   = regexp.MustCompile(`^\w+$`)
)

// EvaluateCondition decides whether a scheduled job should run. Supported
// forms: empty or "always", "weekday", "weekend", comparisons like
// "sev1_count > 0", and a bare variable name meaning non-zero.
func EvaluateCondition(cond string, ctx map[string]int, now time.Time) bool {
	cond = strings.TrimSpace(cond)
	switch strings.ToLower(cond) {
	case "", "always":
		return true
	case "weekday":
		wd := now.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case "weekend":
		wd := now.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	}
	if m := comparisonRe.FindStringSubmatch(cond); m != nil {
		left := ctx[m[1]]
		right, err := strconv.Atoi(m[3])
		if err != nil {
			return false
		}
		switch m[2] {
		case "<":
			return left < right
		case "<=":
			return left <= right
		case ">":
			return left > right
		case ">=":
			return left >= right
		case "==", "=":
			return left == right
		case "!=":
			return left != right
		}
		return false
	}
	if bareNameRe.MatchString(cond) {
		return ctx[cond] != 0
	}
	return false
}

// ExtractContext scrapes numeric variables out of a pre-check command's
// output. It understands "name: 5", "name=5" and the summary lines the
// check command prints ("Sev 1: N cases", "Total: N cases").
func ExtractContext(output string) map[string]int {
	ctx := make(map[string]int)
	for _, m := range colonCountRe.FindAllStringSubmatch(output, -1) {
		if n, err := strconv.Atoi(m[2]); err == nil {
			ctx[m[1]] = n
		}
	}
	for _, m := range equalCountRe.FindAllStringSubmatch(output, -1) {
		if n, err := strconv.Atoi(m[2]); err == nil {
			ctx[m[1]] = n
		}
	}
	if m := sev1Re.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ctx["sev1_count"] = n
		}
	}
	if m := totalRe.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ctx["case_count"] = n
		}
	}
	return ctx
}

const preCheckTimeout = 30 * time.Second

// runShell executes a pre-check through the shell. Swapped out in tests.
var runShell = func(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// RunPreCheck executes the command and extracts condition context from its
// output. A failing pre-check yields an empty context, not an error; the
// condition then decides whether the job still runs.
func RunPreCheck(ctx context.Context, command string) (map[string]int, string) {
	if command == "" {
		return map[string]int{}, ""
	}
	cctx, cancel := context.WithTimeout(ctx, preCheckTimeout)
	defer cancel()
	out, err := runShell(cctx, command)
	if err != nil {
		return map[string]int{}, out
	}
	return ExtractContext(out), out
}
