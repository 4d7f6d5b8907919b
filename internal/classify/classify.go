// Package classify derives display and triage attributes from raw cases:
// severity buckets, age, SLA state, escalation and short summaries.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tamreport/internal/domain"
)

const summaryMaxLen = 100

var digitsRe = regexp.MustCompile(`(\d+)`)

// FormatCaseNumber normalizes a case number for display.
func FormatCaseNumber(raw string) string {
	n := domain.NormalizeCaseNumber(raw)
	if n == "" {
		return "Unknown"
	}
	return n
}

// severityDigit extracts the numeric severity from strings like
// "1 (Urgent)" or "Sev2". ok is false when the string carries no digit.
func severityDigit(severity string) (int, bool) {
	m := digitsRe.FindString(severity)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SeverityLevel is the sort key: missing or unparseable severities rank
// with the lowest real severity.
func SeverityLevel(severity string) int {
	n, ok := severityDigit(severity)
	if !ok {
		return 4
	}
	return n
}

// SeverityLabel maps digits 1-4 to their names. A string with no digit is
// "Unknown", not "Low"; only the sort key treats it as 4.
func SeverityLabel(severity string) string {
	n, ok := severityDigit(severity)
	if !ok {
		return "Unknown"
	}
	switch n {
	case 1:
		return "Urgent"
	case 2:
		return "High"
	case 3:
		return "Medium"
	case 4:
		return "Low"
	default:
		return "Unknown"
	}
}

// CaseAge returns the case age in hours, preferring time since last update
// over time in the current status.
func CaseAge(c domain.Case) float64 {
	if c.HoursSinceUpdate != nil {
		return *c.HoursSinceUpdate
	}
	if c.HoursInStatus != nil {
		return *c.HoursInStatus
	}
	return 0
}

// FormatDuration renders an hour count as a human-readable span.
func FormatDuration(hours float64) string {
	switch {
	case hours < 0:
		return "Unknown"
	case hours < 1:
		return fmt.Sprintf("%d minutes", int(hours*60))
	case hours < 24:
		return fmt.Sprintf("%.1f hours", hours)
	case hours < 168:
		return fmt.Sprintf("%.1f days", hours/24)
	default:
		return fmt.Sprintf("%.1f weeks", hours/168)
	}
}

// IsEscalated reports whether any escalation signal is set on the case.
func IsEscalated(c domain.Case) bool {
	return c.IsEscalated || c.CustomerEscalation || c.ManagementEscalation || c.TotalEscalations > 0
}

// SLAStatus classifies a case against its service levels.
func SLAStatus(c domain.Case) string {
	if c.IsClosed {
		return "Closed"
	}
	if c.Breaches > 0 {
		return "Breached"
	}
	if c.SBTState == "Not Breached" {
		return "On Track"
	}
	return "Unknown"
}

// ShortSummary picks the best available one-line summary, stripping markup
// and truncating to a display-friendly length.
func ShortSummary(c domain.Case) string {
	text := c.Subject
	if text == "" {
		text = c.Summary
	}
	if text == "" {
		return "No summary available"
	}
	text = domain.StripHTML(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return "No summary available"
	}
	if runes := []rune(text); len(runes) > summaryMaxLen {
		return string(runes[:summaryMaxLen-3]) + "..."
	}
	return text
}

// Enrich computes display attributes for each case.
func Enrich(cases []domain.Case) []domain.EnrichedCase {
	out := make([]domain.EnrichedCase, 0, len(cases))
	for _, c := range cases {
		age := CaseAge(c)
		e := domain.EnrichedCase{
			Case:            c,
			DisplayNumber:   FormatCaseNumber(c.CaseNumber),
			SeverityLabel:   SeverityLabel(c.Severity),
			SeverityLevel:   SeverityLevel(c.Severity),
			AgeHours:        age,
			DurationDisplay: FormatDuration(age),
			Escalated:       IsEscalated(c),
			SLAStatus:       SLAStatus(c),
			ShortSummary:    ShortSummary(c),
			Group:           c.SBRGroup,
			HasTrackers:     len(c.Trackers) > 0,
		}
		if e.Group == "" {
			e.Group = "Unknown"
		}
		for _, tr := range c.Trackers {
			if strings.EqualFold(tr.System, "JIRA") {
				e.JiraStatus = tr.Status
				break
			}
		}
		out = append(out, e)
	}
	return out
}

// priorityScore ranks cases so that severity dominates and age breaks ties
// within a severity band.
func priorityScore(e domain.EnrichedCase) float64 {
	return float64(e.SeverityLevel)*1000 + e.AgeHours
}

// SortByPriority orders cases most urgent first. The sort is stable so
// repeated sorting of equal-priority cases preserves order.
func SortByPriority(cases []domain.EnrichedCase) {
	sort.SliceStable(cases, func(i, j int) bool {
		return priorityScore(cases[i]) < priorityScore(cases[j])
	})
}

// GroupBySBR buckets cases by their support group, keeping first-seen group
// order in the returned key slice.
func GroupBySBR(cases []domain.EnrichedCase) (map[string][]domain.EnrichedCase, []string) {
	groups := make(map[string][]domain.EnrichedCase)
	var order []string
	for _, c := range cases {
		if _, ok := groups[c.Group]; !ok {
			order = append(order, c.Group)
		}
		groups[c.Group] = append(groups[c.Group], c)
	}
	return groups, order
}
