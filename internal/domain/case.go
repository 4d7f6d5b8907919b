package domain

import (
	"regexp"
	"strings"
	"time"
)

// ExternalTracker is a reference from a support case to an entry in a
// separate issue-tracking system (chiefly JIRA).
type ExternalTracker struct {
	System      string
	ResourceKey string
	ResourceURL string
	Status      string
}

// Case is a single support case as fetched from the case CLI. Parsing into
// it happens once at the fetch edge; downstream code works with the typed
// record and never re-checks raw field presence.
type Case struct {
	CaseNumber string
	Subject    string
	Summary    string
	CaseType   string // "RFE", "Bug", anything else is troubleshooting
	SBRGroup   string
	Severity   string // free-form, contains a digit 1-4 when set
	Status     string
	IsClosed   bool
	// HasClosedFlag records whether the source data carried the closed flag
	// at all; the validator's required-field check needs the distinction.
	HasClosedFlag bool
	CloseDate     string // raw date string, parsed lazily by the closed filter

	SBTState string // SLA breach state, "Not Breached" means on track
	Breaches int

	IsEscalated          bool
	CustomerEscalation   bool
	ManagementEscalation bool
	TotalEscalations     int

	// Age inputs. Nil means the source did not report the field; the
	// enricher falls back HoursSinceUpdate -> HoursInStatus -> 0.
	HoursSinceUpdate *float64
	HoursInStatus    *float64

	Trackers []ExternalTracker

	AccountNumber string
	AccountName   string

	// RawText is set only for records recovered by the text-scrape fallback
	// when the CLI emits non-JSON output.
	RawText string
}

// EnrichedCase is a Case plus the derived fields the classifier attaches.
type EnrichedCase struct {
	Case

	DisplayNumber   string
	SeverityLabel   string
	SeverityLevel   int
	AgeHours        float64
	DurationDisplay string
	Escalated       bool
	SLAStatus       string
	ShortSummary    string
	JiraStatus      string
	HasTrackers     bool
	Group           string
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup tags from a text fragment.
func StripHTML(raw string) string {
	return htmlTagRe.ReplaceAllString(raw, "")
}

// NormalizeCaseNumber strips HTML tags and surrounding whitespace from a
// case number. The case API sometimes wraps numbers in markup; this is the
// single normalization point, applied at ingest.
func NormalizeCaseNumber(raw string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(raw, ""))
}

// WeekOfYear returns the strftime %U week number: weeks start on Sunday and
// days before the first Sunday of the year belong to week 0.
func WeekOfYear(t time.Time) int {
	yday := t.YearDay() - 1
	wday := int(t.Weekday())
	return (yday + 7 - wday) / 7
}
