package domain

import "time"

// Report is the fully assembled weekly report for one customer. All fields
// are transient; only the rendered Markdown is persisted.
type Report struct {
	Customer    Customer
	PeriodStart time.Time
	PeriodEnd   time.Time
	GeneratedAt time.Time

	ActiveRFEs      []EnrichedCase
	ActiveBugs      []EnrichedCase
	Troubleshooting []EnrichedCase
	RecentlyClosed  []EnrichedCase

	QualityScore    float64
	Anomalies       []string
	Recommendations []string
	Warnings        []string

	Title          string
	MarkdownBody   string
	APIEnvironment string // base URL of the portal environment that accepted the post
}

// ActiveCount is the N in the title's "(N Active Cases)" suffix.
func (r *Report) ActiveCount() int {
	return len(r.ActiveRFEs) + len(r.ActiveBugs) + len(r.Troubleshooting)
}

// AllCases returns the four buckets flattened in report order.
func (r *Report) AllCases() []EnrichedCase {
	out := make([]EnrichedCase, 0, r.ActiveCount()+len(r.RecentlyClosed))
	out = append(out, r.ActiveRFEs...)
	out = append(out, r.ActiveBugs...)
	out = append(out, r.Troubleshooting...)
	out = append(out, r.RecentlyClosed...)
	return out
}
