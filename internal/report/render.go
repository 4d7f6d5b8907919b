// Package report assembles the weekly customer report: bucket the enriched
// cases, build the template context and render the Markdown body.
package report

import (
	"fmt"
	"time"

	"tamreport/internal/classify"
	"tamreport/internal/domain"
	"tamreport/internal/template"
	"tamreport/internal/validate"
)

// Kind selects the document heading variant.
type Kind int

const (
	KindTroubleshooting Kind = iota
	KindRFEBug
)

func (k Kind) heading() string {
	if k == KindRFEBug {
		return "Weekly RFE/Bug Case Report"
	}
	return "Weekly Troubleshooting Case Report"
}

type Options struct {
	Customer     domain.Customer
	Now          time.Time
	Kind         Kind
	ContactEmail string
	Template     *template.Template // nil selects the built-in template
	Validation   validate.Result
	Warnings     []string
}

// Build partitions the cases into report buckets, sorts each by priority
// and renders the Markdown body. A case is an RFE or Bug strictly by its
// case type; everything else is Troubleshooting while open and Recently
// Closed once closed.
func Build(cases []domain.EnrichedCase, opts Options) (*domain.Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	r := &domain.Report{
		Customer:        opts.Customer,
		PeriodStart:     now.AddDate(0, 0, -7),
		PeriodEnd:       now,
		GeneratedAt:     now,
		QualityScore:    opts.Validation.Score,
		Anomalies:       opts.Validation.Anomalies,
		Recommendations: opts.Validation.Recommendations,
		Warnings:        opts.Warnings,
	}
	for _, c := range cases {
		switch {
		case c.CaseType == "RFE":
			r.ActiveRFEs = append(r.ActiveRFEs, c)
		case c.CaseType == "Bug":
			r.ActiveBugs = append(r.ActiveBugs, c)
		case c.IsClosed:
			r.RecentlyClosed = append(r.RecentlyClosed, c)
		default:
			r.Troubleshooting = append(r.Troubleshooting, c)
		}
	}
	classify.SortByPriority(r.ActiveRFEs)
	classify.SortByPriority(r.ActiveBugs)
	classify.SortByPriority(r.RecentlyClosed)

	// Troubleshooting reads best grouped by support team: priority order
	// within each group, groups in first-seen order.
	classify.SortByPriority(r.Troubleshooting)
	groups, order := classify.GroupBySBR(r.Troubleshooting)
	grouped := r.Troubleshooting[:0]
	for _, g := range order {
		grouped = append(grouped, groups[g]...)
	}
	r.Troubleshooting = grouped

	r.Title = Title(now, r.ActiveCount())

	tpl := opts.Template
	if tpl == nil {
		tpl = template.New(builtinTemplate)
	}
	ctx := buildContext(r, opts.Kind, opts.ContactEmail)
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.MarkdownBody = tpl.Render(ctx)
	return r, nil
}

// Title formats the date-stamped report title.
func Title(now time.Time, activeCount int) string {
	title := "Weekly Troubleshooting Case Report - " + now.Format("January 2, 2006")
	if activeCount > 0 {
		return title + fmt.Sprintf(" (%d Active Cases)", activeCount)
	}
	return title + " (No Active Cases)"
}

// requiredContextKeys must be present before any template runs; a custom
// template may ignore them but the pipeline context must supply them.
var requiredContextKeys = []string{"customer", "report_date", "period", "active_count"}

func checkContext(ctx map[string]any) error {
	for _, k := range requiredContextKeys {
		if _, ok := ctx[k]; !ok {
			return &domain.RenderError{Reason: "missing required context key: " + k}
		}
	}
	return nil
}

func buildContext(r *domain.Report, kind Kind, contactEmail string) map[string]any {
	ctx := map[string]any{
		"report_heading":  kind.heading(),
		"warning_count":   len(r.Warnings),
		"customer":        r.Customer.Name(),
		"report_date":     r.GeneratedAt.Format("January 2, 2006"),
		"period":          fmt.Sprintf("Week %02d of %d", domain.WeekOfYear(r.GeneratedAt), r.GeneratedAt.Year()),
		"active_count":    r.ActiveCount(),
		"rfe_count":       len(r.ActiveRFEs),
		"bug_count":       len(r.ActiveBugs),
		"ts_count":        len(r.Troubleshooting),
		"closed_count":    len(r.RecentlyClosed),
		"quality_score":   fmt.Sprintf("%.1f%%", r.QualityScore*100),
		"generated":       r.GeneratedAt.Format("2006-01-02 15:04"),
		"next_report":     r.GeneratedAt.AddDate(0, 0, 7).Format("January 2, 2006"),
		"contact":         contactEmail,
		"rfes":            caseItems(r.ActiveRFEs),
		"bugs":            caseItems(r.ActiveBugs),
		"troubleshooting": caseItems(r.Troubleshooting),
		"closed":          caseItems(r.RecentlyClosed),
		"anomalies":       textItems(r.Anomalies),
		"recommendations": textItems(r.Recommendations),
		"warnings":        textItems(r.Warnings),
	}
	ctx["has_rfes"] = len(r.ActiveRFEs) > 0
	ctx["has_bugs"] = len(r.ActiveBugs) > 0
	ctx["has_troubleshooting"] = len(r.Troubleshooting) > 0
	ctx["has_closed"] = len(r.RecentlyClosed) > 0
	ctx["has_anomalies"] = len(r.Anomalies) > 0
	ctx["has_warnings"] = len(r.Warnings) > 0
	return ctx
}

func caseItems(cases []domain.EnrichedCase) []map[string]any {
	items := make([]map[string]any, 0, len(cases))
	for _, c := range cases {
		jira := ""
		if c.JiraStatus != "" {
			jira = " | JIRA: " + c.JiraStatus
		}
		escalated := ""
		if c.Escalated {
			escalated = " **[ESCALATED]**"
		}
		items = append(items, map[string]any{
			"number":    c.DisplayNumber,
			"severity":  c.SeverityLabel,
			"sla":       c.SLAStatus,
			"jira":      jira,
			"escalated": escalated,
			"duration":  c.DurationDisplay,
			"summary":   c.ShortSummary,
			"group":     c.Group,
		})
	}
	return items
}

func textItems(lines []string) []map[string]any {
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		items = append(items, map[string]any{"text": l})
	}
	return items
}

const builtinTemplate = `# {{report_heading}}

| | |
|---|---|
| **Customer** | {{customer}} |
| **Report Date** | {{report_date}} |
| **Period** | {{period}} |
| **Active Cases** | {{active_count}} |

## Executive Summary

This week {{customer}} has {{rfe_count}} active RFEs, {{bug_count}} active bugs and {{ts_count}} open troubleshooting cases. {{closed_count}} cases were closed in the reporting period. Data quality score: {{quality_score}}.{{#if has_warnings}} {{warning_count}} records could not be parsed and are excluded from the buckets below.{{/if}}

{{#if has_rfes}}## RFEs

{{#each rfes}}- **{{number}}** ({{severity}}, {{sla}}{{jira}}){{escalated}}: {{summary}}
{{/each}}
{{/if}}{{#if has_bugs}}## Bugs

{{#each bugs}}- **{{number}}** ({{severity}}, {{sla}}{{jira}}){{escalated}}: {{summary}}
{{/each}}
{{/if}}{{#if has_troubleshooting}}## Troubleshooting

{{#each troubleshooting}}- **{{number}}** [{{group}}] ({{severity}}, {{sla}}{{jira}}){{escalated}}: {{summary}}
{{/each}}
{{/if}}{{#if has_closed}}## Recently Closed

{{#each closed}}- **{{number}}** ({{severity}}, {{sla}}): {{summary}}
{{/each}}
{{/if}}{{#if has_anomalies}}## Data Quality Notes

{{#each anomalies}}- {{text}}
{{/each}}
{{/if}}{{#if has_warnings}}## Warnings

{{#each warnings}}- {{text}}
{{/each}}
{{/if}}---

Generated: {{generated}} | Next Report: {{next_report}}

Questions? Contact {{contact}}
`
