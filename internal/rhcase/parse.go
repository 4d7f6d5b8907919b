package rhcase

import (
	"log"
	"strings"

	"github.com/tidwall/gjson"

	"tamreport/internal/domain"
)

// parseCases handles the response shapes seen across rhcase versions: a
// bare array, or an object wrapping the list under cases, data or results
// (get wraps a single object under case). Anything that is not JSON falls
// back to line-oriented text scraping.
func parseCases(out string, logger *log.Logger) []domain.Case {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return nil
	}
	if !gjson.Valid(trimmed) {
		return parseText(trimmed)
	}
	root := gjson.Parse(trimmed)

	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.Get("cases").Exists():
		items = root.Get("cases").Array()
	case root.Get("data").Exists():
		items = root.Get("data").Array()
	case root.Get("results").Exists():
		items = root.Get("results").Array()
	case root.Get("case").Exists():
		items = []gjson.Result{root.Get("case")}
	case root.IsObject():
		items = []gjson.Result{root}
	}

	cases := make([]domain.Case, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		cases = append(cases, parseCase(item))
	}
	if len(cases) == 0 && len(items) == 0 {
		logger.Printf("rhcase: unrecognized response shape, falling back to text parse")
		return parseText(trimmed)
	}
	return cases
}

// first returns the first of the named keys present on v. The tool has
// emitted both camelCase and snake_case field names.
func first(v gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := v.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func floatPtr(r gjson.Result) *float64 {
	if !r.Exists() {
		return nil
	}
	f := r.Float()
	return &f
}

func parseCase(v gjson.Result) domain.Case {
	closedFlag := first(v, "isClosed", "is_closed", "closed")
	c := domain.Case{
		CaseNumber:           domain.NormalizeCaseNumber(first(v, "caseNumber", "case_number", "number", "id").String()),
		Subject:              first(v, "subject", "title").String(),
		Summary:              first(v, "summary", "description").String(),
		CaseType:             first(v, "caseType", "case_type", "type").String(),
		SBRGroup:             first(v, "sbrGroup", "sbr_group", "sbr").String(),
		Severity:             first(v, "severity").String(),
		Status:               first(v, "status").String(),
		IsClosed:             closedFlag.Bool(),
		HasClosedFlag:        closedFlag.Exists(),
		CloseDate:            first(v, "closedDate", "closed_date", "closeDate", "close_date").String(),
		SBTState:             first(v, "sbtState", "sbt_state").String(),
		Breaches:             int(first(v, "numberOfBreaches", "number_of_breaches", "breaches").Int()),
		IsEscalated:          first(v, "isEscalated", "is_escalated", "escalated").Bool(),
		CustomerEscalation:   first(v, "customerEscalation", "customer_escalation").Bool(),
		ManagementEscalation: first(v, "requestManagementEscalation", "request_management_escalation", "managementEscalation", "management_escalation").Bool(),
		TotalEscalations:     int(first(v, "totalEscalation", "total_escalation", "totalEscalations", "total_escalations").Int()),
		HoursSinceUpdate:     floatPtr(first(v, "hoursSinceCaseLastUpdated", "hours_since_case_last_updated", "hoursSinceUpdate", "hours_since_update")),
		HoursInStatus:        floatPtr(first(v, "hoursInCurrentStatus", "hours_in_current_status", "hoursInStatus", "hours_in_status")),
		AccountNumber:        first(v, "accountNumber", "account_number").String(),
		AccountName:          first(v, "accountName", "account_name", "account").String(),
	}
	trackers := first(v, "trackers", "externalTrackers", "external_trackers")
	trackers.ForEach(func(_, t gjson.Result) bool {
		c.Trackers = append(c.Trackers, domain.ExternalTracker{
			System:      first(t, "system", "type").String(),
			ResourceKey: first(t, "resourceKey", "resource_key", "key").String(),
			ResourceURL: first(t, "resourceURL", "resource_url", "url").String(),
			Status:      first(t, "status").String(),
		})
		return true
	})
	return c
}

// parseText keeps any line that mentions a case so a broken JSON mode still
// yields something a human can read in the report warnings.
func parseText(out string) []domain.Case {
	var cases []domain.Case
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "Case") {
			continue
		}
		cases = append(cases, domain.Case{RawText: line})
	}
	return cases
}
