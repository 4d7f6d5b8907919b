// Package validate scores fetched case data for completeness and flags
// statistical anomalies before a report is published.
package validate

import (
	"fmt"

	"tamreport/internal/domain"
)

type Options struct {
	Threshold      float64
	Strict         bool
	CheckAnomalies bool
}

type Summary struct {
	Total   int
	Valid   int
	Invalid int
	Passed  bool
}

type Result struct {
	Score                 float64
	StructureValid        bool
	RequiredFieldsPresent float64
	Anomalies             []string
	Recommendations       []string
	Summary               Summary
}

// complete reports whether a case carries every field the report needs.
func complete(c domain.Case) bool {
	return c.CaseNumber != "" && c.CaseType != "" && c.SBRGroup != "" && c.HasClosedFlag
}

// qualityScore averages three factors: field completeness, case type
// distinctness and support group distinctness. The distinctness factors
// reward datasets whose categorical fields carry real signal instead of a
// single repeated value.
func qualityScore(cases []domain.Case) float64 {
	if len(cases) == 0 {
		return 0.0
	}
	var nComplete int
	types := make(map[string]struct{})
	groups := make(map[string]struct{})
	var nTypes, nGroups int
	for _, c := range cases {
		if complete(c) {
			nComplete++
		}
		if c.CaseType != "" {
			types[c.CaseType] = struct{}{}
			nTypes++
		}
		if c.SBRGroup != "" {
			groups[c.SBRGroup] = struct{}{}
			nGroups++
		}
	}
	completeness := float64(nComplete) / float64(len(cases))
	typeFactor := 1.0
	if nTypes > 0 {
		typeFactor = float64(len(types)) / float64(nTypes)
	}
	groupFactor := 1.0
	if nGroups > 0 {
		groupFactor = float64(len(groups)) / float64(nGroups)
	}
	return (completeness + typeFactor + groupFactor) / 3
}

func requiredFieldsPresent(cases []domain.Case) float64 {
	if len(cases) == 0 {
		return 1.0
	}
	var missing int
	for _, c := range cases {
		if c.CaseNumber == "" {
			missing++
		}
		if c.CaseType == "" {
			missing++
		}
		if c.SBRGroup == "" {
			missing++
		}
		if !c.HasClosedFlag {
			missing++
		}
	}
	return 1 - float64(missing)/float64(len(cases)*4)
}

func detectAnomalies(cases []domain.Case) []string {
	if len(cases) == 0 {
		return []string{"No case data provided"}
	}
	var anomalies []string
	if len(cases) > 1000 {
		anomalies = append(anomalies, fmt.Sprintf("Unusually high case count: %d", len(cases)))
	}
	var nClosed, nTyped int
	for _, c := range cases {
		if c.IsClosed {
			nClosed++
		}
		if c.CaseType != "" {
			nTyped++
		}
	}
	if nTyped == 0 {
		anomalies = append(anomalies, "No case types found in data")
	}
	ratio := float64(nClosed) / float64(len(cases))
	if ratio > 0.9 {
		anomalies = append(anomalies, fmt.Sprintf("Unusually high closed case ratio: %.2f%%", ratio*100))
	} else if ratio < 0.1 {
		anomalies = append(anomalies, fmt.Sprintf("Unusually low closed case ratio: %.2f%%", ratio*100))
	}
	return anomalies
}

func recommendations(score, fieldsPresent float64, anomalies []string) []string {
	var recs []string
	if score < 0.95 {
		recs = append(recs, "Data quality score is below recommended threshold (95%)")
	}
	if fieldsPresent < 1 {
		recs = append(recs, "Some cases are missing required fields - review data collection")
	}
	if len(anomalies) > 0 {
		recs = append(recs, "Anomalies detected - review data for accuracy")
	}
	if len(recs) == 0 {
		recs = append(recs, "Data quality is good - no immediate action required")
	}
	return recs
}

// Run validates a case set. In strict mode a below-threshold score or an
// invalid structure is returned as a *domain.ValidationError; in advisory
// mode the same findings surface only in the Result.
func Run(cases []domain.Case, opts Options) (Result, error) {
	res := Result{
		Score:                 qualityScore(cases),
		StructureValid:        true,
		RequiredFieldsPresent: requiredFieldsPresent(cases),
	}
	var nValid int
	for _, c := range cases {
		if complete(c) {
			nValid++
		} else {
			res.StructureValid = false
		}
	}
	if len(cases) == 0 {
		res.StructureValid = false
	}
	if opts.CheckAnomalies {
		res.Anomalies = detectAnomalies(cases)
	}
	res.Recommendations = recommendations(res.Score, res.RequiredFieldsPresent, res.Anomalies)
	res.Summary = Summary{
		Total:   len(cases),
		Valid:   nValid,
		Invalid: len(cases) - nValid,
		Passed:  res.Score >= opts.Threshold,
	}
	if opts.Strict && (!res.Summary.Passed || !res.StructureValid) {
		reason := "quality score below threshold"
		if !res.StructureValid {
			reason = "case data failed structural validation"
		}
		return res, &domain.ValidationError{
			Score:     res.Score,
			Threshold: opts.Threshold,
			Reason:    reason,
		}
	}
	return res, nil
}
