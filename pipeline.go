package main

import (
	"context"
	"log"

	"tamreport/internal/classify"
	"tamreport/internal/config"
	"tamreport/internal/domain"
	"tamreport/internal/report"
	"tamreport/internal/rhcase"
	"tamreport/internal/template"
	"tamreport/internal/validate"
)

// loadConfig builds the effective config, applying the global debug flag
// and wiring the standard logger to the log directory.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	cfg.Debug = cfg.Debug || rootFlags.debug
	if _, err := config.SetupLogging(cfg.LogDir); err != nil {
		log.Printf("log file unavailable: %v", err)
	}
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return cfg, nil
}

type pipelineResult struct {
	Report     *domain.Report
	Validation validate.Result
	Path       string // written report file, empty when not persisted
}

// runPipeline executes fetch, validate, classify and render for one
// customer. In strict mode the report is still fully built before a
// validation failure is returned, so the operator can inspect what would
// have shipped.
func runPipeline(ctx context.Context, cfg config.Config, customerKey string, writeFile bool) (*pipelineResult, error) {
	customer := cfg.Customer(customerKey)
	src := rhcase.NewCLISource(cfg.RHCasePath, log.Default())
	src.Months = cfg.Months
	if err := src.Available(ctx); err != nil {
		return nil, err
	}

	open, err := src.Open(ctx, customer.CaseFilter())
	if err != nil {
		return nil, err
	}
	closed, err := src.Closed(ctx, customer.CaseFilter(), cfg.ClosedWindowDays)
	if err != nil {
		return nil, err
	}
	cases := append(open, closed...)

	vr, verr := validate.Run(cases, validate.Options{
		Threshold:      cfg.QualityThreshold,
		Strict:         cfg.Strict,
		CheckAnomalies: cfg.CheckAnomalies,
	})

	var warnings []string
	parsed := cases[:0]
	for _, c := range cases {
		if c.RawText != "" && c.CaseNumber == "" {
			warnings = append(warnings, "unparsed case line: "+c.RawText)
			continue
		}
		parsed = append(parsed, c)
	}

	var tpl *template.Template
	if cfg.TemplatePath != "" {
		tpl, err = template.Load(cfg.TemplatePath)
		if err != nil {
			return nil, err
		}
	}
	kind := report.KindTroubleshooting
	if cfg.ReportKind == "rfebug" {
		kind = report.KindRFEBug
	}
	r, err := report.Build(classify.Enrich(parsed), report.Options{
		Customer:     customer,
		Kind:         kind,
		ContactEmail: cfg.ContactEmail,
		Template:     tpl,
		Validation:   vr,
		Warnings:     warnings,
	})
	if err != nil {
		return nil, err
	}
	res := &pipelineResult{Report: r, Validation: vr}
	if writeFile {
		path, werr := report.WriteFile(r, cfg.OutputDir)
		if werr != nil {
			return nil, werr
		}
		res.Path = path
		log.Printf("report written to %s", path)
	}
	if verr != nil {
		return res, verr
	}
	return res, nil
}
