package usecase

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"sigs.k8s.io/yaml"
)

var statusColors = map[types.CheckStatus]*color.Color{
	types.CheckStatusPass:  color.New(color.FgGreen),
	types.CheckStatusFail:  color.New(color.FgRed, color.Bold),
	types.CheckStatusWarn:  color.New(color.FgYellow),
	types.CheckStatusError: color.New(color.FgYellow, color.Bold),
	types.CheckStatusSkip:  color.New(color.FgHiBlack),
}

type renderOptions struct {
	grouped bool
}

// RenderOption tunes the text rendering of a report
type RenderOption func(*renderOptions)

// WithGroupedResults lists failed, errored and warned checks before passed
// and skipped ones. Order within each group follows the table.
func WithGroupedResults() RenderOption {
	return func(o *renderOptions) {
		o.grouped = true
	}
}

// RenderPRR writes the report in the given format. Text output marks
// failures at or above threshold as blocking.
func RenderPRR(w io.Writer, report *model.PRRReport, format types.OutputFormat, threshold types.Severity, opts ...RenderOption) error {
	var options renderOptions
	for _, opt := range opts {
		opt(&options)
	}

	switch format {
	case types.OutputFormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return goerr.Wrap(err, "failed to marshal report")
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case types.OutputFormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal report")
		}
		_, err = w.Write(data)
		return err

	case types.OutputFormatText, "":
		return renderPRRText(w, report, threshold, options)
	}
	return goerr.New("unsupported output format", goerr.V("format", format))
}

func renderPRRText(w io.Writer, report *model.PRRReport, threshold types.Severity, options renderOptions) error {
	bold := color.New(color.Bold)
	p := &errWriter{w: w}

	p.printf("%s\n", bold.Sprint("Production Readiness Review"))
	p.printf("Deployment: %s/%s\n", report.Namespace, report.Deployment)
	p.printf("Tier:       %s\n", report.Tier)
	p.printf("Report:     %s (%s)\n\n", report.ID, report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if options.grouped {
		var failed, passed []model.CheckResult
		for _, res := range report.Results {
			if res.Status.IsFailure() || res.Status == types.CheckStatusWarn {
				failed = append(failed, res)
			} else {
				passed = append(passed, res)
			}
		}
		if len(failed) > 0 {
			p.printf("%s\n", statusColors[types.CheckStatusFail].Sprint("FAILED CHECKS:"))
			printResults(p, failed)
		}
		if len(passed) > 0 {
			if len(failed) > 0 {
				p.printf("\n")
			}
			p.printf("%s\n", color.New(color.FgGreen, color.Bold).Sprint("PASSED CHECKS:"))
			printResults(p, passed)
		}
	} else {
		printResults(p, report.Results)
	}

	s := report.Summary
	p.printf("\n%s\n", bold.Sprint("Summary:"))
	p.printf("Total checks: %d\n", s.Total)
	p.printf("%s\n", statusColors[types.CheckStatusPass].Sprintf("Passed:  %d", s.Passed))
	p.printf("%s\n", statusColors[types.CheckStatusFail].Sprintf("Failed:  %d", s.Failed))
	p.printf("%s\n", statusColors[types.CheckStatusWarn].Sprintf("Warned:  %d", s.Warned))
	p.printf("%s\n", statusColors[types.CheckStatusError].Sprintf("Errored: %d", s.Errored))
	p.printf("Skipped: %d\n", s.Skipped)

	if blocking := report.Failures(threshold); len(blocking) > 0 {
		p.printf("\n%s\n", statusColors[types.CheckStatusFail].Sprintf("⚠ %d check(s) at or above %s must be resolved before production launch", len(blocking), threshold))
	} else {
		p.printf("\n%s\n", statusColors[types.CheckStatusPass].Sprintf("All checks at or above %s passed.", threshold))
	}
	return p.err
}

func printResults(p *errWriter, results []model.CheckResult) {
	for _, res := range results {
		label := statusColors[res.Status].Sprintf("%-5s", res.Status)
		switch res.Status {
		case types.CheckStatusPass, types.CheckStatusSkip:
			p.printf("%s [%s] %s: %s\n", label, res.RequirementID, res.Name, res.Message)
		default:
			p.printf("%s [%s] %s (%s): %s\n", label, res.RequirementID, res.Name, res.Severity, res.Message)
			if res.Details != "" {
				p.printf("      → %s\n", res.Details)
			}
		}
	}
}

// errWriter keeps the first write error so formatted output can be written
// without checking every call
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
