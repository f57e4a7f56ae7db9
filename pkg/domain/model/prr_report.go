package model

import (
	"time"

	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/google/uuid"
)

// CheckResult is the outcome of evaluating one requirement
type CheckResult struct {
	RequirementID string            `json:"requirement_id"`
	Name          string            `json:"name"`
	Severity      types.Severity    `json:"severity"`
	Status        types.CheckStatus `json:"status"`
	Message       string            `json:"message,omitempty"`
	Details       string            `json:"details,omitempty"`
}

// PRRSummary counts results per status
type PRRSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Warned  int `json:"warned"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// PRRReportID is a unique identifier for a report
type PRRReportID string

// NewPRRReportID creates a new time-ordered report ID
func NewPRRReportID() PRRReportID {
	return PRRReportID(uuid.Must(uuid.NewV7()).String())
}

// PRRReport is the production-readiness review of a single Deployment
type PRRReport struct {
	ID          PRRReportID   `json:"id"`
	Namespace   string        `json:"namespace"`
	Deployment  string        `json:"deployment"`
	Tier        types.Tier    `json:"tier"`
	GeneratedAt time.Time     `json:"generated_at"`
	Results     []CheckResult `json:"results"`
	Summary     PRRSummary    `json:"summary"`
}

// NewPRRReport creates an empty report for the given deployment
func NewPRRReport(namespace, deployment string, tier types.Tier, now time.Time) *PRRReport {
	return &PRRReport{
		ID:          NewPRRReportID(),
		Namespace:   namespace,
		Deployment:  deployment,
		Tier:        tier,
		GeneratedAt: now.UTC(),
	}
}

// Add appends a result and updates the summary
func (r *PRRReport) Add(result CheckResult) {
	r.Results = append(r.Results, result)
	r.Summary.Total++
	switch result.Status {
	case types.CheckStatusPass:
		r.Summary.Passed++
	case types.CheckStatusFail:
		r.Summary.Failed++
	case types.CheckStatusWarn:
		r.Summary.Warned++
	case types.CheckStatusError:
		r.Summary.Errored++
	case types.CheckStatusSkip:
		r.Summary.Skipped++
	}
}

// Failures returns failed or errored results whose severity is at least threshold
func (r *PRRReport) Failures(threshold types.Severity) []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Status.IsFailure() && res.Severity.AtLeast(threshold) {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether no result at or above threshold failed
func (r *PRRReport) Passed(threshold types.Severity) bool {
	return len(r.Failures(threshold)) == 0
}
