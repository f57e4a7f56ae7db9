package usecase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/m-mizutani/gt"
	"sigs.k8s.io/yaml"
)

type mockCluster struct {
	workload *model.Workload
	err      error
}

func (m *mockCluster) FetchWorkload(_ context.Context, _, _ string) (*model.Workload, error) {
	return m.workload, m.err
}

type mockStore struct {
	reports []*model.PRRReport
	err     error
}

func (m *mockStore) PutPRR(_ context.Context, report *model.PRRReport) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.reports = append(m.reports, report)
	return "mem://" + string(report.ID), nil
}

type mockNotifier struct {
	notified int
	err      error
}

func (m *mockNotifier) NotifyPRR(_ context.Context, _ *model.PRRReport) error {
	m.notified++
	return m.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func prrTable() *model.RequirementTable {
	return &model.RequirementTable{Requirements: []model.Requirement{
		{ID: "REL-001", Name: "Minimum replicas", Severity: types.SeverityCritical, Check: "min-replicas", Params: map[string]any{"min": 5}},
		{ID: "REL-003", Name: "Liveness probe", Severity: types.SeverityHigh, Check: "liveness-probe"},
		{ID: "REL-007", Name: "Autoscaling", Severity: types.SeverityMedium, Tiers: []types.Tier{types.Tier1}, Check: "horizontal-autoscaler"},
		{ID: "X-001", Name: "Unknown", Severity: types.SeverityLow, Check: "no-such-check"},
	}}
}

func TestPRRUseCase_RunChecks(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(
		usecase.WithCluster(&mockCluster{workload: readyWorkload()}),
		usecase.WithClock(func() time.Time { return fixedNow }),
	)

	report, err := uc.PRR.RunChecks(ctx, usecase.PRRInput{
		Namespace:  "shop",
		Deployment: "checkout",
		Tier:       types.Tier2,
		Table:      prrTable(),
	})
	gt.NoError(t, err).Required()

	gt.Value(t, report.GeneratedAt).Equal(fixedNow)
	gt.Array(t, report.Results).Length(4).Required()

	statuses := make([]types.CheckStatus, len(report.Results))
	for i, r := range report.Results {
		statuses[i] = r.Status
	}
	gt.Value(t, statuses).Equal([]types.CheckStatus{
		types.CheckStatusFail,
		types.CheckStatusPass,
		types.CheckStatusSkip,
		types.CheckStatusError,
	})
	gt.Value(t, report.Summary).Equal(model.PRRSummary{Total: 4, Passed: 1, Failed: 1, Errored: 1, Skipped: 1})
	gt.String(t, report.Results[0].Details).Contains("at least 5")
	gt.String(t, report.Results[2].Message).Contains("tier-2")

	gt.Bool(t, report.Passed(types.SeverityLow)).False()
	gt.Bool(t, report.Passed(types.SeverityCritical)).False()
	gt.Array(t, report.Failures(types.SeverityHigh)).Length(1)
}

func TestPRRUseCase_RunChecksLevels(t *testing.T) {
	ctx := context.Background()
	w := readyWorkload()
	w.NetworkPolicies = nil
	w.Deployment.Spec.Replicas = ptr(int32(1))

	table := &model.RequirementTable{Requirements: []model.Requirement{
		{
			ID: "REL-001", Name: "Minimum replicas", Severity: types.SeverityCritical, Check: "min-replicas",
			Params:     map[string]any{"min": 1},
			TierParams: map[types.Tier]map[string]any{types.Tier1: {"min": 2}},
		},
		{
			ID: "SEC-003", Name: "Network policy", Severity: types.SeverityHigh, Check: "network-policy",
			Levels: map[types.Tier]types.Level{
				types.Tier1: types.LevelRequired,
				types.Tier2: types.LevelRecommended,
				types.Tier3: types.LevelOptional,
			},
		},
		{
			ID: "DOC-002", Name: "Runbook", Severity: types.SeverityHigh, Check: "doc-file",
			Params: map[string]any{"path": "RUNBOOK.md"},
		},
	}}

	testCases := []struct {
		tier     types.Tier
		statuses []types.CheckStatus
		passed   bool
	}{
		{
			tier:     types.Tier1,
			statuses: []types.CheckStatus{types.CheckStatusFail, types.CheckStatusFail, types.CheckStatusPass},
			passed:   false,
		},
		{
			tier:     types.Tier2,
			statuses: []types.CheckStatus{types.CheckStatusPass, types.CheckStatusWarn, types.CheckStatusPass},
			passed:   true,
		},
		{
			tier:     types.Tier3,
			statuses: []types.CheckStatus{types.CheckStatusPass, types.CheckStatusSkip, types.CheckStatusPass},
			passed:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(string(tc.tier), func(t *testing.T) {
			uc := usecase.New(usecase.WithCluster(&mockCluster{workload: w}))
			report, err := uc.PRR.RunChecks(ctx, usecase.PRRInput{
				Namespace:  "shop",
				Deployment: "checkout",
				Tier:       tc.tier,
				Table:      table,
				Docs:       w.Docs,
			})
			gt.NoError(t, err).Required()

			statuses := make([]types.CheckStatus, len(report.Results))
			for i, r := range report.Results {
				statuses[i] = r.Status
			}
			gt.Value(t, statuses).Equal(tc.statuses)
			gt.Value(t, report.Passed(types.SeverityLow)).Equal(tc.passed)
		})
	}

	t.Run("warning keeps details", func(t *testing.T) {
		uc := usecase.New(usecase.WithCluster(&mockCluster{workload: w}))
		report, err := uc.PRR.RunChecks(ctx, usecase.PRRInput{Namespace: "shop", Deployment: "checkout", Tier: types.Tier2, Table: table, Docs: w.Docs})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Summary.Warned).Equal(1)
		gt.String(t, report.Results[1].Details).Contains("NetworkPolicy")
	})
}

func TestPRRUseCase_RunChecksErrors(t *testing.T) {
	ctx := context.Background()
	input := usecase.PRRInput{Namespace: "shop", Deployment: "checkout", Tier: types.Tier1, Table: prrTable()}

	t.Run("workload missing", func(t *testing.T) {
		notFound := errors.New("not found")
		uc := usecase.New(usecase.WithCluster(&mockCluster{err: notFound}))
		_, err := uc.PRR.RunChecks(ctx, input)
		gt.Error(t, err).Is(notFound)
	})

	t.Run("no cluster", func(t *testing.T) {
		_, err := usecase.New().PRR.RunChecks(ctx, input)
		gt.Error(t, err).Is(usecase.ErrNoCluster)
	})

	t.Run("invalid tier", func(t *testing.T) {
		uc := usecase.New(usecase.WithCluster(&mockCluster{workload: readyWorkload()}))
		bad := input
		bad.Tier = "tier-9"
		_, err := uc.PRR.RunChecks(ctx, bad)
		gt.Error(t, err).Is(model.ErrInvalidTier)
	})
}

func TestPRRUseCase_Publish(t *testing.T) {
	ctx := context.Background()
	report := model.NewPRRReport("shop", "checkout", types.Tier1, fixedNow)

	t.Run("store and notify", func(t *testing.T) {
		store := &mockStore{}
		notifier := &mockNotifier{}
		uc := usecase.New(usecase.WithReportStore(store), usecase.WithNotifier(notifier))

		loc, err := uc.PRR.Publish(ctx, report)
		gt.NoError(t, err).Required()
		gt.Value(t, loc).Equal("mem://" + string(report.ID))
		gt.Array(t, store.reports).Length(1)
		gt.Value(t, notifier.notified).Equal(1)
	})

	t.Run("store failure still notifies", func(t *testing.T) {
		storeErr := errors.New("bucket unavailable")
		notifier := &mockNotifier{}
		uc := usecase.New(usecase.WithReportStore(&mockStore{err: storeErr}), usecase.WithNotifier(notifier))

		loc, err := uc.PRR.Publish(ctx, report)
		gt.Error(t, err).Is(storeErr)
		gt.Value(t, loc).Equal("")
		gt.Value(t, notifier.notified).Equal(1)
	})

	t.Run("nothing configured", func(t *testing.T) {
		loc, err := usecase.New().PRR.Publish(ctx, report)
		gt.NoError(t, err)
		gt.Value(t, loc).Equal("")
	})
}

func sampleReport() *model.PRRReport {
	report := model.NewPRRReport("shop", "checkout", types.Tier1, fixedNow)
	report.Add(model.CheckResult{RequirementID: "REL-001", Name: "Minimum replicas", Severity: types.SeverityCritical, Status: types.CheckStatusPass, Message: "3 replicas (minimum 2)"})
	report.Add(model.CheckResult{RequirementID: "OPS-001", Name: "Ownership labels", Severity: types.SeverityLow, Status: types.CheckStatusFail, Message: "missing label(s): team", Details: "Add the labels"})
	return report
}

func TestRenderPRR(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderPRR(&buf, sampleReport(), types.OutputFormatText, types.SeverityLow)).Required()
		out := buf.String()
		gt.String(t, out).Contains("Deployment: shop/checkout")
		gt.String(t, out).Contains("[REL-001] Minimum replicas: 3 replicas (minimum 2)")
		gt.String(t, out).Contains("[OPS-001] Ownership labels (low): missing label(s): team")
		gt.String(t, out).Contains("→ Add the labels")
		gt.String(t, out).Contains("1 check(s) at or above low must be resolved")
	})

	t.Run("text grouped", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderPRR(&buf, sampleReport(), types.OutputFormatText, types.SeverityLow, usecase.WithGroupedResults())).Required()
		out := buf.String()

		failedAt := strings.Index(out, "FAILED CHECKS:")
		passedAt := strings.Index(out, "PASSED CHECKS:")
		opsAt := strings.Index(out, "[OPS-001]")
		relAt := strings.Index(out, "[REL-001]")
		gt.Bool(t, failedAt >= 0 && failedAt < opsAt).True()
		gt.Bool(t, opsAt < passedAt && passedAt < relAt).True()
	})

	t.Run("text warnings", func(t *testing.T) {
		report := sampleReport()
		report.Add(model.CheckResult{RequirementID: "SEC-003", Name: "Network policy", Severity: types.SeverityHigh, Status: types.CheckStatusWarn, Message: "no NetworkPolicy selects the pods"})

		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderPRR(&buf, report, types.OutputFormatText, types.SeverityHigh)).Required()
		gt.String(t, buf.String()).Contains("[SEC-003] Network policy (high): no NetworkPolicy selects the pods")
		gt.String(t, buf.String()).Contains("Warned:  1")
		gt.String(t, buf.String()).Contains("All checks at or above high passed.")
	})

	t.Run("text below threshold", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderPRR(&buf, sampleReport(), types.OutputFormatText, types.SeverityHigh)).Required()
		gt.String(t, buf.String()).Contains("All checks at or above high passed.")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderPRR(&buf, sampleReport(), types.OutputFormatJSON, types.SeverityLow)).Required()

		var decoded model.PRRReport
		gt.NoError(t, json.Unmarshal(buf.Bytes(), &decoded)).Required()
		gt.Value(t, decoded.Summary).Equal(model.PRRSummary{Total: 2, Passed: 1, Failed: 1})
		gt.Value(t, decoded.Results[1].Details).Equal("Add the labels")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderPRR(&buf, sampleReport(), types.OutputFormatYAML, types.SeverityLow)).Required()

		var decoded map[string]any
		gt.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded)).Required()
		gt.Value(t, decoded["deployment"]).Equal("checkout")
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		gt.Value(t, usecase.RenderPRR(&buf, sampleReport(), types.OutputFormat("xml"), types.SeverityLow)).NotNil()
	})
}
