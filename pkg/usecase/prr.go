package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/utils/errutil"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// PRRUseCase runs production-readiness checks against a Deployment
type PRRUseCase struct {
	cluster  interfaces.Cluster
	checks   CheckRegistry
	notifier interfaces.Notifier
	store    interfaces.ReportStore
	now      func() time.Time
}

// NewPRRUseCase creates a new PRRUseCase. notifier and store may be nil.
func NewPRRUseCase(cluster interfaces.Cluster, checks CheckRegistry, notifier interfaces.Notifier, store interfaces.ReportStore, now func() time.Time) *PRRUseCase {
	return &PRRUseCase{
		cluster:  cluster,
		checks:   checks,
		notifier: notifier,
		store:    store,
		now:      now,
	}
}

// PRRInput selects the Deployment to review and the table to review it against.
// Docs is the service's documentation directory for doc-file checks.
type PRRInput struct {
	Namespace  string
	Deployment string
	Tier       types.Tier
	Table      *model.RequirementTable
	Docs       fs.FS
}

// RunChecks fetches the workload and evaluates every requirement of the
// table in order. Requirements optional for the tier are recorded as skipped,
// and failures of recommended requirements as warnings. A missing check or a
// predicate error is recorded as an error result and the review continues.
func (uc *PRRUseCase) RunChecks(ctx context.Context, input PRRInput) (*model.PRRReport, error) {
	if uc.cluster == nil {
		return nil, goerr.Wrap(ErrNoCluster, "cannot fetch workload")
	}
	if !input.Tier.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidTier, "unknown tier", goerr.V(TierKey, input.Tier))
	}

	logger := logging.From(ctx).With("namespace", input.Namespace, "deployment", input.Deployment)
	logger.Info("fetching workload")

	workload, err := uc.cluster.FetchWorkload(ctx, input.Namespace, input.Deployment)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch workload",
			goerr.V(NamespaceKey, input.Namespace), goerr.V(DeploymentKey, input.Deployment))
	}
	if workload.Deployment == nil {
		return nil, goerr.New("workload has no deployment",
			goerr.V(NamespaceKey, input.Namespace), goerr.V(DeploymentKey, input.Deployment))
	}
	workload.Docs = input.Docs

	report := model.NewPRRReport(input.Namespace, input.Deployment, input.Tier, uc.now())
	for i := range input.Table.Requirements {
		req := &input.Table.Requirements[i]
		result := model.CheckResult{
			RequirementID: req.ID,
			Name:          req.Name,
			Severity:      req.Severity,
		}

		level := req.LevelFor(input.Tier)
		switch verdict, err := uc.evaluate(workload, req, input.Tier); {
		case level == types.LevelOptional:
			result.Status = types.CheckStatusSkip
			result.Message = fmt.Sprintf("not required for %s", input.Tier)
		case err != nil:
			result.Status = types.CheckStatusError
			result.Message = err.Error()
			logger.Warn("check could not be evaluated", "requirement", req.ID, "check", req.Check, "error", err)
		case verdict.Passed:
			result.Status = types.CheckStatusPass
			result.Message = verdict.Message
		case level == types.LevelRecommended:
			result.Status = types.CheckStatusWarn
			result.Message = verdict.Message
			result.Details = verdict.Details
		default:
			result.Status = types.CheckStatusFail
			result.Message = verdict.Message
			result.Details = verdict.Details
		}

		logger.Debug("check evaluated", "requirement", req.ID, "status", result.Status)
		report.Add(result)
	}

	logger.Info("review finished",
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"warned", report.Summary.Warned,
		"errored", report.Summary.Errored,
		"skipped", report.Summary.Skipped,
	)
	return report, nil
}

// evaluate returns nil without error when req is optional for tier
func (uc *PRRUseCase) evaluate(w *model.Workload, req *model.Requirement, tier types.Tier) (*Verdict, error) {
	if !req.AppliesTo(tier) {
		return nil, nil
	}
	predicate, ok := uc.checks[req.Check]
	if !ok {
		return nil, goerr.New("unknown check", goerr.V("check", req.Check))
	}
	verdict, err := predicate(w, req.Resolve(tier))
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}

// Publish stores and announces the report when a store or notifier is
// configured. It returns where the report was stored. Both are attempted even
// if the first fails.
func (uc *PRRUseCase) Publish(ctx context.Context, report *model.PRRReport) (string, error) {
	var location string
	var firstErr error

	if uc.store != nil {
		loc, err := uc.store.PutPRR(ctx, report)
		if err != nil {
			firstErr = goerr.Wrap(err, "failed to store report", goerr.V("report_id", report.ID))
			errutil.Handle(ctx, firstErr, "report store failed")
		} else {
			location = loc
			logging.From(ctx).Info("report stored", "location", loc)
		}
	}

	if uc.notifier != nil {
		if err := uc.notifier.NotifyPRR(ctx, report); err != nil {
			err = goerr.Wrap(err, "failed to notify report", goerr.V("report_id", report.ID))
			errutil.Handle(ctx, err, "report notification failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return location, firstErr
}
