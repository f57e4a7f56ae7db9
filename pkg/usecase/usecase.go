package usecase

import (
	"time"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
)

type UseCases struct {
	cluster  interfaces.Cluster
	notifier interfaces.Notifier
	store    interfaces.ReportStore
	checks   CheckRegistry
	now      func() time.Time

	PRR  *PRRUseCase
	SLO  *SLOUseCase
	PPTX *PPTXUseCase
}

type Option func(*UseCases)

// WithCluster sets the source of workloads for PRR checks
func WithCluster(cluster interfaces.Cluster) Option {
	return func(uc *UseCases) {
		uc.cluster = cluster
	}
}

// WithNotifier posts PRR summaries after each review
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

// WithReportStore persists PRR reports after each review
func WithReportStore(store interfaces.ReportStore) Option {
	return func(uc *UseCases) {
		uc.store = store
	}
}

// WithChecks replaces the predicate registry
func WithChecks(checks CheckRegistry) Option {
	return func(uc *UseCases) {
		uc.checks = checks
	}
}

// WithClock overrides the time source used for report timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(opts ...Option) *UseCases {
	uc := &UseCases{
		checks: DefaultChecks(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.PRR = NewPRRUseCase(uc.cluster, uc.checks, uc.notifier, uc.store, uc.now)
	uc.SLO = NewSLOUseCase()
	uc.PPTX = NewPPTXUseCase()

	return uc
}
