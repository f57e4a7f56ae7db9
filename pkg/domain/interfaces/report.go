package interfaces

import (
	"context"

	"github.com/brendanbecker/ce101/pkg/domain/model"
)

// Notifier publishes a PRR report summary
type Notifier interface {
	NotifyPRR(ctx context.Context, report *model.PRRReport) error
}

// ReportStore persists a PRR report and returns where it was written
type ReportStore interface {
	PutPRR(ctx context.Context, report *model.PRRReport) (string, error)
}
