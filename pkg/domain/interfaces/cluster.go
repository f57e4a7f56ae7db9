package interfaces

import (
	"context"

	"github.com/brendanbecker/ce101/pkg/domain/model"
)

// Cluster provides the Deployment under review and its related objects
type Cluster interface {
	// FetchWorkload returns the named Deployment and the objects in its namespace
	// that checks consult. A missing Deployment is an error.
	FetchWorkload(ctx context.Context, namespace, name string) (*model.Workload, error)
}
