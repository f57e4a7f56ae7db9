package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Lookup errors
	ErrTemplateNotFound = errors.New("SLO template not found")
	ErrNoCluster        = errors.New("no workload source configured")

	// Input errors
	ErrMissingNamespace = errors.New("namespace is required")

	// Output errors
	ErrOutputExists = errors.New("output file already exists")

	// Result errors
	ErrPRRFailed      = errors.New("production readiness review failed")
	ErrSlidesFailed   = errors.New("some slides could not be copied")
	ErrAnalysisFailed = errors.New("some presentations could not be analyzed")
)

// Context keys for error values
const (
	ServiceKey     = "service"
	ServiceTypeKey = "service_type"
	TierKey        = "tier"
	PathKey        = "path"
	NamespaceKey   = "namespace"
	DeploymentKey  = "deployment"
)
