package kubectl

import "github.com/m-mizutani/goerr/v2"

var (
	ErrWorkloadNotFound = goerr.New("deployment not found")
	ErrCommandFailed    = goerr.New("kubectl command failed")
	ErrDecode           = goerr.New("failed to decode kubectl output")
)

// Context keys for error values
const (
	NamespaceKey = "namespace"
	NameKey      = "name"
	ResourceKey  = "resource"
	StderrKey    = "stderr"
)
