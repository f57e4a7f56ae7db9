package kubectl

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/brendanbecker/ce101/pkg/utils/logging"
)

// CommandRunner executes an external command and returns its stdout and stderr
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

var _ CommandRunner = &ExecRunner{}

// Run executes name with args, honoring ctx cancellation
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	// #nosec G204 - binary and arguments come from CLI flags
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	logging.From(ctx).Debug("command finished",
		"name", name,
		"stdout_bytes", stdout.Len(),
		"stderr", stderr.String(),
	)
	return stdout.Bytes(), stderr.Bytes(), err
}
