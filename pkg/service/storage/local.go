package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Local stores reports as JSON files below a directory
type Local struct {
	dir string
}

// NewLocal creates a file based report store rooted at dir
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// PutPRR writes report and returns the file path
func (s *Local) PutPRR(ctx context.Context, report *model.PRRReport) (string, error) {
	data, err := encode(report)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filepath.FromSlash(ObjectName("", report)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create report directory", goerr.V("path", path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write report", goerr.V("path", path))
	}

	logging.From(ctx).Info("PRR report stored", "path", path)
	return path, nil
}
