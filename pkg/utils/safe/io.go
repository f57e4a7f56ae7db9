package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/brendanbecker/ce101/pkg/utils/logging"
)

// Close closes c and logs a failure instead of returning it. args are added
// to the log record, typically the path of the file being closed.
func Close(ctx context.Context, c io.Closer, args ...any) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("close failed", append(args, slog.Any("error", err))...)
	}
}
