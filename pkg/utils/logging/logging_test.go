package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestFromFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	logging.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	logging.From(context.Background()).Info("hello")

	gt.S(t, buf.String()).Contains("hello")
}

func TestWithEmbedsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("embedded", "key", "value")

	gt.S(t, buf.String()).Contains("embedded")
	gt.S(t, buf.String()).Contains("key=value")
}
