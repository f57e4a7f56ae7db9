package safe_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/brendanbecker/ce101/pkg/utils/safe"
	"github.com/m-mizutani/gt"
)

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	t.Run("closes and stays quiet", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

		c := &closer{}
		safe.Close(ctx, c)
		gt.Bool(t, c.closed).True()
		gt.Value(t, buf.Len()).Equal(0)
	})

	t.Run("logs close error", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

		safe.Close(ctx, &closer{err: errors.New("disk gone")}, "path", "out.yaml")
		gt.String(t, buf.String()).Contains("disk gone")
		gt.String(t, buf.String()).Contains("path=out.yaml")
	})

	t.Run("nil closer", func(t *testing.T) {
		safe.Close(context.Background(), nil)
	})
}
