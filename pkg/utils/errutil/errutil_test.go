package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/brendanbecker/ce101/pkg/utils/errutil"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestHandle(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(context.Background(), nil, "nothing"))
	})

	t.Run("goerr values are logged", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

		base := goerr.New("kubectl failed", goerr.V("namespace", "payments"))
		err := errutil.Handle(ctx, base, "prr check failed")

		gt.Value(t, err).Equal(error(base))
		gt.String(t, buf.String()).Contains("prr check failed")
		gt.String(t, buf.String()).Contains("payments")
	})

	t.Run("plain error is logged", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

		err := errutil.Handle(ctx, errors.New("boom"), "plain failure")
		gt.Error(t, err)
		gt.String(t, buf.String()).Contains("boom")
	})
}

func TestHandle_Sentry(t *testing.T) {
	var captured []*sentry.Event
	gt.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			captured = append(captured, event)
			return nil
		},
	})).Required()
	t.Cleanup(func() { sentry.CurrentHub().BindClient(nil) })

	err := goerr.New("kubectl failed", goerr.V("namespace", "payments"))
	errutil.Handle(context.Background(), err, "prr check failed")

	gt.Array(t, captured).Length(1).Required()
	gt.Value(t, captured[0].Tags["message"]).Equal("prr check failed")
	gt.Value(t, captured[0].Contexts["goerr"]["namespace"]).Equal(any("payments"))
}
