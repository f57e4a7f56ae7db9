package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/service/slack"
	"github.com/m-mizutani/gt"
	goslack "github.com/slack-go/slack"
)

func sampleReport() *model.PRRReport {
	report := model.NewPRRReport("shop", "checkout", types.Tier1, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	report.Add(model.CheckResult{RequirementID: "REL-001", Name: "Minimum replicas", Severity: types.SeverityCritical, Status: types.CheckStatusFail, Message: "1 replica (minimum 2)"})
	report.Add(model.CheckResult{RequirementID: "OPS-001", Name: "Ownership labels", Severity: types.SeverityLow, Status: types.CheckStatusFail, Message: "missing label(s): team"})
	report.Add(model.CheckResult{RequirementID: "REL-003", Name: "Liveness probe", Severity: types.SeverityHigh, Status: types.CheckStatusPass, Message: "all containers define a liveness probe"})
	return report
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name    string
		opts    []slack.Option
		wantErr bool
	}{
		{name: "webhook", opts: []slack.Option{slack.WithWebhookURL("https://example.com/hook")}},
		{name: "bot token", opts: []slack.Option{slack.WithBotToken("xoxb-test", "C123")}},
		{name: "nothing configured", wantErr: true},
		{name: "token without channel", opts: []slack.Option{slack.WithBotToken("xoxb-test", "")}, wantErr: true},
		{
			name: "both configured",
			opts: []slack.Option{
				slack.WithWebhookURL("https://example.com/hook"),
				slack.WithBotToken("xoxb-test", "C123"),
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := slack.New(tc.opts...)
			if tc.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, n).NotNil()
		})
	}
}

func TestNotifier_Webhook(t *testing.T) {
	var received struct {
		Text   string           `json:"text"`
		Blocks []map[string]any `json:"blocks"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPost)
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := slack.New(slack.WithWebhookURL(srv.URL), slack.WithThreshold(types.SeverityHigh))
	gt.NoError(t, err).Required()
	gt.NoError(t, n.NotifyPRR(context.Background(), sampleReport())).Required()

	gt.Value(t, received.Text).Equal("PRR failed for shop/checkout (tier-1)")
	gt.Array(t, received.Blocks).Length(4).Required()
	gt.Value(t, received.Blocks[0]["type"]).Equal("header")
}

func TestNotifier_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, err := slack.New(slack.WithWebhookURL(srv.URL))
	gt.NoError(t, err).Required()
	gt.Value(t, n.NotifyPRR(context.Background(), sampleReport())).NotNil()
}

func TestNotifier_BotToken(t *testing.T) {
	var channel, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/chat.postMessage")
		gt.NoError(t, r.ParseForm())
		channel = r.Form.Get("channel")
		text = r.Form.Get("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	defer srv.Close()

	n, err := slack.New(
		slack.WithBotToken("xoxb-test", "C123"),
		slack.WithAPIURL(srv.URL+"/"),
	)
	gt.NoError(t, err).Required()
	gt.NoError(t, n.NotifyPRR(context.Background(), sampleReport())).Required()

	gt.Value(t, channel).Equal("C123")
	gt.Value(t, text).Equal("PRR failed for shop/checkout (tier-1)")
}

func TestBuildPRRBlocks(t *testing.T) {
	t.Run("failures listed with blocking marker", func(t *testing.T) {
		blocks := slack.BuildPRRBlocks(sampleReport(), types.SeverityHigh)
		gt.Array(t, blocks).Length(4).Required()

		header, ok := blocks[0].(*goslack.HeaderBlock)
		gt.Bool(t, ok).True()
		gt.Value(t, header.Text.Text).Equal(":x: PRR failed: shop/checkout")

		list, ok := blocks[2].(*goslack.SectionBlock)
		gt.Bool(t, ok).True()
		gt.String(t, list.Text.Text).Contains(":rotating_light: `REL-001` *Minimum replicas* (critical): 1 replica (minimum 2)")
		gt.String(t, list.Text.Text).Contains(":warning: `OPS-001`")
	})

	t.Run("warnings listed without blocking", func(t *testing.T) {
		report := model.NewPRRReport("shop", "cart", types.Tier2, time.Now())
		report.Add(model.CheckResult{RequirementID: "SEC-003", Name: "Network policy", Severity: types.SeverityHigh, Status: types.CheckStatusWarn, Message: "no NetworkPolicy selects the pods"})

		blocks := slack.BuildPRRBlocks(report, types.SeverityHigh)
		gt.Array(t, blocks).Length(4).Required()
		gt.Value(t, blocks[0].(*goslack.HeaderBlock).Text.Text).Equal(":white_check_mark: PRR passed: shop/cart")

		summary := blocks[1].(*goslack.SectionBlock)
		gt.Array(t, summary.Fields).Length(5).Required()
		gt.Value(t, summary.Fields[4].Text).Equal("*Warnings*\n1")

		list := blocks[2].(*goslack.SectionBlock)
		gt.String(t, list.Text.Text).Contains(":large_yellow_circle: `SEC-003` *Network policy* (high)")
	})

	t.Run("passing report has no failure list", func(t *testing.T) {
		report := model.NewPRRReport("shop", "cart", types.Tier3, time.Now())
		report.Add(model.CheckResult{RequirementID: "REL-003", Name: "Liveness probe", Severity: types.SeverityHigh, Status: types.CheckStatusPass})

		blocks := slack.BuildPRRBlocks(report, types.SeverityCritical)
		gt.Array(t, blocks).Length(3).Required()
		header := blocks[0].(*goslack.HeaderBlock)
		gt.Value(t, header.Text.Text).Equal(":white_check_mark: PRR passed: shop/cart")
	})

	t.Run("long failure lists are truncated", func(t *testing.T) {
		report := model.NewPRRReport("shop", "cart", types.Tier1, time.Now())
		for range 12 {
			report.Add(model.CheckResult{RequirementID: "X", Name: "x", Severity: types.SeverityLow, Status: types.CheckStatusFail})
		}
		blocks := slack.BuildPRRBlocks(report, types.SeverityCritical)
		list := blocks[2].(*goslack.SectionBlock)
		gt.String(t, list.Text.Text).Contains("_and 2 more_")
	})
}
