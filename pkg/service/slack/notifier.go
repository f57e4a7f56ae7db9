package slack

import (
	"context"
	"fmt"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier posts PRR summaries to Slack, either through an incoming webhook or
// with a bot token to a channel
type Notifier struct {
	webhookURL string
	api        *slack.Client
	channel    string
	threshold  types.Severity
}

type config struct {
	webhookURL string
	token      string
	channel    string
	apiURL     string
	threshold  types.Severity
}

// Option is a functional option for Notifier configuration
type Option func(*config)

// WithWebhookURL posts to an incoming webhook
func WithWebhookURL(url string) Option {
	return func(c *config) {
		c.webhookURL = url
	}
}

// WithBotToken posts to channel with chat.postMessage
func WithBotToken(token, channel string) Option {
	return func(c *config) {
		c.token = token
		c.channel = channel
	}
}

// WithAPIURL overrides the Slack Web API endpoint used with a bot token
func WithAPIURL(url string) Option {
	return func(c *config) {
		c.apiURL = url
	}
}

// WithThreshold sets the severity at or above which a failure blocks launch
func WithThreshold(threshold types.Severity) Option {
	return func(c *config) {
		c.threshold = threshold
	}
}

// New creates a Notifier. Exactly one of a webhook URL or a bot token with
// channel must be configured.
func New(opts ...Option) (*Notifier, error) {
	cfg := &config{threshold: types.SeverityCritical}
	for _, opt := range opts {
		opt(cfg)
	}

	switch {
	case cfg.webhookURL != "" && cfg.token != "":
		return nil, goerr.New("Slack webhook URL and bot token are mutually exclusive")
	case cfg.webhookURL != "":
		return &Notifier{webhookURL: cfg.webhookURL, threshold: cfg.threshold}, nil
	case cfg.token != "":
		if cfg.channel == "" {
			return nil, goerr.New("Slack channel is required with a bot token")
		}
		var apiOpts []slack.Option
		if cfg.apiURL != "" {
			apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
		}
		return &Notifier{
			api:       slack.New(cfg.token, apiOpts...),
			channel:   cfg.channel,
			threshold: cfg.threshold,
		}, nil
	default:
		return nil, goerr.New("Slack webhook URL or bot token is required")
	}
}

// NotifyPRR posts the summary of report
func (n *Notifier) NotifyPRR(ctx context.Context, report *model.PRRReport) error {
	blocks := BuildPRRBlocks(report, n.threshold)
	text := fallbackText(report, n.threshold)

	if n.webhookURL != "" {
		msg := &slack.WebhookMessage{
			Text:   text,
			Blocks: &slack.Blocks{BlockSet: blocks},
		}
		if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
			return goerr.Wrap(err, "failed to post PRR summary to Slack webhook",
				goerr.V("report_id", report.ID))
		}
		logging.From(ctx).Info("PRR summary posted to Slack", "report_id", report.ID)
		return nil
	}

	_, ts, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post PRR summary to Slack",
			goerr.V("channel", n.channel), goerr.V("report_id", report.ID))
	}
	logging.From(ctx).Info("PRR summary posted to Slack",
		"report_id", report.ID, "channel", n.channel, "ts", ts)
	return nil
}

func fallbackText(report *model.PRRReport, threshold types.Severity) string {
	verdict := "passed"
	if !report.Passed(threshold) {
		verdict = "failed"
	}
	return fmt.Sprintf("PRR %s for %s/%s (%s)", verdict, report.Namespace, report.Deployment, report.Tier)
}
