package config

import (
	"log/slog"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Notify holds Slack notification configuration for PRR results
type Notify struct {
	webhookURL string
	botToken   string
	channel    string
}

// Flags returns CLI flags for Slack notification
func (n *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL to post the PRR summary to",
			Category:    "Slack",
			Sources:     cli.EnvVars("CE101_SLACK_WEBHOOK_URL"),
			Destination: &n.webhookURL,
		},
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack bot token used with --slack-channel",
			Category:    "Slack",
			Sources:     cli.EnvVars("CE101_SLACK_BOT_TOKEN"),
			Destination: &n.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID to post the PRR summary to",
			Category:    "Slack",
			Sources:     cli.EnvVars("CE101_SLACK_CHANNEL"),
			Destination: &n.channel,
		},
	}
}

// LogValue implements slog.LogValuer
func (n Notify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("webhook", n.webhookURL != ""),
		slog.Int("bot-token.len", len(n.botToken)),
		slog.String("channel", n.channel),
	)
}

// IsConfigured returns true if any Slack destination is set
func (n *Notify) IsConfigured() bool {
	return n.webhookURL != "" || n.botToken != ""
}

// Configure returns the notifier, or nil when Slack is not configured
func (n *Notify) Configure(threshold types.Severity) (interfaces.Notifier, error) {
	if !n.IsConfigured() {
		return nil, nil
	}

	opts := []slack.Option{slack.WithThreshold(threshold)}
	if n.webhookURL != "" {
		opts = append(opts, slack.WithWebhookURL(n.webhookURL))
	}
	if n.botToken != "" {
		opts = append(opts, slack.WithBotToken(n.botToken, n.channel))
	}
	notifier, err := slack.New(opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure Slack notifier")
	}
	return notifier, nil
}
