package slack

import (
	"fmt"
	"strings"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/slack-go/slack"
)

// maxListedFailures caps the failures listed in one message
const maxListedFailures = 10

// BuildPRRBlocks constructs the Block Kit message for a PRR report
func BuildPRRBlocks(report *model.PRRReport, threshold types.Severity) []slack.Block {
	header := ":white_check_mark: PRR passed"
	if !report.Passed(threshold) {
		header = ":x: PRR failed"
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType,
				fmt.Sprintf("%s: %s/%s", header, report.Namespace, report.Deployment), true, false),
		),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Tier*\n%s", report.Tier), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Passed*\n%d / %d", report.Summary.Passed, report.Summary.Total), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Failed*\n%d", report.Summary.Failed), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Errors*\n%d", report.Summary.Errored), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Warnings*\n%d", report.Summary.Warned), false, false),
		}, nil),
	}

	var failures []model.CheckResult
	for _, res := range report.Results {
		if res.Status.IsFailure() || res.Status == types.CheckStatusWarn {
			failures = append(failures, res)
		}
	}

	if len(failures) > 0 {
		lines := make([]string, 0, min(len(failures), maxListedFailures)+1)
		for i, res := range failures {
			if i == maxListedFailures {
				lines = append(lines, fmt.Sprintf("_and %d more_", len(failures)-maxListedFailures))
				break
			}
			var marker string
			switch {
			case res.Status == types.CheckStatusWarn:
				marker = ":large_yellow_circle:"
			case res.Severity.AtLeast(threshold):
				marker = ":rotating_light:"
			default:
				marker = ":warning:"
			}
			lines = append(lines, fmt.Sprintf("%s `%s` *%s* (%s): %s", marker, res.RequirementID, res.Name, res.Severity, res.Message))
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, strings.Join(lines, "\n"), false, false),
			nil, nil,
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("Report %s  |  Blocking at %s and above", report.ID, threshold), false, false),
	))

	return blocks
}
