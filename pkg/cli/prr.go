package cli

import (
	"context"
	"os"
	"strings"

	"github.com/brendanbecker/ce101/pkg/cli/config"
	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdPRR() *cli.Command {
	return &cli.Command{
		Name:  "prr",
		Usage: "Production readiness review of a Kubernetes Deployment",
		Commands: []*cli.Command{
			cmdPRRCheck(),
			cmdPRRRequirements(),
			cmdPRRChecks(),
		},
	}
}

func requirementsFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "requirements",
		Usage:       "Requirement table (YAML). The built-in table is used when empty",
		Sources:     cli.EnvVars("CE101_REQUIREMENTS"),
		Destination: dst,
	}
}

func cmdPRRCheck() *cli.Command {
	var (
		namespace  string
		deployment string
		tierArg    string
		formatArg  string
		failOnArg  string
		reqPath    string
		docsDir    string
		grouped    bool
		clusterCfg config.Cluster
		notifyCfg  config.Notify
		storageCfg config.Storage
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "namespace",
			Aliases:     []string{"n"},
			Usage:       "Namespace of the Deployment",
			Value:       "default",
			Destination: &namespace,
		},
		&cli.StringFlag{
			Name:        "deployment",
			Aliases:     []string{"d"},
			Usage:       "Deployment name",
			Required:    true,
			Destination: &deployment,
		},
		&cli.StringFlag{
			Name:        "tier",
			Aliases:     []string{"t"},
			Usage:       "Service tier (1, 2, 3 or tier-N)",
			Required:    true,
			Destination: &tierArg,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Report format (text, json, yaml)",
			Value:       string(types.OutputFormatText),
			Destination: &formatArg,
		},
		&cli.StringFlag{
			Name:        "fail-on",
			Usage:       "Lowest severity whose failure makes the review fail (critical, high, medium, low)",
			Value:       string(types.SeverityLow),
			Sources:     cli.EnvVars("CE101_FAIL_ON"),
			Destination: &failOnArg,
		},
		&cli.StringFlag{
			Name:        "docs-dir",
			Usage:       "Service repository checked for documentation files",
			Value:       ".",
			Sources:     cli.EnvVars("CE101_DOCS_DIR"),
			Destination: &docsDir,
		},
		&cli.BoolFlag{
			Name:        "group",
			Usage:       "List failed checks before passed ones in text output",
			Destination: &grouped,
		},
		requirementsFlag(&reqPath),
	}
	flags = append(flags, clusterCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:  "check",
		Usage: "Run the readiness checks against a Deployment",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			tier, err := types.ParseTier(tierArg)
			if err != nil {
				return goerr.Wrap(err, "invalid --tier")
			}
			format, err := types.ParseOutputFormat(formatArg)
			if err != nil {
				return goerr.Wrap(err, "invalid --format")
			}
			threshold, err := types.ParseSeverity(failOnArg)
			if err != nil {
				return goerr.Wrap(err, "invalid --fail-on")
			}

			table, err := usecase.LoadRequirements(reqPath)
			if err != nil {
				return err
			}

			cluster, err := clusterCfg.Configure()
			if err != nil {
				return err
			}
			notifier, err := notifyCfg.Configure(threshold)
			if err != nil {
				return err
			}
			store, closeStore, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			logging.Default().Debug("PRR configuration",
				"cluster", clusterCfg,
				"notify", notifyCfg,
				"storage", storageCfg,
			)

			uc := usecase.New(
				usecase.WithCluster(cluster),
				usecase.WithNotifier(notifier),
				usecase.WithReportStore(store),
			)

			report, err := uc.PRR.RunChecks(ctx, usecase.PRRInput{
				Namespace:  namespace,
				Deployment: deployment,
				Tier:       tier,
				Table:      table,
				Docs:       os.DirFS(docsDir),
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			var renderOpts []usecase.RenderOption
			if grouped {
				renderOpts = append(renderOpts, usecase.WithGroupedResults())
			}
			if err := usecase.RenderPRR(w, report, format, threshold, renderOpts...); err != nil {
				return err
			}

			location, publishErr := uc.PRR.Publish(ctx, report)
			if location != "" && format == types.OutputFormatText {
				if _, err := w.Write([]byte("Report stored at " + location + "\n")); err != nil {
					return goerr.Wrap(err, "failed to write output")
				}
			}

			if failures := report.Failures(threshold); len(failures) > 0 {
				return goerr.Wrap(usecase.ErrPRRFailed, "blocking checks failed",
					goerr.V(usecase.NamespaceKey, namespace),
					goerr.V(usecase.DeploymentKey, deployment),
					goerr.V("failures", len(failures)))
			}
			return publishErr
		},
	}
}

func cmdPRRRequirements() *cli.Command {
	var tierArg, reqPath string

	return &cli.Command{
		Name:  "requirements",
		Usage: "List the requirement table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "tier",
				Aliases:     []string{"t"},
				Usage:       "Only list requirements enforced for this tier",
				Destination: &tierArg,
			},
			requirementsFlag(&reqPath),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			table, err := usecase.LoadRequirements(reqPath)
			if err != nil {
				return err
			}

			reqs := table.Requirements
			if tierArg != "" {
				tier, err := types.ParseTier(tierArg)
				if err != nil {
					return goerr.Wrap(err, "invalid --tier")
				}
				reqs = table.ForTier(tier)
			}

			p := newPrinter(c.Root().Writer)
			p.printf("%-8s %-8s %-40s %s\n", "ID", "SEVERITY", "TIERS", "NAME")
			for _, req := range reqs {
				p.printf("%-8s %-8s %-40s %s\n", req.ID, req.Severity, tierLevels(&req), req.Name)
			}
			return p.err
		},
	}
}

// tierLevels formats the enforcement level per tier, e.g.
// "tier-1:required,tier-2:recommended". Optional tiers are omitted.
func tierLevels(req *model.Requirement) string {
	if len(req.Tiers) == 0 && len(req.Levels) == 0 {
		return "all"
	}
	var parts []string
	for _, tier := range types.AllTiers() {
		switch level := req.LevelFor(tier); level {
		case types.LevelOptional:
		case types.LevelRequired:
			parts = append(parts, tier.String())
		default:
			parts = append(parts, tier.String()+":"+level.String())
		}
	}
	return strings.Join(parts, ",")
}

func cmdPRRChecks() *cli.Command {
	return &cli.Command{
		Name:  "checks",
		Usage: "List the check names a requirement table can reference",
		Action: func(ctx context.Context, c *cli.Command) error {
			p := newPrinter(c.Root().Writer)
			for _, name := range usecase.DefaultChecks().Names() {
				p.printf("%s\n", name)
			}
			return p.err
		},
	}
}
