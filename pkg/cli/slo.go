package cli

import (
	"context"

	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSLO() *cli.Command {
	return &cli.Command{
		Name:  "slo",
		Usage: "Generate Sloth SLO specs from templates",
		Commands: []*cli.Command{
			cmdSLOBuild(),
			cmdSLOList(),
			cmdSLOExplain(),
		},
	}
}

func templatesFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "templates",
		Usage:       "SLO template table (YAML). The built-in table is used when empty",
		Sources:     cli.EnvVars("CE101_SLO_TEMPLATES"),
		Destination: dst,
	}
}

func serviceTypeFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "type",
		Usage:       "Service type (api, worker, frontend, batch or a custom type)",
		Required:    true,
		Destination: dst,
	}
}

func tierFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "tier",
		Aliases:     []string{"t"},
		Usage:       "Service tier (1, 2, 3 or tier-N)",
		Required:    true,
		Destination: dst,
	}
}

func cmdSLOBuild() *cli.Command {
	var (
		service   string
		namespace string
		team      string
		typeArg   string
		tierArg   string
		output    string
		force     bool
		templates string
	)

	return &cli.Command{
		Name:  "build",
		Usage: "Render the SLO spec of a service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "service",
				Aliases:     []string{"s"},
				Usage:       "Service name",
				Required:    true,
				Destination: &service,
			},
			&cli.StringFlag{
				Name:        "namespace",
				Aliases:     []string{"n"},
				Usage:       "Kubernetes namespace of the service",
				Required:    true,
				Destination: &namespace,
			},
			&cli.StringFlag{
				Name:        "team",
				Usage:       "Owning team",
				Required:    true,
				Destination: &team,
			},
			serviceTypeFlag(&typeArg),
			tierFlag(&tierArg),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output file, - for stdout. Defaults to <service>-slo.yaml",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "Overwrite an existing output file",
				Destination: &force,
			},
			templatesFlag(&templates),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			tier, err := types.ParseTier(tierArg)
			if err != nil {
				return goerr.Wrap(err, "invalid --tier")
			}
			table, err := usecase.LoadSLOTemplates(templates)
			if err != nil {
				return err
			}

			uc := usecase.New()
			written, err := uc.SLO.Build(ctx, usecase.SLOInput{
				Table:       table,
				Service:     service,
				Namespace:   namespace,
				Team:        team,
				ServiceType: types.ServiceType(typeArg),
				Tier:        tier,
				Output:      output,
				Force:       force,
				Stdout:      c.Root().Writer,
			})
			if err != nil {
				return err
			}

			if written != usecase.StdoutPath {
				p := newPrinter(c.Root().Writer)
				p.printf("Wrote %s\n", written)
				return p.err
			}
			return nil
		},
	}
}

func cmdSLOList() *cli.Command {
	var templates string

	return &cli.Command{
		Name:  "list",
		Usage: "List the available service types and tiers",
		Flags: []cli.Flag{templatesFlag(&templates)},
		Action: func(ctx context.Context, c *cli.Command) error {
			table, err := usecase.LoadSLOTemplates(templates)
			if err != nil {
				return err
			}
			return usecase.New().SLO.List(c.Root().Writer, table)
		},
	}
}

func cmdSLOExplain() *cli.Command {
	var typeArg, tierArg, templates string

	return &cli.Command{
		Name:  "explain",
		Usage: "Show the objectives and error budgets of a template",
		Flags: []cli.Flag{
			serviceTypeFlag(&typeArg),
			tierFlag(&tierArg),
			templatesFlag(&templates),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			tier, err := types.ParseTier(tierArg)
			if err != nil {
				return goerr.Wrap(err, "invalid --tier")
			}
			table, err := usecase.LoadSLOTemplates(templates)
			if err != nil {
				return err
			}
			return usecase.New().SLO.Explain(c.Root().Writer, table, types.ServiceType(typeArg), tier)
		},
	}
}
