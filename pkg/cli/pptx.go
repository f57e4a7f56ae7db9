package cli

import (
	"context"

	"github.com/brendanbecker/ce101/pkg/cli/config"
	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// ErrMissingArgument is returned when a command is run without its file argument
var ErrMissingArgument = goerr.New("missing argument")

func cmdPPTX() *cli.Command {
	return &cli.Command{
		Name:  "pptx",
		Usage: "Inspect and combine PowerPoint presentations",
		Commands: []*cli.Command{
			cmdPPTXText(),
			cmdPPTXShapes(),
			cmdPPTXUnicode(),
			cmdPPTXCombine(),
		},
	}
}

func fileArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", goerr.Wrap(ErrMissingArgument, "exactly one presentation file is required",
			goerr.V("args", c.Args().Slice()))
	}
	return c.Args().First(), nil
}

func cmdPPTXText() *cli.Command {
	return &cli.Command{
		Name:      "text",
		Usage:     "Print the text of every slide file",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}
			return usecase.New().PPTX.ExtractText(ctx, c.Root().Writer, path)
		},
	}
}

func cmdPPTXShapes() *cli.Command {
	return &cli.Command{
		Name:      "shapes",
		Usage:     "Print the text of every shape in presentation order",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}
			return usecase.New().PPTX.ListShapes(ctx, c.Root().Writer, path)
		},
	}
}

func cmdPPTXUnicode() *cli.Command {
	return &cli.Command{
		Name:      "unicode",
		Usage:     "Report emoji and broken characters in slide text",
		ArgsUsage: "FILE...",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.Wrap(ErrMissingArgument, "at least one presentation file is required")
			}
			return usecase.New().PPTX.AnalyzeFiles(ctx, c.Root().Writer, c.Args().Slice())
		},
	}
}

func cmdPPTXCombine() *cli.Command {
	var planPath string

	return &cli.Command{
		Name:  "combine",
		Usage: "Merge slides of several presentations into one deck",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "plan",
				Aliases:     []string{"p"},
				Usage:       "Combine plan (TOML)",
				Required:    true,
				Destination: &planPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			plan, err := config.LoadCombinePlan(planPath)
			if err != nil {
				return err
			}

			result, err := usecase.New().PPTX.Combine(ctx, plan)
			if result != nil {
				p := newPrinter(c.Root().Writer)
				for _, f := range result.Failures {
					if f.Slide > 0 {
						p.printf("✗ %s slide %d: %v\n", f.Source, f.Slide, f.Err)
					} else {
						p.printf("✗ %s: %v\n", f.Source, f.Err)
					}
				}
				p.printf("Combined %d slides and %d dividers into %s\n", result.Slides, result.Dividers, result.Output)
				if p.err != nil {
					return p.err
				}
			}
			return err
		},
	}
}
