package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/privacy/cmd/app/commands"
	"github.com/allisson/privacy/internal/app"
	"github.com/allisson/privacy/internal/config"
)

func getPrivacyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "noise",
			Usage: "Add calibrated noise to a scalar value",
			Flags: []cli.Flag{
				&cli.FloatFlag{
					Name:     "value",
					Aliases:  []string{"v"},
					Required: true,
					Usage:    "Value to perturb",
				},
				&cli.StringFlag{
					Name:    "mechanism",
					Aliases: []string{"m"},
					Value:   "laplace",
					Usage:   "Noise mechanism: 'laplace' or 'gaussian'",
				},
				&cli.FloatFlag{
					Name:    "epsilon",
					Aliases: []string{"e"},
					Value:   0,
					Usage:   "Privacy budget (defaults to PRIVACY_EPSILON)",
				},
				&cli.FloatFlag{
					Name:  "delta",
					Value: 0,
					Usage: "Failure probability for the gaussian mechanism",
				},
				&cli.FloatFlag{
					Name:  "sensitivity",
					Value: 0,
					Usage: "Query sensitivity (defaults to PRIVACY_SENSITIVITY)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunNoise(
					ctx,
					container.PrivacyEngine(),
					commands.DefaultIO().Writer,
					cmd.Float("value"),
					cmd.String("mechanism"),
					cmd.Float("epsilon"),
					cmd.Float("delta"),
					cmd.Float("sensitivity"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "aggregate",
			Usage: "Compute a differentially private aggregate over values",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "values",
					Required: true,
					Usage:    "Comma-separated numeric values",
				},
				&cli.StringFlag{
					Name:    "function",
					Aliases: []string{"fn"},
					Value:   "mean",
					Usage:   "Aggregate function: 'sum', 'mean', or 'count'",
				},
				&cli.StringFlag{
					Name:    "mechanism",
					Aliases: []string{"m"},
					Value:   "laplace",
					Usage:   "Noise mechanism: 'laplace' or 'gaussian'",
				},
				&cli.FloatFlag{
					Name:    "epsilon",
					Aliases: []string{"e"},
					Value:   0,
					Usage:   "Privacy budget (defaults to PRIVACY_EPSILON)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunAggregate(
					ctx,
					container.PrivacyEngine(),
					commands.DefaultIO().Writer,
					cmd.String("values"),
					cmd.String("function"),
					cmd.String("mechanism"),
					cmd.Float("epsilon"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "anonymize",
			Usage: "Apply k-anonymity to a JSON dataset",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "input",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Path to a JSON array of records",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Path for the anonymized output (stdout if omitted)",
				},
				&cli.IntFlag{
					Name:  "k",
					Value: 0,
					Usage: "k-anonymity threshold (defaults to K_ANONYMITY_THRESHOLD)",
				},
				&cli.BoolFlag{
					Name:  "suppress",
					Value: false,
					Usage: "Allow suppression of very small groups",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunAnonymize(
					ctx,
					container.PrivacyEngine(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("input"),
					cmd.String("output"),
					int(cmd.Int("k")),
					cmd.Bool("suppress"),
				)
			},
		},
		{
			Name:  "minimize",
			Usage: "Filter a JSON record down to the fields allowed for a purpose",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "record",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "JSON object to minimize",
				},
				&cli.StringFlag{
					Name:     "purpose",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Processing purpose (e.g., analysis, display, storage)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMinimize(
					ctx,
					container.Minimizer(),
					commands.DefaultIO().Writer,
					cmd.String("record"),
					cmd.String("purpose"),
				)
			},
		},
	}
}
