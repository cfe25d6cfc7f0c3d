package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/privacy/cmd/app/commands"
	"github.com/allisson/privacy/internal/app"
	"github.com/allisson/privacy/internal/config"
)

func getEngineCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "run",
			Usage: "Run the engine with maintenance scheduler and metrics server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunEngine(ctx, cmd.Root().Version)
			},
		},
		{
			Name:  "stats",
			Usage: "Print engine statistics",
			Flags: []cli.Flag{
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunStats(
					ctx,
					container,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
