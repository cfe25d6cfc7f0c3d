package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/privacy/cmd/app/commands"
	"github.com/allisson/privacy/internal/app"
	"github.com/allisson/privacy/internal/config"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "record-audit",
			Usage: "Build an integrity-protected audit record",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "operation",
					Aliases:  []string{"op"},
					Required: true,
					Usage:    "Operation name (e.g., key_generate)",
				},
				&cli.StringFlag{
					Name:  "payload",
					Usage: "JSON payload describing the operation",
				},
				&cli.StringFlag{
					Name:  "user-id",
					Usage: "User identifier (stored hashed)",
				},
				&cli.StringFlag{
					Name:  "severity",
					Usage: "Record severity: info, warning, or critical",
				},
				&cli.StringFlag{
					Name:  "category",
					Usage: "Record category",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recorder, err := container.AuditRecorder()
				if err != nil {
					return err
				}

				return commands.RunRecordAudit(
					ctx,
					recorder,
					commands.DefaultIO().Writer,
					cmd.String("operation"),
					cmd.String("payload"),
					cmd.String("user-id"),
					cmd.String("severity"),
					cmd.String("category"),
				)
			},
		},
		{
			Name:  "verify-audit",
			Usage: "Verify the integrity of a stored audit record",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "record",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Path to the audit record JSON",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recorder, err := container.AuditRecorder()
				if err != nil {
					return err
				}

				return commands.RunVerifyAudit(
					ctx,
					recorder,
					commands.DefaultIO().Writer,
					cmd.String("record"),
				)
			},
		},
	}
}
