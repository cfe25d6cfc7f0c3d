package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/privacy/cmd/app/commands"
	"github.com/allisson/privacy/internal/app"
	"github.com/allisson/privacy/internal/config"
)

func getCertCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue-certificate",
			Usage: "Issue a signed deletion certificate",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User whose data was deleted",
				},
				&cli.StringFlag{
					Name:     "data-types",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Comma-separated deleted data categories",
				},
				&cli.StringFlag{
					Name:  "jurisdiction",
					Usage: "Legal jurisdiction (defaults to EU)",
				},
				&cli.IntFlag{
					Name:  "expiry-days",
					Value: 0,
					Usage: "Certificate validity in days (defaults to CERT_EXPIRY_DAYS)",
				},
				&cli.BoolFlag{
					Name:  "with-public-key",
					Usage: "Also print the signer's public key for later verification",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				authority, err := container.CertAuthority()
				if err != nil {
					return err
				}
				keyManager, err := container.KeyManager()
				if err != nil {
					return err
				}

				return commands.RunIssueCertificate(
					ctx,
					authority,
					keyManager,
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("data-types"),
					cmd.String("jurisdiction"),
					int(cmd.Int("expiry-days")),
					cmd.Bool("with-public-key"),
				)
			},
		},
		{
			Name:  "verify-certificate",
			Usage: "Verify a deletion certificate",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "certificate",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Path to the certificate JSON",
				},
				&cli.StringFlag{
					Name:  "public-key",
					Usage: "Path to the signer's PEM public key (omit for weak verification)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				authority, err := container.CertAuthority()
				if err != nil {
					return err
				}

				return commands.RunVerifyCertificate(
					ctx,
					authority,
					commands.DefaultIO().Writer,
					cmd.String("certificate"),
					cmd.String("public-key"),
				)
			},
		},
	}
}
