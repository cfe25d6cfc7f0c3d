package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/privacy/cmd/app/commands"
	"github.com/allisson/privacy/internal/app"
	"github.com/allisson/privacy/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-keypair",
			Usage: "Generate an RSA key pair with an encrypted private key",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "size",
					Aliases: []string{"s"},
					Value:   0,
					Usage:   "RSA key size in bits (defaults to RSA_KEY_SIZE)",
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

				keyManager, err := container.KeyManager()
				if err != nil {
					return err
				}

				return commands.RunGenerateKeyPair(
					ctx,
					keyManager,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("size")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "derive-key",
			Usage: "Derive a key from a password using scrypt",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Password to derive from",
				},
				&cli.StringFlag{
					Name:  "salt",
					Usage: "Hex-encoded salt (omit for a random salt)",
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

				keyManager, err := container.KeyManager()
				if err != nil {
					return err
				}

				return commands.RunDeriveKey(
					ctx,
					keyManager,
					commands.DefaultIO().Writer,
					cmd.String("password"),
					cmd.String("salt"),
					cmd.String("format"),
				)
			},
		},
	}
}
