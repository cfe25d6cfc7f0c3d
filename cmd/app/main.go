// Package main provides the entry point for the privacy engine CLI.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	var subcommands []*cli.Command
	subcommands = append(subcommands, getEngineCommands()...)
	subcommands = append(subcommands, getKeyCommands()...)
	subcommands = append(subcommands, getPrivacyCommands()...)
	subcommands = append(subcommands, getAuditCommands()...)
	subcommands = append(subcommands, getCertCommands()...)

	cmd := &cli.Command{
		Name:     "privacy",
		Usage:    "Privacy and trust engine",
		Version:  "1.0.0",
		Commands: subcommands,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

// formatFlag is the shared output format flag.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
