package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check service health",
		Action: func(c *cli.Context) error {
			cl := newClient(c)
			if err := cl.Health(context.Background()); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Println("OK")
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print CLI version information",
		Action: func(c *cli.Context) error {
			fmt.Printf("centavo %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
