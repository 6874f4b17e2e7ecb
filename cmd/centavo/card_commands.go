package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

func cardCommands() *cli.Command {
	return &cli.Command{
		Name:  "card",
		Usage: "Card token commands",
		Subcommands: []*cli.Command{
			cardValidateCommand(),
		},
	}
}

func cardValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a card token against the payment gateway",
		ArgsUsage: "CARD_TOKEN",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("card token is required")
			}

			cl := newClient(c)
			result, err := cl.ValidateCard(context.Background(), c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to validate card: %w", err)
			}

			if c.Bool("json") {
				return printJSON(result)
			}

			if result.Valid {
				fmt.Printf("Card is valid (****%s)\n", result.CardToken)
			} else {
				fmt.Println("Card is not valid")
			}
			return nil
		},
	}
}
