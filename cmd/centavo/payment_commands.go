package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/brojonat/centavo/client"
	"github.com/itchyny/gojq"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func paymentCommands() *cli.Command {
	return &cli.Command{
		Name:  "payment",
		Usage: "Payment submission and inspection commands",
		Subcommands: []*cli.Command{
			paymentCreateCommand(),
			paymentGetCommand(),
			paymentStatsCommand(),
			paymentHistoryCommand(),
		},
	}
}

// newClient builds an API client from the CLI context's global flags.
func newClient(c *cli.Context) *client.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors to stderr
	}))
	return client.NewClient(c.String("server-url"), nil, logger)
}

func paymentCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Aliases:   []string{"submit"},
		Usage:     "Submit a payment",
		ArgsUsage: "AMOUNT CARD_TOKEN USER_EMAIL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Free-text payment description",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 3 {
				return fmt.Errorf("amount, card token and user email are required")
			}

			amount, err := decimal.NewFromString(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", c.Args().Get(0), err)
			}
			cardToken := c.Args().Get(1)
			userEmail := c.Args().Get(2)

			cl := newClient(c)
			outcome, err := cl.CreatePayment(context.Background(), amount, cardToken, userEmail, c.String("description"))
			if err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}

			if c.Bool("json") {
				return printJSON(outcome)
			}

			fmt.Printf("Payment processed\n")
			fmt.Printf("  Transaction ID: %s\n", outcome.TransactionID)
			fmt.Printf("  Amount:         %s\n", outcome.Amount.StringFixed(2))
			fmt.Printf("  Timestamp:      %s\n", outcome.Timestamp)
			if outcome.Message != "" {
				fmt.Printf("  Message:        %s\n", outcome.Message)
			}
			return nil
		},
	}
}

func paymentGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Retrieve a transaction by id",
		ArgsUsage: "TRANSACTION_ID",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("transaction id is required")
			}

			cl := newClient(c)
			txn, err := cl.GetPayment(context.Background(), c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to get payment: %w", err)
			}

			if c.Bool("json") {
				return printJSON(txn)
			}

			printTransaction(txn)
			return nil
		},
	}
}

func paymentStatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregate payment statistics",
		Action: func(c *cli.Context) error {
			cl := newClient(c)
			stats, err := cl.Stats(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			if c.Bool("json") {
				return printJSON(stats)
			}

			fmt.Printf("Total:          %d\n", stats.Total)
			fmt.Printf("Successful:     %d\n", stats.Successful)
			fmt.Printf("Failed:         %d\n", stats.Failed)
			fmt.Printf("Total amount:   %s\n", stats.TotalAmount.StringFixed(2))
			fmt.Printf("Average amount: %s\n", stats.AverageAmount.StringFixed(2))
			fmt.Printf("Success rate:   %s%%\n", stats.SuccessRate.StringFixed(2))
			return nil
		},
	}
}

func paymentHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded transactions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user-email",
				Aliases: []string{"u"},
				Usage:   "Filter by user email",
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Value:   1,
				Usage:   "Page number",
			},
			&cli.IntFlag{
				Name:  "per-page",
				Value: 10,
				Usage: "Transactions per page",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter transactions must satisfy (can be repeated)",
			},
		},
		Action: func(c *cli.Context) error {
			jqFilters := c.StringSlice("jq")

			// Compile jq filters
			compiledJQFilters := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiledJQFilters[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			cl := newClient(c)
			transactions, pagination, err := cl.History(context.Background(), client.HistoryOptions{
				UserEmail: c.String("user-email"),
				Page:      c.Int("page"),
				PerPage:   c.Int("per-page"),
			})
			if err != nil {
				return fmt.Errorf("failed to get history: %w", err)
			}

			// Apply jq filters locally; a transaction is kept only if every
			// filter evaluates truthy against its JSON form.
			if len(compiledJQFilters) > 0 {
				filtered := make([]client.Transaction, 0, len(transactions))
				for _, txn := range transactions {
					if matchesFilters(txn, compiledJQFilters) {
						filtered = append(filtered, txn)
					}
				}
				transactions = filtered
			}

			if c.Bool("json") {
				return printJSON(map[string]interface{}{
					"transactions": transactions,
					"pagination":   pagination,
				})
			}

			fmt.Printf("Page %d of %d (%d total transactions)\n\n", pagination.Page, pagination.TotalPages, pagination.Total)
			for i := range transactions {
				printTransaction(&transactions[i])
				fmt.Println()
			}
			return nil
		},
	}
}

// matchesFilters evaluates the transaction's JSON form against every compiled
// jq filter; all must produce a truthy result.
func matchesFilters(txn client.Transaction, filters []*gojq.Code) bool {
	data, err := json.Marshal(txn)
	if err != nil {
		return false
	}
	var txnJSON interface{}
	if err := json.Unmarshal(data, &txnJSON); err != nil {
		return false
	}

	for _, code := range filters {
		iter := code.Run(txnJSON)
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		if !isTruthy(v) {
			return false
		}
	}
	return true
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}

func printTransaction(txn *client.Transaction) {
	fmt.Printf("Transaction %s\n", txn.ID)
	fmt.Printf("  Status:      %s\n", txn.Status)
	fmt.Printf("  Amount:      %s\n", txn.Amount.StringFixed(2))
	fmt.Printf("  User:        %s\n", txn.UserEmail)
	fmt.Printf("  Card:        ****%s\n", txn.CardLastFour)
	fmt.Printf("  Timestamp:   %s\n", txn.Timestamp)
	fmt.Printf("  ReceiptSent: %t\n", txn.ReceiptSent)
	if txn.ReceiptError != "" {
		fmt.Printf("  ReceiptErr:  %s\n", txn.ReceiptError)
	}
	if txn.Description != "" {
		fmt.Printf("  Description: %s\n", txn.Description)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
