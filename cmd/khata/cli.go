package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
	"github.com/nkhandelwal/khata/internal/ops"
	"github.com/nkhandelwal/khata/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "khata",
		Usage:   "Personal obligation ledger",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(db),
			splitCmd(db, cfg),
			settleCmd(db, cfg),
			editCmd(db),
			closeCmd(db),
			reopenCmd(db),
			deleteCmd(db),
			showCmd(db),
			listCmd(db),
			summaryCmd(db),
			applyCmd(db, cfg),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Record that a person owes you an amount",
		ArgsUsage: "<person>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Required: true, Usage: "Obligation amount"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Obligation type: one_time|recurring"},
			&cli.StringFlag{Name: "per-cycle", Usage: "Expected recovery per cycle (recurring only)"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Free-text description"},
			&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "Due date, YYYY-MM-DD"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("person is required"))
			}

			amount, err := ledger.ParseAmount(c.String("amount"))
			if err != nil {
				return outputError(err)
			}

			input := ops.CreateInput{
				Person:      c.Args().First(),
				Type:        c.String("type"),
				TotalAmount: amount,
			}

			if s := c.String("per-cycle"); s != "" {
				d, err := ledger.ParseAmount(s)
				if err != nil {
					return outputError(err)
				}
				input.ExpectedPerCycle = &d
			}
			if note := c.String("note"); note != "" {
				input.Note = &note
			}
			if due := c.String("due"); due != "" {
				input.DueDate = &due
			}

			output, err := ops.Create(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// splitCmd creates the split command.
func splitCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "split",
		Usage: "Split a bill into one obligation per person",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "total", Aliases: []string{"t"}, Required: true, Usage: "Bill total"},
			&cli.StringFlag{Name: "persons", Aliases: []string{"p"}, Required: true, Usage: "Comma-separated people who owe a share"},
			&cli.StringSliceFlag{Name: "fixed", Aliases: []string{"f"}, Usage: "Fixed contribution as person=amount (repeatable)"},
			&cli.BoolFlag{Name: "include-me", Usage: "Count yourself as a split participant"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Free-text description"},
			&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "Due date, YYYY-MM-DD"},
		},
		Action: func(c *cli.Context) error {
			total, err := ledger.ParseAmount(c.String("total"))
			if err != nil {
				return outputError(err)
			}

			fixed, err := parseFixed(c.StringSlice("fixed"))
			if err != nil {
				return outputError(err)
			}

			input := ops.SplitBillInput{
				Total:        total,
				Persons:      parseList(c.String("persons")),
				Fixed:        fixed,
				UserIncluded: c.Bool("include-me"),
			}

			if note := c.String("note"); note != "" {
				input.Note = &note
			}
			if due := c.String("due"); due != "" {
				input.DueDate = &due
			}

			output, err := ops.SplitBill(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// settleCmd creates the settle command.
func settleCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "settle",
		Usage:     "Record a payment against an obligation",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "person", Aliases: []string{"p"}, Usage: "Counterparty name, when no id is given"},
			&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Required: true, Usage: "Payment amount"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Disambiguation hint matched against notes"},
			&cli.StringFlag{Name: "ref", Usage: "Idempotency key; the same ref never applies twice"},
		},
		Action: func(c *cli.Context) error {
			amount, err := ledger.ParseAmount(c.String("amount"))
			if err != nil {
				return outputError(err)
			}

			id, err := resolveTarget(db, c, &amount, optString(c, "note"))
			if err != nil {
				return outputError(err)
			}

			input := ops.SettleInput{
				ID:     id,
				Amount: amount,
			}
			if ref := c.String("ref"); ref != "" {
				input.Ref = &ref
			}

			output, err := ops.Settle(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit an obligation's terms",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "person", Aliases: []string{"p"}, Usage: "Counterparty name, when no id is given"},
			&cli.StringFlag{Name: "rename", Usage: "New counterparty name"},
			&cli.StringFlag{Name: "total", Aliases: []string{"t"}, Usage: "New total amount"},
			&cli.StringFlag{Name: "per-cycle", Usage: "New per-cycle rate (recurring only)"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "New note text"},
			&cli.StringFlag{Name: "note-hint", Usage: "Disambiguation hint when addressing by person"},
			&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "New due date, YYYY-MM-DD"},
			&cli.BoolFlag{Name: "corrective", Usage: "Allow editing a closed obligation"},
		},
		Action: func(c *cli.Context) error {
			id, err := resolveTarget(db, c, nil, optString(c, "note-hint"))
			if err != nil {
				return outputError(err)
			}

			input := ops.EditInput{
				ID:         id,
				Corrective: c.Bool("corrective"),
			}

			if rename := c.String("rename"); rename != "" {
				input.Person = &rename
			}
			if s := c.String("total"); s != "" {
				d, err := ledger.ParseAmount(s)
				if err != nil {
					return outputError(err)
				}
				input.TotalAmount = &d
			}
			if s := c.String("per-cycle"); s != "" {
				d, err := ledger.ParseAmount(s)
				if err != nil {
					return outputError(err)
				}
				input.ExpectedPerCycle = &d
			}
			if note := c.String("note"); note != "" {
				input.Note = &note
			}
			if due := c.String("due"); due != "" {
				input.DueDate = &due
			}

			output, err := ops.Edit(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// closeCmd creates the close command.
func closeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "Write off an obligation regardless of its remaining amount",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Required: true, Usage: "Why it is being written off"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("obligation id is required"))
			}

			output, err := ops.Close(db, ops.CloseInput{
				ID:     c.Args().First(),
				Reason: c.String("reason"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reopenCmd creates the reopen command.
func reopenCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "reopen",
		Usage:     "Reopen a closed obligation that still has money outstanding",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Why it is being reopened"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("obligation id is required"))
			}

			input := ops.ReopenInput{ID: c.Args().First()}
			if reason := c.String("reason"); reason != "" {
				input.Reason = &reason
			}

			output, err := ops.Reopen(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete an obligation",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("obligation id is required"))
			}

			output, err := ops.Delete(db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one obligation with its full history",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted obligations"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("obligation id is required"))
			}

			output, err := ops.Get(db, ops.GetInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List obligations, newest activity first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "person", Aliases: []string{"p"}, Usage: "Filter by exact person name"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status: open|closed"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				Person: c.String("person"),
				Status: c.String("status"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// summaryCmd creates the summary command.
func summaryCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Outstanding amounts grouped by person",
		Action: func(c *cli.Context) error {
			output, err := ops.Summary(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// applyCmd creates the apply command (reads an intent JSON from stdin).
func applyCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply a parsed intent (reads intent JSON from stdin)",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("intent JSON must be piped via stdin"))
			}

			raw, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			var intent ledger.Intent
			if err := json.Unmarshal([]byte(raw), &intent); err != nil {
				return outputError(errors.NewInvalidRequest("invalid intent JSON: " + err.Error()))
			}

			output, err := ops.Apply(db, cfg, intent)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command for the read-only web UI.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7749, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// resolveTarget turns a positional id or --person flag into an obligation id.
func resolveTarget(db *sql.DB, c *cli.Context, amountHint *decimal.Decimal, noteHint *string) (string, error) {
	id := ""
	if c.NArg() > 0 {
		id = c.Args().First()
	}
	person := c.String("person")

	switch {
	case id != "" && person != "":
		return "", errors.NewInvalidRequest("provide either an id or --person, not both")
	case id != "":
		return id, nil
	case person != "":
		resolved, err := ops.Resolve(db, ops.ResolveInput{
			Person:     person,
			AmountHint: amountHint,
			NoteHint:   noteHint,
		})
		if err != nil {
			return "", err
		}
		return resolved.Obligation.ID, nil
	default:
		return "", errors.NewInvalidRequest("either an id or --person is required")
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if kerr, ok := err.(*errors.KhataError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", kerr.Code, kerr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// optString returns a pointer to the flag value if set and non-empty.
func optString(c *cli.Context, name string) *string {
	if s := c.String(name); s != "" {
		return &s
	}
	return nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string, trimming blanks.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseFixed parses repeated person=amount pairs into contributions.
func parseFixed(pairs []string) ([]ledger.Contribution, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fixed := make([]ledger.Contribution, 0, len(pairs))
	for _, pair := range pairs {
		person, amountStr, ok := strings.Cut(pair, "=")
		person = strings.TrimSpace(person)
		if !ok || person == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid --fixed value %q, want person=amount", pair))
		}
		amount, err := ledger.ParseAmount(amountStr)
		if err != nil {
			return nil, err
		}
		fixed = append(fixed, ledger.Contribution{Person: person, Amount: amount})
	}
	return fixed, nil
}
