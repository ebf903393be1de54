package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Amounts cross the tool boundary as decimal strings ("2500", "1066.67")
// so nothing is ever squeezed through a float.

var addToolDef = mcp.NewTool("ledger_add",
	mcp.WithDescription("Create a new obligation: a named person owes the user an amount, one-time or recurring."),
	mcp.WithString("person", mcp.Required(), mcp.Description("Counterparty name, taken verbatim")),
	mcp.WithString("amount", mcp.Required(), mcp.Description("Obligation amount as a decimal string")),
	mcp.WithString("type", mcp.Description("one_time (default) or recurring")),
	mcp.WithString("expected_per_cycle", mcp.Description("Expected recovery per cycle; required for recurring")),
	mcp.WithString("note", mcp.Description("Free-text description, e.g. 'Petrol charges'")),
	mcp.WithString("due_date", mcp.Description("Target settlement date, YYYY-MM-DD")),
)

var splitToolDef = mcp.NewTool("ledger_split",
	mcp.WithDescription("Split one bill into per-person obligations, equally or with fixed contributions. "+
		"Set user_included when the paying user shared the expense; the ledger never infers it."),
	mcp.WithString("total", mcp.Required(), mcp.Description("Bill total as a decimal string")),
	mcp.WithArray("persons", mcp.Required(),
		mcp.Description("Everyone who owes a share, excluding the paying user"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("fixed",
		mcp.Description("Fixed contributions: objects with person and amount; the rest split the residual equally"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"person": map[string]any{"type": "string"},
				"amount": map[string]any{"type": "string"},
			},
			"required": []string{"person", "amount"},
		})),
	mcp.WithBoolean("user_included", mcp.Description("Whether the paying user counts as a split participant")),
	mcp.WithString("note", mcp.Description("Free-text description for every created obligation")),
	mcp.WithString("due_date", mcp.Description("Target settlement date, YYYY-MM-DD")),
)

var settleToolDef = mcp.NewTool("ledger_settle",
	mcp.WithDescription("Record a payment against an obligation. Address it by id, or by person to have the "+
		"ledger pick among their open obligations (the amount and note act as disambiguation hints). "+
		"Overpayments are rejected, never clamped."),
	mcp.WithString("id", mcp.Description("Obligation ULID")),
	mcp.WithString("person", mcp.Description("Counterparty name, when no id is known")),
	mcp.WithString("amount", mcp.Required(), mcp.Description("Payment amount as a decimal string")),
	mcp.WithString("note", mcp.Description("Disambiguation hint matched against obligation notes")),
	mcp.WithString("ref", mcp.Description("Idempotency key; the same ref is never applied twice")),
)

var editToolDef = mcp.NewTool("ledger_edit",
	mcp.WithDescription("Edit an obligation's terms. Changing total_amount shifts remaining_amount by the "+
		"same delta. Address by id, or by person for resolution among open obligations."),
	mcp.WithString("id", mcp.Description("Obligation ULID")),
	mcp.WithString("person", mcp.Description("Counterparty name, when no id is known")),
	mcp.WithString("new_person", mcp.Description("Rename the counterparty")),
	mcp.WithString("total_amount", mcp.Description("New total amount")),
	mcp.WithString("expected_per_cycle", mcp.Description("New per-cycle rate (recurring only)")),
	mcp.WithString("note", mcp.Description("New note text")),
	mcp.WithString("note_hint", mcp.Description("Disambiguation hint when addressing by person")),
	mcp.WithString("due_date", mcp.Description("New due date, YYYY-MM-DD")),
	mcp.WithBoolean("corrective", mcp.Description("Allow editing a closed obligation")),
)

var closeToolDef = mcp.NewTool("ledger_close",
	mcp.WithDescription("Force-close an obligation regardless of its remaining amount (a write-off). "+
		"The reason is recorded in the audit trail."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Obligation ULID")),
	mcp.WithString("reason", mcp.Required(), mcp.Description("Why the obligation is being written off")),
)

var reopenToolDef = mcp.NewTool("ledger_reopen",
	mcp.WithDescription("Reopen a force-closed obligation that still has money outstanding."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Obligation ULID")),
	mcp.WithString("reason", mcp.Description("Why the obligation is being reopened")),
)

var deleteToolDef = mcp.NewTool("ledger_delete",
	mcp.WithDescription("Soft-delete an obligation. The record and its history stay on disk for audit."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Obligation ULID")),
)

var getToolDef = mcp.NewTool("ledger_get",
	mcp.WithDescription("Fetch one obligation with its full history and, for recurring obligations, the cycle projection."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Obligation ULID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted obligations")),
)

var listToolDef = mcp.NewTool("ledger_list",
	mcp.WithDescription("List obligations, newest activity first, optionally filtered by person and status."),
	mcp.WithString("person", mcp.Description("Exact counterparty name")),
	mcp.WithString("status", mcp.Description("open or closed")),
	mcp.WithNumber("limit", mcp.Description("Maximum items to return (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var summaryToolDef = mcp.NewTool("ledger_summary",
	mcp.WithDescription("Outstanding amounts grouped by person: who owes how much in total, biggest first."),
)

var applyToolDef = mcp.NewTool("ledger_apply",
	mcp.WithDescription("Apply a fully parsed intent in one call: add, settle, edit, delete, or query. "+
		"Intents flagged ambiguous are rejected with the clarifying question; the ledger never guesses."),
	mcp.WithObject("intent", mcp.Required(),
		mcp.Description("Structured intent from the natural-language parser"),
		mcp.Properties(map[string]any{
			"action":  map[string]any{"type": "string", "enum": []string{"add", "settle", "edit", "delete", "query"}},
			"persons": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"amount":  map[string]any{"type": "string", "description": "Per-person amount as a decimal string"},
			"obligation_type":    map[string]any{"type": "string", "enum": []string{"one_time", "recurring"}},
			"expected_per_cycle": map[string]any{"type": "string"},
			"note":               map[string]any{"type": "string"},
			"due_date":           map[string]any{"type": "string"},
			"split": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total": map[string]any{"type": "string"},
					"fixed": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"person": map[string]any{"type": "string"},
								"amount": map[string]any{"type": "string"},
							},
						},
					},
					"user_included": map[string]any{"type": "boolean"},
				},
			},
			"is_ambiguous":        map[string]any{"type": "boolean"},
			"clarifying_question": map[string]any{"type": "string"},
		})),
)
