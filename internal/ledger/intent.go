package ledger

import "github.com/shopspring/decimal"

// Intent actions as emitted by the external parser. Conversational actions
// (chitchat, off-topic) never reach the ledger; the parser handles those.
const (
	ActionAdd    = "add"
	ActionSettle = "settle"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionQuery  = "query"
)

// Intent is the structured request produced by the natural-language parser.
// The ledger treats it as an immutable input value and never falls back to
// text heuristics of its own.
type Intent struct {
	Action  string   `json:"action"`
	Persons []string `json:"persons"`

	// Amount is the per-person amount: the obligation amount for add, the
	// payment for settle, the new total for edit. For total-based bill
	// splits use Split instead.
	Amount *decimal.Decimal `json:"amount,omitempty"`

	ObligationType   *string          `json:"obligation_type,omitempty"`
	ExpectedPerCycle *decimal.Decimal `json:"expected_per_cycle,omitempty"`
	Note             *string          `json:"note,omitempty"`
	DueDate          *string          `json:"due_date,omitempty"`

	// Split carries a bill total to be divided among Persons.
	Split *SplitSpec `json:"split,omitempty"`

	// IsAmbiguous marks an intent the parser could not fully resolve; the
	// ledger rejects it and passes ClarifyingQuestion back to the caller.
	IsAmbiguous        bool    `json:"is_ambiguous,omitempty"`
	ClarifyingQuestion *string `json:"clarifying_question,omitempty"`
}

// SplitSpec describes how a bill total divides among the intent's persons.
type SplitSpec struct {
	Total decimal.Decimal `json:"total"`

	// Fixed pins contributions for specific persons; everyone else splits
	// the residual equally. Order matters for rounding.
	Fixed []Contribution `json:"fixed,omitempty"`

	// UserIncluded states whether the paying user counts as a participant.
	// This must be explicit in the intent; the ledger never infers it.
	UserIncluded bool `json:"user_included"`
}

// Contribution is a fixed per-person amount inside an unequal split.
type Contribution struct {
	Person string          `json:"person"`
	Amount decimal.Decimal `json:"amount"`
}
