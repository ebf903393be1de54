package ledger

import "github.com/shopspring/decimal"

// Entry kinds. The history of an obligation is an append-only sequence of
// entries; every mutation writes exactly one entry per changed aspect.
const (
	EntryCreate = "create"
	EntrySettle = "settle"
	EntryEdit   = "edit"
	EntryClose  = "close"
	EntryReopen = "reopen"
)

// Entry is one record in an obligation's audit history.
type Entry struct {
	// ID is a ULID that uniquely identifies this entry
	ID string `json:"id"`

	// ObligationID references the owning obligation
	ObligationID string `json:"obligation_id"`

	// Kind is one of create, settle, edit, close, reopen
	Kind string `json:"kind"`

	// Amount is the transaction amount (create and settle entries)
	Amount *decimal.Decimal `json:"amount,omitempty"`

	// RemainingAfter is the remaining amount after this entry was applied
	RemainingAfter *decimal.Decimal `json:"remaining_after,omitempty"`

	// Field, OldValue, NewValue capture before/after state for edit entries
	Field    *string `json:"field,omitempty"`
	OldValue *string `json:"old_value,omitempty"`
	NewValue *string `json:"new_value,omitempty"`

	// Reason is the mandatory write-off reason on close entries
	Reason *string `json:"reason,omitempty"`

	// Ref is an optional caller-supplied idempotency key; the same ref is
	// never applied twice to one obligation
	Ref *string `json:"ref,omitempty"`

	// CycleVariance is paid minus expected_per_cycle for settlements against
	// recurring obligations; zero means the cycle is on schedule
	CycleVariance *decimal.Decimal `json:"cycle_variance,omitempty"`

	// CreatedAt is the Unix timestamp when the entry was recorded
	CreatedAt int64 `json:"created_at"`
}
