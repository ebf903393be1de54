package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/errors"
)

// Obligation types.
const (
	TypeOneTime   = "one_time"
	TypeRecurring = "recurring"
)

// Obligation statuses. Closed is terminal except for an explicit reopen.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// DueDateLayout is the wire format for due dates.
const DueDateLayout = "2006-01-02"

// Obligation is a tracked amount owed by a named person to the user.
type Obligation struct {
	// ID is a ULID that uniquely identifies this obligation
	ID string `json:"id"`

	// Person is the counterparty name exactly as provided. The ledger does
	// not normalize or deduplicate names; case and spelling variants are
	// distinct identities.
	Person string `json:"person_name"`

	// Type is one_time or recurring
	Type string `json:"type"`

	// TotalAmount is the original obligation amount
	TotalAmount decimal.Decimal `json:"total_amount"`

	// RemainingAmount is what is still owed; starts equal to TotalAmount
	RemainingAmount decimal.Decimal `json:"remaining_amount"`

	// ExpectedPerCycle is the per-cycle recovery rate (recurring only)
	ExpectedPerCycle *decimal.Decimal `json:"expected_per_cycle,omitempty"`

	// Note is a free-text description (e.g. "Petrol charges")
	Note *string `json:"note,omitempty"`

	// DueDate is the target settlement date (one-time) or next-cycle date
	// (recurring), formatted as 2006-01-02
	DueDate *string `json:"due_date,omitempty"`

	// Status is open or closed
	Status string `json:"status"`

	// Version increments on every mutation; used for optimistic locking
	Version int64 `json:"version"`

	// CreatedAt is the Unix timestamp when the obligation was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the obligation was last updated
	UpdatedAt int64 `json:"last_updated_at"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// Open reports whether the obligation is still open.
func (o *Obligation) Open() bool {
	return o.Status == StatusOpen
}

// Validate checks the creation invariants from the lifecycle rules:
// positive total, a counterparty name, and expected_per_cycle present
// if and only if the obligation is recurring.
func (o *Obligation) Validate() error {
	if strings.TrimSpace(o.Person) == "" {
		return errors.NewInvalidRequest("person_name is required")
	}
	if o.Type != TypeOneTime && o.Type != TypeRecurring {
		return errors.NewInvalidRequest("type must be one of: one_time, recurring")
	}
	if !o.TotalAmount.IsPositive() {
		return errors.NewInvalidRequest("total_amount must be positive")
	}
	if o.Type == TypeRecurring {
		if o.ExpectedPerCycle == nil || !o.ExpectedPerCycle.IsPositive() {
			return errors.NewInvalidRequest("expected_per_cycle must be positive for recurring obligations")
		}
	} else if o.ExpectedPerCycle != nil {
		return errors.NewInvalidRequest("expected_per_cycle is only valid for recurring obligations")
	}
	if o.DueDate != nil {
		if _, err := time.Parse(DueDateLayout, *o.DueDate); err != nil {
			return errors.NewInvalidRequest("due_date must be formatted as YYYY-MM-DD")
		}
	}
	return nil
}

// ParseAmount parses a decimal amount string.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.NewInvalidRequest("invalid amount: " + s)
	}
	return d, nil
}
