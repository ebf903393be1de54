package ops

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// EditInput contains parameters for the Edit operation.
// Nil fields are left unchanged.
type EditInput struct {
	ID string

	Person           *string
	TotalAmount      *decimal.Decimal
	ExpectedPerCycle *decimal.Decimal
	Note             *string
	DueDate          *string

	// Corrective allows editing a closed obligation. Closed obligations are
	// otherwise immutable.
	Corrective bool
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	Obligation ledger.Obligation `json:"obligation"`
	Audit      []ledger.Entry    `json:"audit"`
}

// Edit changes the terms of an obligation. Editing total_amount shifts
// remaining_amount by the same delta; an edit that would push the remaining
// amount negative is rejected rather than wrapped or clamped. Every changed
// field appends a before/after audit entry in the same transaction.
func Edit(database *sql.DB, input EditInput) (*EditOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Person == nil && input.TotalAmount == nil && input.ExpectedPerCycle == nil &&
		input.Note == nil && input.DueDate == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	o, err := db.GetByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}
	if !o.Open() && !input.Corrective {
		return nil, errors.NewInvalidEdit("obligation is closed; pass corrective to edit it anyway")
	}

	expectedVersion := o.Version
	now := time.Now().Unix()
	var audit []*ledger.Entry

	appendAudit := func(field, oldValue, newValue string) error {
		id, err := generateULID()
		if err != nil {
			return errors.NewInternal(err)
		}
		remaining := o.RemainingAmount
		audit = append(audit, &ledger.Entry{
			ID:             id,
			ObligationID:   o.ID,
			Kind:           ledger.EntryEdit,
			RemainingAfter: &remaining,
			Field:          &field,
			OldValue:       &oldValue,
			NewValue:       &newValue,
			CreatedAt:      now,
		})
		return nil
	}

	if input.TotalAmount != nil {
		newTotal := *input.TotalAmount
		if !newTotal.IsPositive() {
			return nil, errors.NewInvalidEdit("total_amount must be positive")
		}
		delta := newTotal.Sub(o.TotalAmount)
		newRemaining := o.RemainingAmount.Add(delta)
		if newRemaining.IsNegative() {
			return nil, errors.NewInvalidEdit(
				"reducing total_amount to " + newTotal.String() +
					" would make the remaining amount negative")
		}
		oldTotal := o.TotalAmount
		o.TotalAmount = newTotal
		o.RemainingAmount = newRemaining
		if o.RemainingAmount.IsZero() && o.Open() {
			o.Status = ledger.StatusClosed
		}
		if err := appendAudit("total_amount", oldTotal.String(), newTotal.String()); err != nil {
			return nil, err
		}
	}

	if input.ExpectedPerCycle != nil {
		if o.Type != ledger.TypeRecurring {
			return nil, errors.NewInvalidEdit("expected_per_cycle is only valid for recurring obligations")
		}
		newRate := *input.ExpectedPerCycle
		if !newRate.IsPositive() {
			return nil, errors.NewInvalidEdit("expected_per_cycle must be positive")
		}
		oldRate := ""
		if o.ExpectedPerCycle != nil {
			oldRate = o.ExpectedPerCycle.String()
		}
		o.ExpectedPerCycle = &newRate
		if err := appendAudit("expected_per_cycle", oldRate, newRate.String()); err != nil {
			return nil, err
		}
	}

	if input.Person != nil {
		person, err := validatePerson(*input.Person)
		if err != nil {
			return nil, err
		}
		if person != o.Person {
			old := o.Person
			o.Person = person
			if err := appendAudit("person_name", old, person); err != nil {
				return nil, err
			}
		}
	}

	if input.Note != nil {
		old := ""
		if o.Note != nil {
			old = *o.Note
		}
		note := *input.Note
		o.Note = &note
		if err := appendAudit("note", old, note); err != nil {
			return nil, err
		}
	}

	if input.DueDate != nil {
		if _, err := time.Parse(ledger.DueDateLayout, *input.DueDate); err != nil {
			return nil, errors.NewInvalidRequest("due_date must be formatted as YYYY-MM-DD")
		}
		old := ""
		if o.DueDate != nil {
			old = *o.DueDate
		}
		due := *input.DueDate
		o.DueDate = &due
		if err := appendAudit("due_date", old, due); err != nil {
			return nil, err
		}
	}

	err = withTx(database, func(tx *sql.Tx) error {
		if err := db.Update(tx, o, expectedVersion); err != nil {
			return err
		}
		for _, e := range audit {
			if err := db.InsertEntry(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &EditOutput{Obligation: *o, Audit: make([]ledger.Entry, len(audit))}
	for i, e := range audit {
		out.Audit[i] = *e
	}
	return out, nil
}
