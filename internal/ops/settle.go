package ops

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// SettleInput contains parameters for the Settle operation.
type SettleInput struct {
	ID     string
	Amount decimal.Decimal

	// Ref is an optional idempotency key; applying the same ref to an
	// obligation twice is rejected so a replayed settlement never deducts
	// twice.
	Ref *string
}

// SettleOutput contains the result of the Settle operation.
type SettleOutput struct {
	Obligation ledger.Obligation  `json:"obligation"`
	Entry      ledger.Entry       `json:"entry"`
	Cycle      *ledger.CycleStats `json:"cycle,omitempty"`
}

// Settle applies a payment against an obligation's remaining amount.
// Overpayments are rejected, never clamped; the obligation closes when the
// remaining amount reaches zero. Version conflicts with concurrent writers
// are retried on a fresh read, so no update is ever lost.
func Settle(database *sql.DB, cfg *config.Config, input SettleInput) (*SettleOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, errors.NewInvalidRequest("amount must be positive")
	}

	retries := cfg.SettleRetries
	if retries <= 0 {
		retries = 1
	}

	var out *SettleOutput
	for attempt := 0; attempt < retries; attempt++ {
		var err error
		out, err = settleOnce(database, input)
		if err == nil {
			return out, nil
		}
		// Only a stale-version race is worth retrying; a duplicate ref is a
		// conflict too but re-running it can never succeed.
		if !errors.Is(err, errors.ErrConflict) || isDuplicateRef(err) {
			return nil, err
		}
	}
	return nil, errors.NewConflict("obligation " + input.ID + " kept changing under concurrent settlements")
}

func settleOnce(database *sql.DB, input SettleInput) (*SettleOutput, error) {
	o, err := db.GetByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}
	if !o.Open() {
		return nil, errors.NewInvalidRequest("cannot settle a closed obligation; reopen it first")
	}
	if input.Amount.GreaterThan(o.RemainingAmount) {
		return nil, errors.NewOverpayment(input.Amount.String(), o.RemainingAmount.String())
	}

	expectedVersion := o.Version
	o.RemainingAmount = o.RemainingAmount.Sub(input.Amount)
	if o.RemainingAmount.IsZero() {
		o.Status = ledger.StatusClosed
	}

	entryID, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	amount := input.Amount
	remaining := o.RemainingAmount
	entry := &ledger.Entry{
		ID:             entryID,
		ObligationID:   o.ID,
		Kind:           ledger.EntrySettle,
		Amount:         &amount,
		RemainingAfter: &remaining,
		Ref:            input.Ref,
		CreatedAt:      time.Now().Unix(),
	}
	if o.Type == ledger.TypeRecurring && o.ExpectedPerCycle != nil {
		variance := ledger.CycleVariance(input.Amount, *o.ExpectedPerCycle)
		entry.CycleVariance = &variance
	}

	var settlements int
	err = withTx(database, func(tx *sql.Tx) error {
		if input.Ref != nil {
			exists, err := db.RefExists(tx, o.ID, *input.Ref)
			if err != nil {
				return err
			}
			if exists {
				dup := errors.NewConflict("settlement ref already applied to this obligation")
				dup.Details = map[string]any{"ref": *input.Ref, "duplicate_ref": true}
				return dup
			}
		}
		if err := db.Update(tx, o, expectedVersion); err != nil {
			return err
		}
		if err := db.InsertEntry(tx, entry); err != nil {
			return err
		}
		settlements, err = db.SettlementCount(tx, o.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &SettleOutput{Obligation: *o, Entry: *entry}
	if o.Type == ledger.TypeRecurring && o.ExpectedPerCycle != nil {
		stats := ledger.Cycles(o.RemainingAmount, *o.ExpectedPerCycle, settlements)
		out.Cycle = &stats
	}
	return out, nil
}

// isDuplicateRef distinguishes the duplicate-ref conflict from a version
// conflict; both carry ErrConflict but only the latter is retryable.
func isDuplicateRef(err error) bool {
	kErr, ok := err.(*errors.KhataError)
	if !ok || kErr.Details == nil {
		return false
	}
	dup, _ := kErr.Details["duplicate_ref"].(bool)
	return dup
}
