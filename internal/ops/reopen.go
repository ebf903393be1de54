package ops

import (
	"database/sql"
	"time"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// ReopenInput contains parameters for the Reopen operation.
type ReopenInput struct {
	ID     string
	Reason *string
}

// ReopenOutput contains the result of the Reopen operation.
type ReopenOutput struct {
	Obligation ledger.Obligation `json:"obligation"`
	Entry      ledger.Entry      `json:"entry"`
}

// Reopen is the only transition out of closed. It is treated as a
// creation-equivalent event in the history. A fully settled obligation
// (remaining zero) cannot be reopened directly; correct the total first so
// the remaining-zero-means-closed invariant keeps holding.
func Reopen(database *sql.DB, input ReopenInput) (*ReopenOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	o, err := db.GetByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}
	if o.Open() {
		return nil, errors.NewInvalidRequest("obligation is already open")
	}
	if o.RemainingAmount.IsZero() {
		return nil, errors.NewInvalidEdit(
			"obligation is fully settled; edit total_amount with corrective before reopening")
	}

	expectedVersion := o.Version
	o.Status = ledger.StatusOpen

	entryID, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	remaining := o.RemainingAmount
	entry := &ledger.Entry{
		ID:             entryID,
		ObligationID:   o.ID,
		Kind:           ledger.EntryReopen,
		Amount:         &remaining,
		RemainingAfter: &remaining,
		Reason:         input.Reason,
		CreatedAt:      time.Now().Unix(),
	}

	err = withTx(database, func(tx *sql.Tx) error {
		if err := db.Update(tx, o, expectedVersion); err != nil {
			return err
		}
		return db.InsertEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &ReopenOutput{Obligation: *o, Entry: *entry}, nil
}
