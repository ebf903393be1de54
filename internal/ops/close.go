package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// CloseInput contains parameters for the Close operation.
type CloseInput struct {
	ID     string
	Reason string // required; recorded on the audit entry
}

// CloseOutput contains the result of the Close operation.
type CloseOutput struct {
	Obligation ledger.Obligation `json:"obligation"`
	Entry      ledger.Entry      `json:"entry"`
}

// Close force-closes an obligation regardless of its remaining amount (an
// explicit write-off). The remaining amount is left untouched; closing with
// a non-zero remainder is only possible through this operation, and the
// reason lands in the audit trail.
func Close(database *sql.DB, input CloseInput) (*CloseOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, errors.NewInvalidRequest("a reason is required to close an obligation with money outstanding")
	}

	o, err := db.GetByID(database, input.ID, false)
	if err != nil {
		return nil, err
	}
	if !o.Open() {
		return nil, errors.NewInvalidRequest("obligation is already closed")
	}

	expectedVersion := o.Version
	o.Status = ledger.StatusClosed

	entryID, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	remaining := o.RemainingAmount
	entry := &ledger.Entry{
		ID:             entryID,
		ObligationID:   o.ID,
		Kind:           ledger.EntryClose,
		RemainingAfter: &remaining,
		Reason:         &reason,
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

	return &CloseOutput{Obligation: *o, Entry: *entry}, nil
}
