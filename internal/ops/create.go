package ops

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Person           string
	Type             string // default: one_time
	TotalAmount      decimal.Decimal
	ExpectedPerCycle *decimal.Decimal // required iff Type is recurring
	Note             *string
	DueDate          *string // YYYY-MM-DD
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	Obligation ledger.Obligation `json:"obligation"`
}

// Create opens a new obligation. remaining_amount starts equal to
// total_amount and a creation entry is appended to the history in the same
// transaction.
func Create(database *sql.DB, input CreateInput) (*CreateOutput, error) {
	person, err := validatePerson(input.Person)
	if err != nil {
		return nil, err
	}

	typ := input.Type
	if typ == "" {
		typ = ledger.TypeOneTime
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	o := &ledger.Obligation{
		ID:               id,
		Person:           person,
		Type:             typ,
		TotalAmount:      input.TotalAmount,
		RemainingAmount:  input.TotalAmount,
		ExpectedPerCycle: input.ExpectedPerCycle,
		Note:             input.Note,
		DueDate:          input.DueDate,
		Status:           ledger.StatusOpen,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	entryID, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	amount := o.TotalAmount
	remaining := o.RemainingAmount
	entry := &ledger.Entry{
		ID:             entryID,
		ObligationID:   o.ID,
		Kind:           ledger.EntryCreate,
		Amount:         &amount,
		RemainingAfter: &remaining,
		CreatedAt:      now,
	}

	err = withTx(database, func(tx *sql.Tx) error {
		if err := db.Insert(tx, o); err != nil {
			return err
		}
		return db.InsertEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &CreateOutput{Obligation: *o}, nil
}
