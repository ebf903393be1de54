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

// SplitBillInput contains parameters for the SplitBill operation.
type SplitBillInput struct {
	Total   decimal.Decimal
	Persons []string // everyone who owes a share, in listed order

	// Fixed pins contributions for a subset of Persons; the rest split the
	// residual equally.
	Fixed []ledger.Contribution

	// UserIncluded states whether the paying user counts as a split
	// participant. Must be explicit; never inferred.
	UserIncluded bool

	Note    *string
	DueDate *string
}

// SplitBillOutput contains the result of the SplitBill operation.
type SplitBillOutput struct {
	Shares      []ledger.Share      `json:"shares"`
	Obligations []ledger.Obligation `json:"obligations"`
}

// SplitBill turns one bill event into one open obligation per counterparty.
// Either every obligation is created or none are.
func SplitBill(database *sql.DB, cfg *config.Config, input SplitBillInput) (*SplitBillOutput, error) {
	if len(input.Persons) == 0 {
		return nil, errors.NewInvalidSplit("at least one person must share the bill")
	}

	persons := make([]string, 0, len(input.Persons))
	seen := make(map[string]bool, len(input.Persons))
	for _, p := range input.Persons {
		p, err := validatePerson(p)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, errors.NewInvalidSplit("person listed twice: " + p)
		}
		seen[p] = true
		persons = append(persons, p)
	}

	// Fixed contributors must be among the listed persons; the rest share
	// the residual in their listed order.
	fixedFor := make(map[string]bool, len(input.Fixed))
	for _, c := range input.Fixed {
		if !seen[c.Person] {
			return nil, errors.NewInvalidSplit("fixed contribution for unlisted person: " + c.Person)
		}
		if fixedFor[c.Person] {
			return nil, errors.NewInvalidSplit("duplicate fixed contribution for " + c.Person)
		}
		fixedFor[c.Person] = true
	}
	rest := make([]string, 0, len(persons))
	for _, p := range persons {
		if !fixedFor[p] {
			rest = append(rest, p)
		}
	}

	var shares []ledger.Share
	var err error
	if len(input.Fixed) > 0 {
		shares, err = ledger.UnequalSplit(input.Total, input.Fixed, rest, input.UserIncluded, cfg.AmountScale)
	} else {
		shares, err = ledger.EqualSplit(input.Total, persons, input.UserIncluded, cfg.AmountScale)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	obligations := make([]*ledger.Obligation, 0, len(shares))
	entries := make([]*ledger.Entry, 0, len(shares))
	for _, share := range shares {
		// A zero share (fixed at 0, or a zero-total bill) owes nothing.
		if share.Amount.IsZero() {
			continue
		}

		id, err := generateULID()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		entryID, err := generateULID()
		if err != nil {
			return nil, errors.NewInternal(err)
		}

		o := &ledger.Obligation{
			ID:              id,
			Person:          share.Person,
			Type:            ledger.TypeOneTime,
			TotalAmount:     share.Amount,
			RemainingAmount: share.Amount,
			Note:            input.Note,
			DueDate:         input.DueDate,
			Status:          ledger.StatusOpen,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}

		amount := share.Amount
		remaining := share.Amount
		entries = append(entries, &ledger.Entry{
			ID:             entryID,
			ObligationID:   id,
			Kind:           ledger.EntryCreate,
			Amount:         &amount,
			RemainingAfter: &remaining,
			CreatedAt:      now,
		})
		obligations = append(obligations, o)
	}

	err = withTx(database, func(tx *sql.Tx) error {
		for i, o := range obligations {
			if err := db.Insert(tx, o); err != nil {
				return err
			}
			if err := db.InsertEntry(tx, entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &SplitBillOutput{Shares: shares, Obligations: make([]ledger.Obligation, len(obligations))}
	for i, o := range obligations {
		out.Obligations[i] = *o
	}
	return out, nil
}
