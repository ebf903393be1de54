package ops

import (
	"database/sql"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// ApplyOutput contains the result of applying an intent.
type ApplyOutput struct {
	Action      string              `json:"action"`
	Obligations []ledger.Obligation `json:"obligations"`
	Entry       *ledger.Entry       `json:"entry,omitempty"`
	Cycle       *ledger.CycleStats  `json:"cycle,omitempty"`
	Deleted     []string            `json:"deleted,omitempty"`
}

// Apply consumes a structured intent from the external parser and routes it
// to the matching ledger operation. The ledger never looks at free text: an
// intent the parser flagged as ambiguous is rejected with the parser's own
// clarifying question, and target selection among multiple open obligations
// goes through Resolve.
func Apply(database *sql.DB, cfg *config.Config, intent ledger.Intent) (*ApplyOutput, error) {
	if intent.IsAmbiguous {
		msg := "intent is ambiguous; clarification required"
		if intent.ClarifyingQuestion != nil && *intent.ClarifyingQuestion != "" {
			msg = *intent.ClarifyingQuestion
		}
		return nil, errors.NewInvalidRequest(msg)
	}

	switch intent.Action {
	case ledger.ActionAdd:
		return applyAdd(database, cfg, intent)
	case ledger.ActionSettle:
		return applySettle(database, cfg, intent)
	case ledger.ActionEdit:
		return applyEdit(database, intent)
	case ledger.ActionDelete:
		return applyDelete(database, intent)
	case ledger.ActionQuery:
		return applyQuery(database, intent)
	default:
		return nil, errors.NewInvalidRequest("unknown action: " + intent.Action)
	}
}

func applyAdd(database *sql.DB, cfg *config.Config, intent ledger.Intent) (*ApplyOutput, error) {
	if len(intent.Persons) == 0 {
		return nil, errors.NewInvalidRequest("add requires at least one person")
	}

	// Total-based bill split: the calculator derives per-person shares.
	if intent.Split != nil {
		out, err := SplitBill(database, cfg, SplitBillInput{
			Total:        intent.Split.Total,
			Persons:      intent.Persons,
			Fixed:        intent.Split.Fixed,
			UserIncluded: intent.Split.UserIncluded,
			Note:         intent.Note,
			DueDate:      intent.DueDate,
		})
		if err != nil {
			return nil, err
		}
		return &ApplyOutput{Action: ledger.ActionAdd, Obligations: out.Obligations}, nil
	}

	// Per-person amount: one obligation per person at the given amount.
	if intent.Amount == nil {
		return nil, errors.NewInvalidRequest("add requires an amount or a split")
	}

	typ := ledger.TypeOneTime
	if intent.ObligationType != nil {
		typ = *intent.ObligationType
	}

	obligations := make([]ledger.Obligation, 0, len(intent.Persons))
	for _, person := range intent.Persons {
		out, err := Create(database, CreateInput{
			Person:           person,
			Type:             typ,
			TotalAmount:      *intent.Amount,
			ExpectedPerCycle: intent.ExpectedPerCycle,
			Note:             intent.Note,
			DueDate:          intent.DueDate,
		})
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, out.Obligation)
	}
	return &ApplyOutput{Action: ledger.ActionAdd, Obligations: obligations}, nil
}

func applySettle(database *sql.DB, cfg *config.Config, intent ledger.Intent) (*ApplyOutput, error) {
	if len(intent.Persons) != 1 {
		return nil, errors.NewInvalidRequest("settle applies to exactly one person")
	}
	if intent.Amount == nil {
		return nil, errors.NewInvalidRequest("settle requires an amount")
	}

	// The payment amount doubles as the amount hint: "Anjali paid 1000"
	// selects the obligation whose remainder is exactly 1000 when several
	// are open.
	resolved, err := Resolve(database, ResolveInput{
		Person:     intent.Persons[0],
		AmountHint: intent.Amount,
		NoteHint:   intent.Note,
	})
	if err != nil {
		return nil, err
	}

	out, err := Settle(database, cfg, SettleInput{
		ID:     resolved.Obligation.ID,
		Amount: *intent.Amount,
	})
	if err != nil {
		return nil, err
	}

	return &ApplyOutput{
		Action:      ledger.ActionSettle,
		Obligations: []ledger.Obligation{out.Obligation},
		Entry:       &out.Entry,
		Cycle:       out.Cycle,
	}, nil
}

func applyEdit(database *sql.DB, intent ledger.Intent) (*ApplyOutput, error) {
	if len(intent.Persons) != 1 {
		return nil, errors.NewInvalidRequest("edit applies to exactly one person")
	}

	// The note serves as a selection hint here, not as the new note text;
	// rewriting a note goes through the edit operation directly by id.
	resolved, err := Resolve(database, ResolveInput{
		Person:   intent.Persons[0],
		NoteHint: intent.Note,
	})
	if err != nil {
		return nil, err
	}

	out, err := Edit(database, EditInput{
		ID:               resolved.Obligation.ID,
		TotalAmount:      intent.Amount,
		ExpectedPerCycle: intent.ExpectedPerCycle,
		DueDate:          intent.DueDate,
	})
	if err != nil {
		return nil, err
	}

	return &ApplyOutput{
		Action:      ledger.ActionEdit,
		Obligations: []ledger.Obligation{out.Obligation},
	}, nil
}

func applyDelete(database *sql.DB, intent ledger.Intent) (*ApplyOutput, error) {
	if len(intent.Persons) != 1 {
		return nil, errors.NewInvalidRequest("delete applies to exactly one person")
	}

	resolved, err := Resolve(database, ResolveInput{
		Person:     intent.Persons[0],
		AmountHint: intent.Amount,
		NoteHint:   intent.Note,
	})
	if err != nil {
		return nil, err
	}

	out, err := Delete(database, DeleteInput{ID: resolved.Obligation.ID})
	if err != nil {
		return nil, err
	}

	return &ApplyOutput{Action: ledger.ActionDelete, Deleted: []string{out.ID}}, nil
}

func applyQuery(database *sql.DB, intent ledger.Intent) (*ApplyOutput, error) {
	if len(intent.Persons) == 0 {
		out, err := List(database, ListInput{Status: ledger.StatusOpen, Limit: MaxListLimit})
		if err != nil {
			return nil, err
		}
		return &ApplyOutput{Action: ledger.ActionQuery, Obligations: out.Items}, nil
	}

	obligations := make([]ledger.Obligation, 0)
	for _, person := range intent.Persons {
		out, err := List(database, ListInput{
			Person: person,
			Status: ledger.StatusOpen,
			Limit:  MaxListLimit,
		})
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, out.Items...)
	}
	return &ApplyOutput{Action: ledger.ActionQuery, Obligations: obligations}, nil
}
