package ops

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// ResolveInput contains parameters for the Resolve operation.
type ResolveInput struct {
	Person string

	// AmountHint is matched exactly against remaining amounts.
	AmountHint *decimal.Decimal

	// NoteHint is matched as a case-insensitive substring of notes.
	NoteHint *string
}

// ResolveOutput contains the result of the Resolve operation.
type ResolveOutput struct {
	Obligation ledger.Obligation `json:"obligation"`
	Candidates int               `json:"candidates"`
}

// Resolve selects which of a person's open obligations a follow-up action
// ("Anjali paid 1000") applies to. The tie-breakers are deterministic:
// an exact amount match on the remaining amount, then a substring match of
// the note hint. Anything still ambiguous is returned to the caller as an
// error carrying the candidate list; picking the wrong obligation corrupts
// the ledger, so the resolver never guesses.
func Resolve(database *sql.DB, input ResolveInput) (*ResolveOutput, error) {
	person, err := validatePerson(input.Person)
	if err != nil {
		return nil, err
	}

	open, err := db.ListOpen(database, person)
	if err != nil {
		return nil, err
	}

	switch len(open) {
	case 0:
		return nil, errors.NewNoObligation(person)
	case 1:
		return &ResolveOutput{Obligation: open[0], Candidates: 1}, nil
	}

	candidates := open

	if input.AmountHint != nil {
		matched := make([]ledger.Obligation, 0, len(candidates))
		for _, o := range candidates {
			if o.RemainingAmount.Equal(*input.AmountHint) {
				matched = append(matched, o)
			}
		}
		if len(matched) == 1 {
			return &ResolveOutput{Obligation: matched[0], Candidates: len(open)}, nil
		}
		// Several obligations share that exact remainder: narrow the field.
		// No match at all: the hint may be a partial payment, keep everyone.
		if len(matched) > 1 {
			candidates = matched
		}
	}

	if input.NoteHint != nil {
		hint := strings.ToLower(strings.TrimSpace(*input.NoteHint))
		if hint != "" {
			matched := make([]ledger.Obligation, 0, len(candidates))
			for _, o := range candidates {
				if o.Note != nil && strings.Contains(strings.ToLower(*o.Note), hint) {
					matched = append(matched, o)
				}
			}
			if len(matched) == 1 {
				return &ResolveOutput{Obligation: matched[0], Candidates: len(open)}, nil
			}
			if len(matched) > 1 {
				candidates = matched
			}
		}
	}

	return nil, errors.NewAmbiguousObligation(person, candidateDetails(candidates))
}

// candidateDetails summarizes candidates for the ambiguity error payload.
func candidateDetails(obligations []ledger.Obligation) []map[string]any {
	details := make([]map[string]any, len(obligations))
	for i, o := range obligations {
		d := map[string]any{
			"id":               o.ID,
			"type":             o.Type,
			"total_amount":     o.TotalAmount.String(),
			"remaining_amount": o.RemainingAmount.String(),
		}
		if o.Note != nil {
			d["note"] = *o.Note
		}
		if o.DueDate != nil {
			d["due_date"] = *o.DueDate
		}
		details[i] = d
	}
	return details
}
