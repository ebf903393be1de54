package ops

import (
	"database/sql"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID             string
	IncludeDeleted bool
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	ledger.Obligation                    // embedded (copy, not pointer)
	History           []ledger.Entry     `json:"history"`
	Cycle             *ledger.CycleStats `json:"cycle,omitempty"`
}

// Get retrieves an obligation with its full history and, for recurring
// obligations, the derived cycle projection.
func Get(database *sql.DB, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	o, err := db.GetByID(database, input.ID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	history, err := db.EntriesByObligation(database, o.ID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []ledger.Entry{}
	}

	out := &GetOutput{
		Obligation: *o,
		History:    history,
	}

	if o.Type == ledger.TypeRecurring && o.ExpectedPerCycle != nil {
		settlements := 0
		for _, e := range history {
			if e.Kind == ledger.EntrySettle {
				settlements++
			}
		}
		stats := ledger.Cycles(o.RemainingAmount, *o.ExpectedPerCycle, settlements)
		out.Cycle = &stats
	}

	return out, nil
}
