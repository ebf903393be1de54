package ops

import (
	"database/sql"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Person string // optional; exact match
	Status string // optional; open|closed
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []ledger.Obligation `json:"items"`
	Pagination Pagination          `json:"pagination"`
	Sort       string              `json:"sort"`
}

// List retrieves obligations with pagination, newest activity first,
// optionally filtered by person and/or status.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	if input.Status != "" && input.Status != ledger.StatusOpen && input.Status != ledger.StatusClosed {
		return nil, errors.NewInvalidRequest("status must be one of: open, closed")
	}

	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	items, total, err := db.List(database, input.Person, input.Status, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []ledger.Obligation{}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}
