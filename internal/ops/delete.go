package ops

import (
	"database/sql"

	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes an obligation. The row and its history stay on disk
// for audit; the obligation just stops appearing in lookups.
func Delete(database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	// Verify it exists (GetByID will return ErrNotFound if not)
	if _, err := db.GetByID(database, input.ID, false); err != nil {
		return nil, err
	}

	if err := db.SoftDelete(database, input.ID); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      input.ID,
	}, nil
}
