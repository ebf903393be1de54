package ops

import (
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nkhandelwal/khata/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// validatePerson trims and validates a counterparty name. Beyond trimming,
// names are taken verbatim: dedup and case folding are a caller concern.
func validatePerson(person string) (string, error) {
	person = strings.TrimSpace(person)
	if person == "" {
		return "", errors.NewInvalidRequest("person_name is required")
	}
	return person, nil
}

// entropy is shared across all id generation so ids mint in strictly
// increasing order within the process. History rows sort by id to break
// same-second created_at ties, which makes entry order insertion order.
var entropy = &ulid.LockedMonotonicReader{
	MonotonicReader: ulid.Monotonic(rand.Reader, 0),
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error. Mutations and their history entries always share one
// transaction so the store is never left partially updated.
func withTx(database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}

	return nil
}
