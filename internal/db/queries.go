package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so query functions can run
// standalone or inside a transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const obligationColumns = `id, person, type, total_amount, remaining_amount,
	expected_per_cycle, note, due_date, status, version,
	created_at, updated_at, deleted_at`

// Insert stores a new obligation.
func Insert(q DBTX, o *ledger.Obligation) error {
	query := `
		INSERT INTO obligations (
			id, person, type, total_amount, remaining_amount,
			expected_per_cycle, note, due_date, status, version,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := q.Exec(query,
		o.ID, o.Person, o.Type, o.TotalAmount.String(), o.RemainingAmount.String(),
		decimalToNull(o.ExpectedPerCycle), toNullString(o.Note), toNullString(o.DueDate),
		o.Status, o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetByID retrieves an obligation by its ULID.
// If includeDeleted is false, soft-deleted obligations are excluded.
func GetByID(q DBTX, id string, includeDeleted bool) (*ledger.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	row := q.QueryRow(query, id)
	o, err := scanObligation(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return o, nil
}

// List retrieves obligations, newest activity first, optionally filtered by
// person (exact match, no normalization) and/or status.
// Returns the page plus the total match count.
func List(q DBTX, person, status string, limit, offset int) ([]ledger.Obligation, int, error) {
	where := "deleted_at IS NULL"
	args := []any{}
	if person != "" {
		where += " AND person = ?"
		args = append(args, person)
	}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM obligations WHERE " + where
	if err := q.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE ` + where +
		` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := q.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var obligations []ledger.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		obligations = append(obligations, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return obligations, total, nil
}

// ListOpen retrieves every open obligation, unpaginated. Used for per-person
// summaries and disambiguation candidate sets.
func ListOpen(q DBTX, person string) ([]ledger.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations
		WHERE status = ? AND deleted_at IS NULL`
	args := []any{ledger.StatusOpen}
	if person != "" {
		query += " AND person = ?"
		args = append(args, person)
	}
	query += " ORDER BY updated_at DESC, id DESC"

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var obligations []ledger.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		obligations = append(obligations, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return obligations, nil
}

// Update persists mutable fields of an obligation guarded by optimistic
// versioning: the row is only written when its stored version still equals
// expectedVersion. A miss on an existing row means a concurrent writer won
// the race and the caller should re-read and retry.
// On success the struct's Version and UpdatedAt are advanced.
func Update(q DBTX, o *ledger.Obligation, expectedVersion int64) error {
	now := time.Now().Unix()

	query := `
		UPDATE obligations
		SET person = ?, total_amount = ?, remaining_amount = ?,
			expected_per_cycle = ?, note = ?, due_date = ?, status = ?,
			version = ?, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`

	result, err := q.Exec(query,
		o.Person, o.TotalAmount.String(), o.RemainingAmount.String(),
		decimalToNull(o.ExpectedPerCycle), toNullString(o.Note), toNullString(o.DueDate),
		o.Status, expectedVersion+1, now,
		o.ID, expectedVersion,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		// Distinguish a stale version from a missing row.
		if _, getErr := GetByID(q, o.ID, false); getErr != nil {
			return getErr
		}
		return errors.NewConflict("obligation " + o.ID + " was modified concurrently")
	}

	o.Version = expectedVersion + 1
	o.UpdatedAt = now

	return nil
}

// SoftDelete marks an obligation as deleted by setting deleted_at.
func SoftDelete(q DBTX, id string) error {
	now := time.Now().Unix()

	query := `
		UPDATE obligations
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.Exec(query, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// InsertEntry appends a history entry. History is append-only; there is no
// update or delete for entries.
func InsertEntry(q DBTX, e *ledger.Entry) error {
	query := `
		INSERT INTO entries (
			id, obligation_id, kind, amount, remaining_after,
			field, old_value, new_value, reason, ref, cycle_variance, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.Exec(query,
		e.ID, e.ObligationID, e.Kind,
		decimalToNull(e.Amount), decimalToNull(e.RemainingAfter),
		toNullString(e.Field), toNullString(e.OldValue), toNullString(e.NewValue),
		toNullString(e.Reason), toNullString(e.Ref), decimalToNull(e.CycleVariance),
		e.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict("settlement ref already applied to this obligation")
		}
		return errors.NewInternal(err)
	}

	return nil
}

// RefExists reports whether a settlement with the given idempotency ref has
// already been recorded for the obligation.
func RefExists(q DBTX, obligationID, ref string) (bool, error) {
	query := `SELECT 1 FROM entries WHERE obligation_id = ? AND ref = ? LIMIT 1`

	var exists int
	err := q.QueryRow(query, obligationID, ref).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}

	return true, nil
}

// SettlementCount returns the number of settlement entries for an obligation,
// i.e. the cycles elapsed for a recurring obligation.
func SettlementCount(q DBTX, obligationID string) (int, error) {
	query := `SELECT COUNT(*) FROM entries WHERE obligation_id = ? AND kind = ?`

	var count int
	if err := q.QueryRow(query, obligationID, ledger.EntrySettle).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}

	return count, nil
}

// EntriesByObligation returns the full history for an obligation in
// insertion order.
func EntriesByObligation(q DBTX, obligationID string) ([]ledger.Entry, error) {
	query := `
		SELECT id, obligation_id, kind, amount, remaining_after,
			field, old_value, new_value, reason, ref, cycle_variance, created_at
		FROM entries
		WHERE obligation_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := q.Query(query, obligationID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e             ledger.Entry
			amount        sql.NullString
			remaining     sql.NullString
			field         sql.NullString
			oldValue      sql.NullString
			newValue      sql.NullString
			reason        sql.NullString
			ref           sql.NullString
			cycleVariance sql.NullString
		)
		err := rows.Scan(
			&e.ID, &e.ObligationID, &e.Kind, &amount, &remaining,
			&field, &oldValue, &newValue, &reason, &ref, &cycleVariance,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, errors.NewInternal(err)
		}

		if e.Amount, err = nullToDecimal(amount); err != nil {
			return nil, errors.NewInternal(err)
		}
		if e.RemainingAfter, err = nullToDecimal(remaining); err != nil {
			return nil, errors.NewInternal(err)
		}
		if e.CycleVariance, err = nullToDecimal(cycleVariance); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Field = fromNullString(field)
		e.OldValue = fromNullString(oldValue)
		e.NewValue = fromNullString(newValue)
		e.Reason = fromNullString(reason)
		e.Ref = fromNullString(ref)

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return entries, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanObligation scans a single row into an Obligation struct.
func scanObligation(row scanner) (*ledger.Obligation, error) {
	var (
		o           ledger.Obligation
		total       string
		remaining   string
		expected    sql.NullString
		note        sql.NullString
		dueDate     sql.NullString
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&o.ID, &o.Person, &o.Type, &total, &remaining,
		&expected, &note, &dueDate, &o.Status, &o.Version,
		&o.CreatedAt, &o.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if o.RemainingAmount, err = decimal.NewFromString(remaining); err != nil {
		return nil, err
	}
	if o.ExpectedPerCycle, err = nullToDecimal(expected); err != nil {
		return nil, err
	}
	o.Note = fromNullString(note)
	o.DueDate = fromNullString(dueDate)
	if deletedAt.Valid {
		o.DeletedAt = &deletedAt.Int64
	}

	return &o, nil
}

// decimalToNull converts an optional decimal to a nullable TEXT column value.
func decimalToNull(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// nullToDecimal converts a nullable TEXT column value to an optional decimal.
func nullToDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
