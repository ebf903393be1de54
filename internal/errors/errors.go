package errors

import "fmt"

// ErrorCode represents a Khata error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrInvalidSplit        ErrorCode = "INVALID_SPLIT"        // 400
	ErrOverAllocated       ErrorCode = "OVER_ALLOCATED"       // 400
	ErrInvalidEdit         ErrorCode = "INVALID_EDIT"         // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrNoObligation        ErrorCode = "NO_OBLIGATION"        // 404
	ErrConflict            ErrorCode = "CONFLICT"             // 409 (stale version, duplicate settlement ref)
	ErrAmbiguousObligation ErrorCode = "AMBIGUOUS_OBLIGATION" // 409
	ErrOverpayment         ErrorCode = "OVERPAYMENT"          // 422
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// KhataError represents a structured error with code, status, and details.
type KhataError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *KhataError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *KhataError {
	return &KhataError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidSplit creates a 400 error for impossible split parameters.
func NewInvalidSplit(msg string) *KhataError {
	return &KhataError{
		Code:    ErrInvalidSplit,
		Status:  400,
		Message: msg,
	}
}

// NewOverAllocated creates a 400 error when fixed contributions exceed the bill total.
func NewOverAllocated(fixed, total string) *KhataError {
	return &KhataError{
		Code:    ErrOverAllocated,
		Status:  400,
		Message: fmt.Sprintf("fixed contributions (%s) exceed the bill total (%s)", fixed, total),
		Details: map[string]any{"fixed_sum": fixed, "total": total},
	}
}

// NewInvalidEdit creates a 400 error for an edit that would break ledger invariants.
func NewInvalidEdit(msg string) *KhataError {
	return &KhataError{
		Code:    ErrInvalidEdit,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an obligation cannot be found.
func NewNotFound(id string) *KhataError {
	return &KhataError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("obligation not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewNoObligation creates a 404 error when a person has no open obligations.
// The caller decides whether to treat this as an add or to ask for clarification.
func NewNoObligation(person string) *KhataError {
	return &KhataError{
		Code:    ErrNoObligation,
		Status:  404,
		Message: fmt.Sprintf("no open obligations for %q", person),
		Details: map[string]any{"person": person},
	}
}

// NewConflict creates a 409 error for version conflicts and duplicate settlement refs.
func NewConflict(msg string) *KhataError {
	return &KhataError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewAmbiguousObligation creates a 409 error when several open obligations are
// equally plausible targets. Candidates are carried in Details so the caller
// can ask the user which one was meant; the core never guesses.
func NewAmbiguousObligation(person string, candidates []map[string]any) *KhataError {
	return &KhataError{
		Code:    ErrAmbiguousObligation,
		Status:  409,
		Message: fmt.Sprintf("%d open obligations for %q match; specify which one", len(candidates), person),
		Details: map[string]any{"person": person, "candidates": candidates},
	}
}

// NewOverpayment creates a 422 error when a settlement exceeds the remaining amount.
// Overpayments are rejected for caller confirmation, never silently clamped.
func NewOverpayment(paid, remaining string) *KhataError {
	return &KhataError{
		Code:    ErrOverpayment,
		Status:  422,
		Message: fmt.Sprintf("payment of %s exceeds remaining amount %s", paid, remaining),
		Details: map[string]any{"paid": paid, "remaining": remaining},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *KhataError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &KhataError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a KhataError with the given code.
func Is(err error, code ErrorCode) bool {
	if kErr, ok := err.(*KhataError); ok {
		return kErr.Code == code
	}
	return false
}
