package ops

import (
	"testing"

	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

func TestCreate_OneTime(t *testing.T) {
	database := setupDB(t)

	out, err := Create(database, CreateInput{
		Person:      "Rohan",
		TotalAmount: amt("500"),
		Note:        stringPtr("Petrol charges"),
		DueDate:     stringPtr("2026-09-15"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	o := out.Obligation
	if len(o.ID) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(o.ID))
	}
	if o.Type != ledger.TypeOneTime {
		t.Errorf("Type = %q, want one_time (default)", o.Type)
	}
	if !o.RemainingAmount.Equal(amt("500")) {
		t.Errorf("RemainingAmount = %s, want 500 (starts equal to total)", o.RemainingAmount)
	}
	if o.Status != ledger.StatusOpen {
		t.Errorf("Status = %q, want open", o.Status)
	}
	if o.Version != 1 {
		t.Errorf("Version = %d, want 1", o.Version)
	}
}

func TestCreate_Recurring(t *testing.T) {
	database := setupDB(t)

	out, err := Create(database, CreateInput{
		Person:           "Tenant",
		Type:             ledger.TypeRecurring,
		TotalAmount:      amt("5800"),
		ExpectedPerCycle: decPtr("1000"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if out.Obligation.ExpectedPerCycle == nil || !out.Obligation.ExpectedPerCycle.Equal(amt("1000")) {
		t.Errorf("ExpectedPerCycle = %v, want 1000", out.Obligation.ExpectedPerCycle)
	}
}

func TestCreate_WritesCreationEntry(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Anjali", "800")

	got, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(got.History))
	}
	e := got.History[0]
	if e.Kind != ledger.EntryCreate {
		t.Errorf("Kind = %q, want %q", e.Kind, ledger.EntryCreate)
	}
	if e.Amount == nil || !e.Amount.Equal(amt("800")) {
		t.Errorf("entry Amount = %v, want 800", e.Amount)
	}
	if e.RemainingAfter == nil || !e.RemainingAfter.Equal(amt("800")) {
		t.Errorf("entry RemainingAfter = %v, want 800", e.RemainingAfter)
	}
}

func TestCreate_Validation(t *testing.T) {
	database := setupDB(t)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"blank person", CreateInput{Person: "  ", TotalAmount: amt("100")}},
		{"zero total", CreateInput{Person: "Rohan", TotalAmount: amt("0")}},
		{"negative total", CreateInput{Person: "Rohan", TotalAmount: amt("-50")}},
		{"unknown type", CreateInput{Person: "Rohan", Type: "weekly", TotalAmount: amt("100")}},
		{"recurring without rate", CreateInput{Person: "Rohan", Type: ledger.TypeRecurring, TotalAmount: amt("100")}},
		{"one_time with rate", CreateInput{Person: "Rohan", TotalAmount: amt("100"), ExpectedPerCycle: decPtr("10")}},
		{"bad due date", CreateInput{Person: "Rohan", TotalAmount: amt("100"), DueDate: stringPtr("friday")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(database, tt.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("err = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestCreate_TrimsPerson(t *testing.T) {
	database := setupDB(t)

	out, err := Create(database, CreateInput{Person: "  Priya  ", TotalAmount: amt("100")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if out.Obligation.Person != "Priya" {
		t.Errorf("Person = %q, want Priya", out.Obligation.Person)
	}
}
