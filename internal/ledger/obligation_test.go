package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/errors"
)

func validObligation() *Obligation {
	return &Obligation{
		ID:              "01HTEST00000000000000000AA",
		Person:          "Rohan",
		Type:            TypeOneTime,
		TotalAmount:     amt("500"),
		RemainingAmount: amt("500"),
		Status:          StatusOpen,
		Version:         1,
	}
}

func TestObligationValidate(t *testing.T) {
	perCycle := amt("1000")

	tests := []struct {
		name    string
		mutate  func(o *Obligation)
		wantErr bool
	}{
		{"valid one_time", func(o *Obligation) {}, false},
		{"valid recurring", func(o *Obligation) {
			o.Type = TypeRecurring
			o.ExpectedPerCycle = &perCycle
		}, false},
		{"missing person", func(o *Obligation) { o.Person = "  " }, true},
		{"unknown type", func(o *Obligation) { o.Type = "weekly" }, true},
		{"zero total", func(o *Obligation) { o.TotalAmount = decimal.Zero }, true},
		{"negative total", func(o *Obligation) { o.TotalAmount = amt("-10") }, true},
		{"recurring without rate", func(o *Obligation) { o.Type = TypeRecurring }, true},
		{"one_time with rate", func(o *Obligation) { o.ExpectedPerCycle = &perCycle }, true},
		{"bad due date", func(o *Obligation) {
			due := "next friday"
			o.DueDate = &due
		}, true},
		{"valid due date", func(o *Obligation) {
			due := "2026-09-15"
			o.DueDate = &due
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validObligation()
			tt.mutate(o)
			err := o.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestObligationOpen(t *testing.T) {
	o := validObligation()
	if !o.Open() {
		t.Error("Open() = false for open obligation")
	}
	o.Status = StatusClosed
	if o.Open() {
		t.Error("Open() = true for closed obligation")
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 2500.50 ")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !d.Equal(amt("2500.50")) {
		t.Errorf("ParseAmount = %s, want 2500.50", d)
	}

	if _, err := ParseAmount("lots"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ParseAmount(lots): err = %v, want INVALID_REQUEST", err)
	}
	if _, err := ParseAmount(""); err == nil {
		t.Error("ParseAmount(empty) = nil, want error")
	}
}
