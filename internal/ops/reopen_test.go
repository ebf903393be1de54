package ops

import (
	"testing"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

func TestReopen_AfterWriteOff(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Rohan", "500")
	if _, err := Close(database, CloseInput{ID: id, Reason: "written off"}); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out, err := Reopen(database, ReopenInput{ID: id, Reason: stringPtr("he never fixed the bike")})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if out.Obligation.Status != ledger.StatusOpen {
		t.Errorf("Status = %q, want open", out.Obligation.Status)
	}
	if !out.Obligation.RemainingAmount.Equal(amt("500")) {
		t.Errorf("RemainingAmount = %s, want 500 (untouched by close/reopen)", out.Obligation.RemainingAmount)
	}
	if out.Entry.Kind != ledger.EntryReopen {
		t.Errorf("entry Kind = %q, want %q", out.Entry.Kind, ledger.EntryReopen)
	}
}

func TestReopen_AlreadyOpen(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Rohan", "500")
	_, err := Reopen(database, ReopenInput{ID: id})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestReopen_FullySettledRejected(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")
	if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("500")}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	// Reopening at zero remaining would break remaining-zero-means-closed;
	// the caller must correct the total first.
	_, err := Reopen(database, ReopenInput{ID: id})
	if !errors.Is(err, errors.ErrInvalidEdit) {
		t.Fatalf("err = %v, want INVALID_EDIT", err)
	}

	// The documented path: corrective edit raises the total, then reopen.
	if _, err := Edit(database, EditInput{ID: id, TotalAmount: decPtr("600"), Corrective: true}); err != nil {
		t.Fatalf("corrective Edit failed: %v", err)
	}
	out, err := Reopen(database, ReopenInput{ID: id})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if !out.Obligation.RemainingAmount.Equal(amt("100")) {
		t.Errorf("RemainingAmount = %s, want 100", out.Obligation.RemainingAmount)
	}
}

func TestReopen_NotFound(t *testing.T) {
	database := setupDB(t)

	_, err := Reopen(database, ReopenInput{ID: "01HNOPE00000000000000000AA"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
