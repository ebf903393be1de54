package ops

import (
	"sync"
	"testing"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

func TestSettle_Partial(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")

	out, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("200")})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if !out.Obligation.RemainingAmount.Equal(amt("300")) {
		t.Errorf("RemainingAmount = %s, want 300", out.Obligation.RemainingAmount)
	}
	if out.Obligation.Status != ledger.StatusOpen {
		t.Errorf("Status = %q, want open (partial payment)", out.Obligation.Status)
	}
	if out.Entry.Kind != ledger.EntrySettle {
		t.Errorf("entry Kind = %q, want %q", out.Entry.Kind, ledger.EntrySettle)
	}
	if out.Entry.RemainingAfter == nil || !out.Entry.RemainingAfter.Equal(amt("300")) {
		t.Errorf("entry RemainingAfter = %v, want 300", out.Entry.RemainingAfter)
	}
}

func TestSettle_ClosesAtZero(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")

	out, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("500")})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if out.Obligation.Status != ledger.StatusClosed {
		t.Errorf("Status = %q, want closed at zero remaining", out.Obligation.Status)
	}
	if !out.Obligation.RemainingAmount.IsZero() {
		t.Errorf("RemainingAmount = %s, want 0", out.Obligation.RemainingAmount)
	}
}

func TestSettle_OverpaymentRejected(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")

	_, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("600")})
	if !errors.Is(err, errors.ErrOverpayment) {
		t.Fatalf("err = %v, want OVERPAYMENT", err)
	}
	kErr := err.(*errors.KhataError)
	if kErr.Details["remaining"] != "500" {
		t.Errorf("Details[remaining] = %v, want 500", kErr.Details["remaining"])
	}

	// The rejected payment changed nothing.
	got, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.RemainingAmount.Equal(amt("500")) {
		t.Errorf("RemainingAmount = %s after rejected overpayment, want 500", got.RemainingAmount)
	}
}

func TestSettle_ClosedRejected(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")
	if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("500")}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	_, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("100")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("settling a closed obligation: err = %v, want INVALID_REQUEST", err)
	}
}

func TestSettle_InvalidAmount(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")

	for _, amount := range []string{"0", "-100"} {
		_, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt(amount)})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("amount %s: err = %v, want INVALID_REQUEST", amount, err)
		}
	}
}

func TestSettle_DuplicateRef(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")

	ref := "upi-2026-08-30-001"
	if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("100"), Ref: &ref}); err != nil {
		t.Fatalf("first Settle failed: %v", err)
	}

	// Replaying the same ref never deducts twice, however many retries the
	// config allows.
	_, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("100"), Ref: &ref})
	if !errors.Is(err, errors.ErrConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	kErr := err.(*errors.KhataError)
	if dup, _ := kErr.Details["duplicate_ref"].(bool); !dup {
		t.Errorf("Details[duplicate_ref] = %v, want true", kErr.Details["duplicate_ref"])
	}

	got, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.RemainingAmount.Equal(amt("400")) {
		t.Errorf("RemainingAmount = %s, want 400 (deducted once)", got.RemainingAmount)
	}
}

func TestSettle_SameRefDifferentObligations(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	a := mustCreate(t, database, "Rohan", "500")
	b := mustCreate(t, database, "Anjali", "500")

	ref := "txn-42"
	if _, err := Settle(database, cfg, SettleInput{ID: a, Amount: amt("100"), Ref: &ref}); err != nil {
		t.Fatalf("Settle a failed: %v", err)
	}
	// Refs are scoped per obligation.
	if _, err := Settle(database, cfg, SettleInput{ID: b, Amount: amt("100"), Ref: &ref}); err != nil {
		t.Fatalf("Settle b with same ref failed: %v", err)
	}
}

func TestSettle_RecurringCycleStats(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	out, err := Create(database, CreateInput{
		Person:           "Tenant",
		Type:             ledger.TypeRecurring,
		TotalAmount:      amt("5800"),
		ExpectedPerCycle: decPtr("1000"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	settled, err := Settle(database, cfg, SettleInput{ID: out.Obligation.ID, Amount: amt("2000")})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if settled.Cycle == nil {
		t.Fatal("Cycle = nil for recurring obligation")
	}
	if settled.Cycle.CyclesElapsed != 1 {
		t.Errorf("CyclesElapsed = %d, want 1", settled.Cycle.CyclesElapsed)
	}
	if settled.Cycle.ProjectedCyclesRemaining != 4 {
		t.Errorf("ProjectedCyclesRemaining = %d, want 4 (ceil 3800/1000)", settled.Cycle.ProjectedCyclesRemaining)
	}
	if settled.Entry.CycleVariance == nil || !settled.Entry.CycleVariance.Equal(amt("1000")) {
		t.Errorf("CycleVariance = %v, want 1000 (paid 2000 against rate 1000)", settled.Entry.CycleVariance)
	}
}

func TestSettle_OneTimeHasNoCycle(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")
	out, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("100")})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if out.Cycle != nil {
		t.Errorf("Cycle = %+v for one_time obligation, want nil", out.Cycle)
	}
	if out.Entry.CycleVariance != nil {
		t.Errorf("CycleVariance = %v for one_time obligation, want nil", out.Entry.CycleVariance)
	}
}

func TestSettle_ConcurrentNoLostUpdates(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()
	// Ten concurrent writers produce long conflict chains; give every
	// settlement enough retries to win eventually.
	cfg.SettleRetries = 50

	id := mustCreate(t, database, "Rohan", "1000")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("100")})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent settle failed: %v", err)
		}
	}

	// Every payment applied exactly once: remaining hit zero and the
	// obligation closed.
	got, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.RemainingAmount.IsZero() {
		t.Errorf("RemainingAmount = %s, want 0", got.RemainingAmount)
	}
	if got.Status != ledger.StatusClosed {
		t.Errorf("Status = %q, want closed", got.Status)
	}

	settles := 0
	for _, e := range got.History {
		if e.Kind == ledger.EntrySettle {
			settles++
		}
	}
	if settles != workers {
		t.Errorf("settle entries = %d, want %d", settles, workers)
	}
	if got.Version != int64(workers+1) {
		t.Errorf("Version = %d, want %d (one bump per settle)", got.Version, workers+1)
	}
}

func TestSettle_NotFound(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	_, err := Settle(database, cfg, SettleInput{ID: "01HNOPE00000000000000000AA", Amount: amt("10")})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
