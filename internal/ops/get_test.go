package ops

import (
	"testing"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

func TestGet_HistoryInOrder(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	id := mustCreate(t, database, "Rohan", "500")
	if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("200")}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if _, err := Edit(database, EditInput{ID: id, Note: stringPtr("Petrol charges")}); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	out, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(out.History) != 3 {
		t.Fatalf("len(History) = %d, want 3", len(out.History))
	}
	kinds := []string{out.History[0].Kind, out.History[1].Kind, out.History[2].Kind}
	want := []string{ledger.EntryCreate, ledger.EntrySettle, ledger.EntryEdit}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("History[%d].Kind = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestGet_HistoryOrderUnderRapidMutations(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	// All of these land within the same clock second; history must still
	// come back in insertion order.
	id := mustCreate(t, database, "Rohan", "100")
	for i := 0; i < 9; i++ {
		if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("10")}); err != nil {
			t.Fatalf("Settle %d failed: %v", i, err)
		}
	}

	out, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(out.History) != 10 {
		t.Fatalf("len(History) = %d, want 10", len(out.History))
	}
	if out.History[0].Kind != ledger.EntryCreate {
		t.Fatalf("History[0].Kind = %q, want create", out.History[0].Kind)
	}
	// remaining_after descends 100, 90, ..., 10 when entries are in
	// insertion order.
	want := amt("100")
	for i := 1; i < 10; i++ {
		want = want.Sub(amt("10"))
		e := out.History[i]
		if e.Kind != ledger.EntrySettle {
			t.Errorf("History[%d].Kind = %q, want settle", i, e.Kind)
		}
		if e.RemainingAfter == nil || !e.RemainingAfter.Equal(want) {
			t.Errorf("History[%d].RemainingAfter = %v, want %s", i, e.RemainingAfter, want)
		}
	}
}

func TestGet_RecurringCycle(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	created, err := Create(database, CreateInput{
		Person:           "Tenant",
		Type:             ledger.TypeRecurring,
		TotalAmount:      amt("5800"),
		ExpectedPerCycle: decPtr("1000"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := created.Obligation.ID

	if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("1000")}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if _, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("1000")}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	out, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out.Cycle == nil {
		t.Fatal("Cycle = nil for recurring obligation")
	}
	if out.Cycle.CyclesElapsed != 2 {
		t.Errorf("CyclesElapsed = %d, want 2", out.Cycle.CyclesElapsed)
	}
	if out.Cycle.ProjectedCyclesRemaining != 4 {
		t.Errorf("ProjectedCyclesRemaining = %d, want 4 (3800/1000)", out.Cycle.ProjectedCyclesRemaining)
	}
}

func TestGet_OneTimeNoCycle(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Rohan", "500")
	out, err := Get(database, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out.Cycle != nil {
		t.Errorf("Cycle = %+v for one_time obligation, want nil", out.Cycle)
	}
}

func TestGet_NotFound(t *testing.T) {
	database := setupDB(t)

	_, err := Get(database, GetInput{ID: "01HNOPE00000000000000000AA"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestGet_MissingID(t *testing.T) {
	database := setupDB(t)

	_, err := Get(database, GetInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}
