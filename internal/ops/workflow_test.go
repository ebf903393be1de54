package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/db"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
)

// TestFullWorkflow exercises the complete obligation lifecycle:
// create → settle partially → edit → settle to zero → corrective edit →
// reopen → close (write-off) → delete
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()

	// 1. Create
	created, err := Create(database, CreateInput{
		Person:      "Rohan",
		TotalAmount: amt("500"),
		Note:        stringPtr("Petrol charges"),
	})
	require.NoError(t, err)
	id := created.Obligation.ID
	require.Len(t, id, 26)

	// 2. Partial settle
	settled, err := Settle(database, cfg, SettleInput{ID: id, Amount: amt("200")})
	require.NoError(t, err)
	require.Equal(t, "300", settled.Obligation.RemainingAmount.String())
	require.Equal(t, ledger.StatusOpen, settled.Obligation.Status)

	// 3. Edit the total; remaining shifts by the delta
	edited, err := Edit(database, EditInput{ID: id, TotalAmount: decPtr("550")})
	require.NoError(t, err)
	require.Equal(t, "350", edited.Obligation.RemainingAmount.String())

	// 4. Resolve by person (single open obligation)
	resolved, err := Resolve(database, ResolveInput{Person: "Rohan"})
	require.NoError(t, err)
	require.Equal(t, id, resolved.Obligation.ID)

	// 5. Settle the rest; closes at zero
	settled, err = Settle(database, cfg, SettleInput{ID: id, Amount: amt("350")})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusClosed, settled.Obligation.Status)
	require.True(t, settled.Obligation.RemainingAmount.IsZero())

	// 6. Reopen at zero is rejected; corrective edit first
	_, err = Reopen(database, ReopenInput{ID: id})
	require.True(t, errors.Is(err, errors.ErrInvalidEdit))

	_, err = Edit(database, EditInput{ID: id, TotalAmount: decPtr("600"), Corrective: true})
	require.NoError(t, err)

	reopened, err := Reopen(database, ReopenInput{ID: id, Reason: stringPtr("he owed more")})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusOpen, reopened.Obligation.Status)
	require.Equal(t, "50", reopened.Obligation.RemainingAmount.String())

	// 7. Write off the rest
	closed, err := Close(database, CloseInput{ID: id, Reason: "called it even"})
	require.NoError(t, err)
	require.Equal(t, "50", closed.Obligation.RemainingAmount.String())

	// 8. The history tells the whole story
	got, err := Get(database, GetInput{ID: id})
	require.NoError(t, err)
	kinds := make([]string, len(got.History))
	for i, e := range got.History {
		kinds[i] = e.Kind
	}
	require.Equal(t, []string{
		ledger.EntryCreate,
		ledger.EntrySettle,
		ledger.EntryEdit,
		ledger.EntrySettle,
		ledger.EntryEdit,
		ledger.EntryReopen,
		ledger.EntryClose,
	}, kinds)

	// 9. Delete
	deleted, err := Delete(database, DeleteInput{ID: id})
	require.NoError(t, err)
	require.True(t, deleted.Deleted)

	_, err = Get(database, GetInput{ID: id})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

// TestSplitWorkflow exercises a bill split followed by per-person
// settlement through intent application.
func TestSplitWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()

	// Dinner for 4000: Anjali had 1000 worth, Rohan and Priya split the
	// rest.
	split, err := SplitBill(database, cfg, SplitBillInput{
		Total:   amt("4000"),
		Persons: []string{"Anjali", "Rohan", "Priya"},
		Fixed:   []ledger.Contribution{{Person: "Anjali", Amount: amt("1000")}},
		Note:    stringPtr("Dinner at Mosaic"),
	})
	require.NoError(t, err)
	require.Len(t, split.Obligations, 3)

	// Anjali pays hers back via a parsed intent.
	out, err := Apply(database, cfg, ledger.Intent{
		Action:  ledger.ActionSettle,
		Persons: []string{"Anjali"},
		Amount:  decPtr("1000"),
	})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusClosed, out.Obligations[0].Status)

	// Rohan pays half of his share.
	_, err = Apply(database, cfg, ledger.Intent{
		Action:  ledger.ActionSettle,
		Persons: []string{"Rohan"},
		Amount:  decPtr("750"),
	})
	require.NoError(t, err)

	summary, err := Summary(database)
	require.NoError(t, err)
	require.Equal(t, 2, summary.OpenObligations)
	require.Equal(t, "2250", summary.TotalOutstanding.String())

	// Priya still owes the most.
	require.Equal(t, "Priya", summary.People[0].Person)
	require.Equal(t, "1500", summary.People[0].Outstanding.String())
}
