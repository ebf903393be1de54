package ops

import (
	"testing"

	"github.com/nkhandelwal/khata/internal/errors"
)

func TestDelete(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Rohan", "500")

	out, err := Delete(database, DeleteInput{ID: id})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.Deleted || out.ID != id {
		t.Errorf("output = %+v, want deleted=true id=%s", out, id)
	}

	// Gone from normal lookups.
	if _, err := Get(database, GetInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want NOT_FOUND", err)
	}

	// Soft delete: still reachable for audit when asked explicitly.
	got, err := Get(database, GetInput{ID: id, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Get with IncludeDeleted failed: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt = nil, want a timestamp")
	}
	if len(got.History) == 0 {
		t.Error("history should survive a soft delete")
	}
}

func TestDelete_ExcludedFromListAndSummary(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Rohan", "500")
	mustCreate(t, database, "Anjali", "300")

	if _, err := Delete(database, DeleteInput{ID: id}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	list, err := List(database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(list.Items))
	}

	sum, err := Summary(database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if !sum.TotalOutstanding.Equal(amt("300")) {
		t.Errorf("TotalOutstanding = %s, want 300", sum.TotalOutstanding)
	}
}

func TestDelete_Twice(t *testing.T) {
	database := setupDB(t)

	id := mustCreate(t, database, "Rohan", "500")
	if _, err := Delete(database, DeleteInput{ID: id}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Delete(database, DeleteInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete: err = %v, want NOT_FOUND", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	database := setupDB(t)

	_, err := Delete(database, DeleteInput{ID: "01HNOPE00000000000000000AA"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
