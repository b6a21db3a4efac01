package usn

import (
	"testing"

	"github.com/quickfind/quickfind/internal/index"
)

func TestCoalesceDeleteDiscardsEarlierInsert(t *testing.T) {
	id := index.NewRecordId(1, 1)
	changes := []Change{
		{Kind: Insert, Id: id},
		{Kind: Delete, Id: id},
	}
	Coalesce(changes)
	live := Live(changes)
	if len(live) != 0 {
		t.Fatalf("expected insert+delete for the same id to cancel out, got %d live changes", len(live))
	}
}

func TestCoalesceDeleteDiscardsEarlierUpdate(t *testing.T) {
	id := index.NewRecordId(2, 1)
	changes := []Change{
		{Kind: Update, Id: id, Name: "stale"},
		{Kind: Delete, Id: id},
	}
	Coalesce(changes)
	live := Live(changes)
	if len(live) != 1 || live[0].Kind != Delete {
		t.Fatalf("expected only the delete to survive, got %+v", live)
	}
}

func TestCoalesceLaterDeleteDiscardsEarlierDelete(t *testing.T) {
	id := index.NewRecordId(3, 1)
	changes := []Change{
		{Kind: Delete, Id: id},
		{Kind: Delete, Id: id},
	}
	Coalesce(changes)
	live := Live(changes)
	if len(live) != 1 {
		t.Fatalf("expected duplicate deletes to collapse to one, got %d", len(live))
	}
}

func TestCoalesceUpdateDiscardsEarlierInsert(t *testing.T) {
	id := index.NewRecordId(4, 1)
	changes := []Change{
		{Kind: Insert, Id: id, Name: "first"},
		{Kind: Update, Id: id, Name: "second"},
	}
	Coalesce(changes)
	live := Live(changes)
	if len(live) != 1 || live[0].Name != "second" {
		t.Fatalf("expected only the update to survive with the final name, got %+v", live)
	}
}

func TestCoalesceIgnoresUnrelatedIds(t *testing.T) {
	a := index.NewRecordId(5, 1)
	b := index.NewRecordId(6, 1)
	changes := []Change{
		{Kind: Insert, Id: a},
		{Kind: Delete, Id: b},
	}
	Coalesce(changes)
	live := Live(changes)
	if len(live) != 2 {
		t.Fatalf("expected unrelated ids to both survive, got %d", len(live))
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		reason uint32
		want   ChangeKind
	}{
		{ReasonFileCreate, Insert},
		{ReasonFileDelete, Delete},
		{ReasonRenameNewName, Update},
		{0, Update},
	}
	for _, c := range cases {
		if got := classify(c.reason); got != c.want {
			t.Errorf("classify(%x) = %v, want %v", c.reason, got, c.want)
		}
	}
}
