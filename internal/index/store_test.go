package index

import "testing"

func TestStoreInsertAndLookup(t *testing.T) {
	s := New()
	root := NewRecordId(5, 1)
	idx := s.Insert(root, root, AttrDirectory, "root")

	rec, gotIdx, ok := s.GetByRecordNumber(5)
	if !ok {
		t.Fatalf("expected record 5 to be found")
	}
	if gotIdx != idx {
		t.Fatalf("index mismatch: got %d want %d", gotIdx, idx)
	}
	if rec.Id != root {
		t.Fatalf("id mismatch: got %v want %v", rec.Id, root)
	}
	if s.Name(idx) != "root" {
		t.Fatalf("name mismatch: got %q", s.Name(idx))
	}
	if s.NulCount() != len(s.Records) {
		t.Fatalf("nul count %d should equal record count %d", s.NulCount(), len(s.Records))
	}
}

func TestStoreUpdateTombstonesOldSlot(t *testing.T) {
	s := New()
	id := NewRecordId(1, 1)
	s.Insert(id, id, 0, "old-name")
	if s.TombstoneCount != 0 {
		t.Fatalf("no tombstones expected yet")
	}

	s.Update(id, id, 0, "new-name")
	if s.TombstoneCount != 1 {
		t.Fatalf("expected one tombstone after update, got %d", s.TombstoneCount)
	}

	rec, idx, ok := s.GetByRecordNumber(1)
	if !ok {
		t.Fatalf("expected live record after update")
	}
	if s.Name(idx) != "new-name" {
		t.Fatalf("expected updated name, got %q", s.Name(idx))
	}
	_ = rec
}

func TestStoreDelete(t *testing.T) {
	s := New()
	id := NewRecordId(2, 1)
	s.Insert(id, id, 0, "victim")

	if ok := s.Delete(id); !ok {
		t.Fatalf("expected delete to succeed")
	}
	if ok := s.Delete(id); ok {
		t.Fatalf("expected second delete of same record to report false")
	}
	if _, _, ok := s.GetByRecordNumber(2); ok {
		t.Fatalf("tombstoned record should not be returned by GetByRecordNumber")
	}
}

func TestStorePruneCompacts(t *testing.T) {
	s := New()
	a := NewRecordId(1, 1)
	b := NewRecordId(2, 1)
	c := NewRecordId(3, 1)
	s.Insert(a, a, 0, "a")
	s.Insert(b, a, 0, "b")
	s.Insert(c, a, 0, "c")
	s.Delete(b)

	s.Prune()

	if s.TombstoneCount != 0 {
		t.Fatalf("expected TombstoneCount reset after prune, got %d", s.TombstoneCount)
	}
	if len(s.Records) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(s.Records))
	}
	if _, _, ok := s.GetByRecordNumber(2); ok {
		t.Fatalf("pruned record should no longer resolve")
	}
	if _, _, ok := s.GetByRecordNumber(1); !ok {
		t.Fatalf("surviving record 1 should still resolve after prune")
	}
	if _, _, ok := s.GetByRecordNumber(3); !ok {
		t.Fatalf("surviving record 3 should still resolve after prune")
	}
}

func TestRecordIdPacking(t *testing.T) {
	id := NewRecordId(0xAABBCCDDEEFF, 0x1234)
	if id.RecordNumber() != 0xAABBCCDDEEFF {
		t.Fatalf("record number mismatch: got %x", id.RecordNumber())
	}
	if id.SequenceNumber() != 0x1234 {
		t.Fatalf("sequence number mismatch: got %x", id.SequenceNumber())
	}
}
