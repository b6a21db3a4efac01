package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/quickfind/quickfind/internal/index"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := index.New()
	root := index.NewRecordId(1, 1)
	s.Insert(root, root, index.AttrDirectory, "root")
	child := index.NewRecordId(2, 1)
	s.Insert(child, root, 0, "child.txt")
	s.Delete(child)

	want := FromStore(s, 99, 12345)

	path := filepath.Join(t.TempDir(), "quickfind.db")
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.JournalId != want.JournalId || got.LatestUsn != want.LatestUsn {
		t.Fatalf("cursor mismatch: got %+v want %+v", got, want)
	}
	if got.RecordsNotInUseCount != want.RecordsNotInUseCount {
		t.Fatalf("tombstone count mismatch: got %d want %d", got.RecordsNotInUseCount, want.RecordsNotInUseCount)
	}
	if !reflect.DeepEqual(got.Names, want.Names) {
		t.Fatalf("names mismatch: got %q want %q", got.Names, want.Names)
	}
	if !reflect.DeepEqual(got.Records, want.Records) {
		t.Fatalf("records mismatch: got %+v want %+v", got.Records, want.Records)
	}
	if !reflect.DeepEqual(got.Lookup, want.Lookup) {
		t.Fatalf("lookup mismatch: got %v want %v", got.Lookup, want.Lookup)
	}
}

func TestLoadMissingFileIsInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.db"))
	if err == nil {
		t.Fatalf("expected an error for a missing snapshot file")
	}
}

func TestApplyToRestoresStore(t *testing.T) {
	s := index.New()
	id := index.NewRecordId(7, 1)
	s.Insert(id, id, 0, "file.txt")
	st := FromStore(s, 1, 2)

	restored := index.New()
	st.ApplyTo(restored)

	if !reflect.DeepEqual(restored.Records, s.Records) {
		t.Fatalf("expected ApplyTo to restore records verbatim")
	}
	if restored.TombstoneCount != s.TombstoneCount {
		t.Fatalf("expected tombstone count to round-trip")
	}
}
