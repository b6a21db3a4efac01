package index

import "testing"

// buildTree creates root("C:\") -> "docs" -> "report.docx", plus a
// sibling directory "photos" and a tombstoned file, as a fixture
// shared by the query tests below.
func buildTree() *Store {
	s := New()
	root := NewRecordId(5, 1)
	s.Insert(root, root, AttrDirectory, ".")

	docs := NewRecordId(6, 1)
	s.Insert(docs, root, AttrDirectory, "docs")

	report := NewRecordId(7, 1)
	s.Insert(report, docs, 0, "report.docx")

	photos := NewRecordId(8, 1)
	s.Insert(photos, root, AttrDirectory, "photos")

	ghost := NewRecordId(9, 1)
	s.Insert(ghost, root, 0, "deleted.txt")
	s.Delete(ghost)

	return s
}

func TestRunFindsSubstringAndReconstructsPath(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "report", ReturnCount: 10}, 'C')
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.Items))
	}
	if got := res.Items[0].Path; got != `C:\docs\report.docx` {
		t.Fatalf("unexpected path: %q", got)
	}
}

func TestRunSkipsTombstonedRecords(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "deleted", ReturnCount: 10}, 'C')
	if len(res.Items) != 0 {
		t.Fatalf("expected tombstoned record to be excluded, got %d matches", len(res.Items))
	}
}

func TestRunOnlyDirectoriesFlag(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "o", Flags: FlagOnlyDirectories, ReturnCount: 10}, 'C')
	for _, item := range res.Items {
		if item.Attributes&AttrDirectory == 0 {
			t.Fatalf("non-directory result returned under FlagOnlyDirectories: %+v", item)
		}
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected exactly 2 directory matches for \"o\" (docs, photos), got %d", len(res.Items))
	}
}

func TestRunFullNameFlagRequiresExactMatch(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "doc", Flags: FlagFullName, ReturnCount: 10}, 'C')
	if len(res.Items) != 0 {
		t.Fatalf("expected no full-name match for partial substring \"doc\", got %d", len(res.Items))
	}

	res = Run(s, Query{Text: "docs", Flags: FlagFullName, ReturnCount: 10}, 'C')
	if len(res.Items) != 1 {
		t.Fatalf("expected exact full-name match for \"docs\", got %d", len(res.Items))
	}
}

// TestRunReturnCountCapsItemsButKeepsCountingFoundCount verifies the
// boundary behavior of run_query in original_source/quickfind_server.c:
// reaching ReturnCount stops the output buffer from growing further, but
// found_count keeps incrementing for every later match up to StopCount.
// This must not be treated as an error.
func TestRunReturnCountCapsItemsButKeepsCountingFoundCount(t *testing.T) {
	s := buildTree()
	all := Run(s, Query{Text: "o", ReturnCount: 10}, 'C')
	if len(all.Items) < 2 {
		t.Fatalf("fixture needs at least 2 matches for \"o\" to exercise this boundary, got %d", len(all.Items))
	}

	res := Run(s, Query{Text: "o", ReturnCount: 1, StopCount: 10}, 'C')
	if len(res.Items) != 1 {
		t.Fatalf("expected exactly 1 item (ReturnCount cap), got %d", len(res.Items))
	}
	if res.FoundCount != all.FoundCount {
		t.Fatalf("expected FoundCount to keep counting all matches regardless of the output cap, got %d want %d", res.FoundCount, all.FoundCount)
	}
}

// TestRunZeroReturnCountReportsCountOnly covers the explicit boundary
// case of ReturnCount=0 with a non-zero StopCount: the caller wants only
// an accurate match count, no output items, and no error.
func TestRunZeroReturnCountReportsCountOnly(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "o", ReturnCount: 0, StopCount: 10}, 'C')
	if len(res.Items) != 0 {
		t.Fatalf("expected zero items with ReturnCount=0, got %d", len(res.Items))
	}
	if res.FoundCount == 0 {
		t.Fatalf("expected a non-zero FoundCount even though no items were returned")
	}
}

func TestRunSkipCount(t *testing.T) {
	s := buildTree()
	all := Run(s, Query{Text: "o", ReturnCount: 10}, 'C')
	if len(all.Items) < 2 {
		t.Skip("fixture does not have enough matches to exercise skip")
	}

	skipped := Run(s, Query{Text: "o", ReturnCount: 10, SkipCount: 1}, 'C')
	if len(skipped.Items) != len(all.Items)-1 {
		t.Fatalf("expected skip to drop exactly one match, got %d vs %d", len(skipped.Items), len(all.Items))
	}
}

func TestRunEmptyTextMatchesNothing(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "", ReturnCount: 10}, 'C')
	if len(res.Items) != 0 {
		t.Fatalf("expected empty query text to match nothing, got %d", len(res.Items))
	}
}

func TestRunCaseInsensitiveByDefault(t *testing.T) {
	s := buildTree()
	res := Run(s, Query{Text: "REPORT", ReturnCount: 10}, 'C')
	if len(res.Items) != 1 {
		t.Fatalf("expected case-insensitive match by default, got %d", len(res.Items))
	}

	res = Run(s, Query{Text: "REPORT", Flags: FlagCaseSensitive, ReturnCount: 10}, 'C')
	if len(res.Items) != 0 {
		t.Fatalf("expected no match under FlagCaseSensitive with mismatched case, got %d", len(res.Items))
	}
}
