package index

import (
	"strings"
)

// Flags control which records a query considers a match.
type Flags uint32

// Bit values match the wire flags in
// _examples/original_source/quickfind_client.h's quickfind_flags enum.
const (
	FlagCaseSensitive   Flags = 0x1
	FlagFullName        Flags = 0x2
	FlagOnlyFiles       Flags = 0x4
	FlagOnlyDirectories Flags = 0x8
)

// Query describes a single substring search request.
type Query struct {
	Text       string
	Flags      Flags
	ReturnCount int
	SkipCount   int
	StopCount   int // defaults to SkipCount+ReturnCount when zero
}

// ResultItem is one matched, path-reconstructed record.
type ResultItem struct {
	Id         RecordId
	Attributes uint32
	Path       string
}

// Result is the outcome of running a Query against a Store.
type Result struct {
	Items      []ResultItem
	FoundCount int
}

// Run executes q against store. driveLetter is used only for path
// reconstruction. Reaching ReturnCount is a normal stop condition, not
// an error: FoundCount keeps counting matches past it up to StopCount
// while the returned Items simply stop growing once full.
//
// The original SIMD substring scan (32-byte AVX2 compares, broadcast
// first/last needle bytes, popcount-before-match NUL accounting) is
// expressed here as a portable byte-at-a-time scan that preserves the
// same algorithmic shape — running NUL count, confirmed-match recovery
// of the record index from that count — without hardware intrinsics,
// which Go cannot express without cgo or an assembly stub (see
// DESIGN.md).
func Run(store *Store, q Query, driveLetter byte) Result {
	stop := q.StopCount
	if stop == 0 {
		stop = q.SkipCount + q.ReturnCount
	}

	res := Result{Items: make([]ResultItem, 0, q.ReturnCount)}

	if len(q.Text) == 0 {
		return res
	}

	needle := q.Text
	caseSensitive := q.Flags&FlagCaseSensitive != 0

	zeroCount := 0 // NUL bytes traversed so far == index of the record currently being scanned.
	pos := 0
	names := store.Names

	for pos < len(names) {
		matchLen, matchPos, newZeroCount, found := scanNext(names, pos, needle, caseSensitive, zeroCount)
		if !found {
			break
		}

		recordIdx := newZeroCount

		if recordIdx >= len(store.Records) {
			break
		}

		rec := &store.Records[recordIdx]
		// Walk forward to the record's terminating NUL to learn the full name length.
		nameLen := nulRunLength(names, int(rec.NameOffset))

		// A record yields at most one match: resume scanning from the
		// record's terminating NUL regardless of where inside the name
		// this match landed, so a name cannot be double-counted.
		pos = int(rec.NameOffset) + nameLen + 1
		zeroCount = recordIdx + 1

		if rec.Tombstoned() {
			continue
		}
		if q.Flags&FlagOnlyFiles != 0 && rec.IsDirectory() {
			continue
		}
		if q.Flags&FlagOnlyDirectories != 0 && !rec.IsDirectory() {
			continue
		}
		if q.Flags&FlagFullName != 0 && (matchPos != int(rec.NameOffset) || matchLen != nameLen) {
			continue
		}

		path, err := reconstructPath(store, recordIdx, driveLetter)
		if err != nil {
			// Orphan or depth-cap exceeded: skip the record, not an error.
			continue
		}

		if res.FoundCount >= q.SkipCount && len(res.Items) < q.ReturnCount {
			res.Items = append(res.Items, ResultItem{Id: rec.Id, Attributes: rec.Attributes, Path: path})
		}
		res.FoundCount++
		if res.FoundCount >= stop {
			break
		}
	}

	return res
}

// scanNext finds the next occurrence of needle in names starting at pos,
// updating the running NUL count as it scans. It returns the match
// length, the byte position of the match, the NUL count at the match
// (which equals the index of the record the match falls in), and
// whether a match was found before the buffer was exhausted.
func scanNext(names []byte, pos int, needle string, caseSensitive bool, zeroCount int) (matchLen, matchPos, newZeroCount int, found bool) {
	n := len(needle)
	i := pos
	for i < len(names) {
		if names[i] == 0 {
			zeroCount++
			i++
			continue
		}
		if i+n <= len(names) && runeEqual(names[i:i+n], needle, caseSensitive) {
			return n, i, zeroCount, true
		}
		i++
	}
	return 0, 0, zeroCount, false
}

func runeEqual(a []byte, b string, caseSensitive bool) bool {
	if caseSensitive {
		return string(a) == b
	}
	return strings.EqualFold(string(a), b)
}

// nulRunLength returns the length of the NUL-terminated run starting at off.
func nulRunLength(buf []byte, off int) int {
	end := off
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return end - off
}

// reconstructPath walks from recordIdx to the root via parent ids,
// pushing ancestor names onto a fixed-size stack capped at
// MaxChainDepth, so a cyclic parent chain terminates instead of
// looping forever. The root is the record whose Id == ParentId; its
// own name is skipped (it is conventionally ".").
func reconstructPath(store *Store, recordIdx int, driveLetter byte) (string, error) {
	var stack [MaxChainDepth]string
	depth := 0

	idx := recordIdx
	for {
		if depth >= MaxChainDepth {
			return "", ErrDepthExceeded
		}
		rec := &store.Records[idx]
		if rec.Id == rec.ParentId {
			break // root
		}

		stack[depth] = store.Name(idx)
		depth++

		pIdx, ok := indexOfRecord(store, rec.ParentId.RecordNumber())
		if !ok {
			return "", ErrRecordNotFound
		}
		idx = pIdx
	}

	var b strings.Builder
	b.WriteByte(driveLetter)
	b.WriteByte(':')
	for i := depth - 1; i >= 0; i-- {
		b.WriteByte('\\')
		b.WriteString(stack[i])
	}
	return b.String(), nil
}

func indexOfRecord(store *Store, recordNumber uint64) (int, bool) {
	_, idx, ok := store.GetByRecordNumber(recordNumber)
	return idx, ok
}
