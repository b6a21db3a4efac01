// Package usn consumes the NTFS change journal incrementally: reading
// raw records into a Change list and coalescing noisy sequences before
// they reach the index.
package usn

import "github.com/quickfind/quickfind/internal/index"

// ChangeKind classifies a single journal record.
type ChangeKind int

const (
	Insert ChangeKind = iota
	Update
	Delete
)

// Reason bits, mirroring the subset of USN_REASON_* this reader cares
// about, grounded on
// other_examples/7d94ea3c_fsnotify-fsnotify__backend_usn.go.go's
// USN_REASON_* constants.
const (
	ReasonFileCreate   uint32 = 0x00000100
	ReasonFileDelete   uint32 = 0x00000200
	ReasonRenameNewName uint32 = 0x00002000
)

// Change is one (possibly coalesced-away) journal entry.
// original_source/ models this as a doubly-linked list; a slice with
// an Ignore flag is the straight Go substitute for that shape.
type Change struct {
	Usn        int64
	Kind       ChangeKind
	Id         index.RecordId
	ParentId   index.RecordId
	Name       string
	Attributes uint32
	Ignore     bool
}

// Cursor is the journal position the service persists across polls and
// across restarts, via the snapshot.
type Cursor struct {
	JournalId uint64
	NextUsn   int64
}

func classify(reason uint32) ChangeKind {
	switch {
	case reason&ReasonFileDelete != 0:
		return Delete
	case reason&ReasonFileCreate != 0:
		return Insert
	default:
		return Update
	}
}
