package index

// Store holds three buffers in lockstep: an append-only packed name
// buffer, a record array in the same order as the names, and a dense
// record-number -> record-index lookup table.
//
// Store is not internally synchronized. The service layer (internal/service)
// serializes all mutation and query access behind a single reader-writer
// lock.
type Store struct {
	Names   []byte   // NUL-terminated UTF-8 names, in record order.
	Records []Record // record order == name order, the scan's core invariant.
	Lookup  []uint32 // recordNumber -> recordIndex+1; 0 means "none".

	TombstoneCount int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		Names:   make([]byte, 0, 4096),
		Records: make([]Record, 0, 256),
		Lookup:  make([]uint32, 0, 256),
	}
}

func (s *Store) growLookup(recordNumber uint64) {
	if need := int(recordNumber) + 1; need > len(s.Lookup) {
		grown := make([]uint32, need)
		copy(grown, s.Lookup)
		s.Lookup = grown
	}
}

// lookupSlot returns the record-array index (0-based) and whether a slot
// is currently assigned for recordNumber, regardless of tombstone state.
func (s *Store) lookupSlot(recordNumber uint64) (int, bool) {
	if int(recordNumber) >= len(s.Lookup) {
		return 0, false
	}
	v := s.Lookup[recordNumber]
	if v == 0 {
		return 0, false
	}
	return int(v - 1), true
}

// Insert appends a new record and its name, and claims the record's
// lookup slot. If the slot was already claimed by a previous record
// (an update-by-record-number-reuse), the old record is tombstoned.
//
// Names and records are always appended together, in the same call, so
// the "k-th NUL terminates the k-th record" invariant never drifts.
func (s *Store) Insert(id, parentId RecordId, attributes uint32, name string) int {
	recordNumber := id.RecordNumber()
	s.growLookup(recordNumber)

	if oldIdx, ok := s.lookupSlot(recordNumber); ok {
		s.tombstone(oldIdx)
	}

	newIdx := len(s.Records)
	s.Names = append(s.Names, name...)
	s.Names = append(s.Names, 0)
	s.Records = append(s.Records, Record{
		Id:         id,
		ParentId:   parentId,
		Attributes: attributes &^ NotInUse,
		NameOffset: uint32(len(s.Names) - len(name) - 1),
	})
	s.Lookup[recordNumber] = uint32(newIdx + 1)
	return newIdx
}

// Update is insert after implicit tombstoning of the prior record for
// the same record number; the old record becomes a tombstone reachable
// only by linear scan, which is harmless because queries filter
// tombstones out.
func (s *Store) Update(id, parentId RecordId, attributes uint32, name string) int {
	return s.Insert(id, parentId, attributes, name)
}

// Delete marks the live record for id as not-in-use. Returns false if no
// live record was found.
func (s *Store) Delete(id RecordId) bool {
	idx, ok := s.lookupSlot(id.RecordNumber())
	if !ok {
		return false
	}
	if s.Records[idx].Tombstoned() {
		return false
	}
	s.tombstone(idx)
	return true
}

func (s *Store) tombstone(idx int) {
	if s.Records[idx].Attributes&NotInUse == 0 {
		s.Records[idx].Attributes |= NotInUse
		s.TombstoneCount++
	}
}

// GetByRecordNumber returns the live record for a record number and its
// record-array index, with ok=false when the slot is empty or
// tombstoned. It does not check the sequence number; callers
// needing full RecordId equality should compare Record.Id themselves.
func (s *Store) GetByRecordNumber(recordNumber uint64) (*Record, int, bool) {
	idx, ok := s.lookupSlot(recordNumber)
	if !ok || s.Records[idx].Tombstoned() {
		return nil, 0, false
	}
	return &s.Records[idx], idx, true
}

// Name returns the NUL-terminated name for the record at recordIndex as
// a Go string (the trailing NUL is not included).
func (s *Store) Name(recordIndex int) string {
	off := int(s.Records[recordIndex].NameOffset)
	end := off
	for end < len(s.Names) && s.Names[end] != 0 {
		end++
	}
	return string(s.Names[off:end])
}

// Prune rewrites all three buffers keeping only non-tombstoned records,
// preserving name/record order correspondence, and resets TombstoneCount.
//
// When to call Prune is decided at the service layer via
// Config.PruneThreshold; Store.Prune itself is an unconditional
// compaction primitive.
func (s *Store) Prune() {
	if s.TombstoneCount == 0 {
		return
	}

	newNames := make([]byte, 0, len(s.Names))
	newRecords := make([]Record, 0, len(s.Records)-s.TombstoneCount)
	newLookup := make([]uint32, len(s.Lookup))

	for i, rec := range s.Records {
		if rec.Tombstoned() {
			continue
		}
		name := s.Name(i)
		newOffset := uint32(len(newNames))
		newNames = append(newNames, name...)
		newNames = append(newNames, 0)

		newIdx := len(newRecords)
		rec.NameOffset = newOffset
		newRecords = append(newRecords, rec)
		newLookup[rec.Id.RecordNumber()] = uint32(newIdx + 1)
	}

	s.Names = newNames
	s.Records = newRecords
	s.Lookup = newLookup
	s.TombstoneCount = 0
}

// NulCount returns the number of NUL bytes in the name buffer. Used by
// tests to check the name/record correspondence invariant.
func (s *Store) NulCount() int {
	n := 0
	for _, b := range s.Names {
		if b == 0 {
			n++
		}
	}
	return n
}
