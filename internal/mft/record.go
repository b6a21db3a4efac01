package mft

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/quickfind/quickfind/internal/index"
	"github.com/quickfind/quickfind/pkg/errdefs"
)

// RecordSource fetches the raw 1024-byte record, as stored on disk and
// not yet fixed up, for an arbitrary record number; the parser applies
// the fixup itself. Used to resolve attribute-list indirection and
// hard-link base records.
type RecordSource interface {
	ReadRecord(recordNumber uint64) ([]byte, error)
}

// applyFixup validates and applies the update-sequence array in place
// on a single MFT record.
func applyFixup(record []byte) error {
	if len(record) < 0x30 {
		return errdefs.ErrBadMagic
	}
	if string(record[0:4]) != "FILE" {
		return errdefs.ErrBadMagic
	}

	usaOffset := binary.LittleEndian.Uint16(record[0x04:0x06])
	usaSize := binary.LittleEndian.Uint16(record[0x06:0x08])
	if usaSize == 0 || int(usaOffset)+int(usaSize)*2 > len(record) {
		return errdefs.ErrFixupMismatch
	}

	check := binary.LittleEndian.Uint16(record[usaOffset : usaOffset+2])
	numSectors := int(usaSize) - 1

	for i := 0; i < numSectors; i++ {
		sectorEnd := (i+1)*sectorSize - 2
		if sectorEnd+2 > len(record) {
			return errdefs.ErrFixupMismatch
		}
		got := binary.LittleEndian.Uint16(record[sectorEnd : sectorEnd+2])
		if got != check {
			return errdefs.ErrFixupMismatch
		}
		replacement := record[int(usaOffset)+2+i*2 : int(usaOffset)+4+i*2]
		copy(record[sectorEnd:sectorEnd+2], replacement)
	}
	return nil
}

type attribute struct {
	typ          uint32
	nonResident  bool
	headerOffset int
	length       int
	// resident
	valueOffset int
	valueLength int
	// non-resident
	dataRunOffset int
}

// walkAttributes iterates the attribute records starting at
// FirstAttributeOffset until the 0xFFFFFFFF end marker or the record
// bound.
func walkAttributes(record []byte) ([]attribute, error) {
	if len(record) < 0x18 {
		return nil, errdefs.ErrAttributeOOB
	}
	firstOffset := binary.LittleEndian.Uint16(record[0x14:0x16])

	var attrs []attribute
	pos := int(firstOffset)
	for pos+8 <= len(record) {
		typ := binary.LittleEndian.Uint32(record[pos : pos+4])
		if typ == endOfAttributes {
			return attrs, nil
		}
		length := int(binary.LittleEndian.Uint32(record[pos+4 : pos+8]))
		if length <= 0 || pos+length > len(record) {
			return attrs, errdefs.ErrAttributeOOB
		}

		a := attribute{typ: typ, headerOffset: pos, length: length}
		a.nonResident = record[pos+8] != 0
		if a.nonResident {
			a.dataRunOffset = pos + int(binary.LittleEndian.Uint16(record[pos+0x20:pos+0x22]))
		} else {
			a.valueLength = int(binary.LittleEndian.Uint32(record[pos+0x10 : pos+0x14]))
			a.valueOffset = pos + int(binary.LittleEndian.Uint16(record[pos+0x14:pos+0x16]))
		}

		attrs = append(attrs, a)
		pos += length
	}
	return attrs, errdefs.ErrAttributeOOB
}

func (a attribute) value(record []byte) []byte {
	if a.valueOffset < 0 || a.valueOffset+a.valueLength > len(record) {
		return nil
	}
	return record[a.valueOffset : a.valueOffset+a.valueLength]
}

// decodeFileName decodes a resident $FILE_NAME attribute's payload.
func decodeFileName(payload []byte) (parentId index.RecordId, name string, attrs uint32, namespace byte, ok bool) {
	if len(payload) < 0x42 {
		return 0, "", 0, 0, false
	}
	parentRef := binary.LittleEndian.Uint64(payload[0x00:0x08])
	parentId = index.NewRecordId(parentRef&0x0000FFFFFFFFFFFF, uint16(parentRef>>48))
	attrs = binary.LittleEndian.Uint32(payload[0x38:0x3C])
	nameLen := int(payload[0x40])
	namespace = payload[0x41]
	if 0x42+nameLen*2 > len(payload) {
		return 0, "", 0, 0, false
	}
	units := make([]uint16, nameLen)
	for i := 0; i < nameLen; i++ {
		units[i] = binary.LittleEndian.Uint16(payload[0x42+i*2 : 0x44+i*2])
	}
	name = string(utf16.Decode(units))
	return parentId, name, attrs, namespace, true
}

type attrListEntry struct {
	typ              uint32
	baseRecordNumber uint64
}

func decodeAttributeList(payload []byte) []attrListEntry {
	var entries []attrListEntry
	pos := 0
	for pos+0x18 <= len(payload) {
		typ := binary.LittleEndian.Uint32(payload[pos : pos+4])
		length := int(binary.LittleEndian.Uint16(payload[pos+4 : pos+6]))
		if length <= 0 || pos+length > len(payload) {
			break
		}
		baseRef := binary.LittleEndian.Uint64(payload[pos+0x10 : pos+0x18])
		entries = append(entries, attrListEntry{typ: typ, baseRecordNumber: baseRef & 0x0000FFFFFFFFFFFF})
		pos += length
	}
	return entries
}

// ParseRecord fixes up and decodes one MFT record, selecting its
// canonical name: a resident, non-DOS $FILE_NAME if present, else one
// resolved through an $ATTRIBUTE_LIST indirection. raw is mutated in
// place by the fixup step; callers that need the original bytes
// should pass a copy.
func ParseRecord(recordNumber uint64, raw []byte, source RecordSource) ParsedRecord {
	return parseRecordDepth(recordNumber, raw, source, 0)
}

func parseRecordDepth(recordNumber uint64, raw []byte, source RecordSource, depth int) ParsedRecord {
	if err := applyFixup(raw); err != nil {
		return ParsedRecord{ParseError: err}
	}

	flags := binary.LittleEndian.Uint16(raw[0x16:0x18])
	if flags&0x01 == 0 {
		return ParsedRecord{ParseError: errdefs.ErrNotInUse}
	}
	seq := binary.LittleEndian.Uint16(raw[0x10:0x12])
	id := index.NewRecordId(recordNumber, seq)

	var fileAttrs uint32
	if flags&0x02 != 0 {
		fileAttrs |= index.AttrDirectory
	}

	attrs, err := walkAttributes(raw)
	if err != nil && len(attrs) == 0 {
		return ParsedRecord{ParseError: err}
	}

	var bestName string
	var parentId index.RecordId
	found := false

	for _, a := range attrs {
		if a.typ != attrTypeFileName || a.nonResident {
			continue
		}
		p, name, attrFlags, ns, ok := decodeFileName(a.value(raw))
		if !ok || ns == nameSpaceDos {
			continue
		}
		bestName = name
		parentId = p
		fileAttrs |= attrFlags
		found = true
		break
	}

	if !found {
		for _, a := range attrs {
			if a.typ != attrTypeAttrList || a.nonResident {
				continue
			}
			p, name, attrFlags, ok := resolveViaAttributeList(a.value(raw), recordNumber, source, depth)
			if ok {
				bestName, parentId, found = name, p, true
				fileAttrs |= attrFlags
				break
			}
		}
	}

	if !found {
		return ParsedRecord{ParseError: errdefs.ErrNoFileName}
	}

	return ParsedRecord{Id: id, ParentId: parentId, Name: bestName, Attributes: fileAttrs}
}

// resolveViaAttributeList scans an $ATTRIBUTE_LIST for a FILE_NAME entry
// whose target record differs from the current one, fetches that
// record through source, and recursively selects its non-DOS name the
// same way ParseRecord does.
func resolveViaAttributeList(payload []byte, currentRecordNumber uint64, source RecordSource, depth int) (index.RecordId, string, uint32, bool) {
	if depth >= maxAttributeListDepth || source == nil {
		return 0, "", 0, false
	}

	for _, e := range decodeAttributeList(payload) {
		if e.typ != attrTypeFileName || e.baseRecordNumber == currentRecordNumber {
			continue
		}
		raw, err := source.ReadRecord(e.baseRecordNumber)
		if err != nil {
			continue
		}
		parsed := parseRecordDepth(e.baseRecordNumber, raw, source, depth+1)
		if parsed.ParseError != nil {
			continue
		}
		return parsed.ParentId, parsed.Name, parsed.Attributes, true
	}
	return 0, "", 0, false
}
