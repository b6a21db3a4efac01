package mft

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/quickfind/quickfind/internal/index"
	"github.com/quickfind/quickfind/pkg/errdefs"
)

// buildRecord assembles a minimal, fixed-up-able 1024-byte MFT record
// containing a single resident $FILE_NAME attribute, mirroring the
// on-disk layout original_source/quickfind_ntfs.c parses.
func buildRecord(t *testing.T, seq uint16, flags uint16, parentRecordNumber uint64, parentSeq uint16, name string, fileAttrs uint32, namespace byte) []byte {
	t.Helper()
	const usaOffset = 0x30
	const usaSize = recordSize/sectorSize + 1
	const firstAttrOffset = usaOffset + usaSize*2

	rec := make([]byte, recordSize)
	copy(rec[0:4], "FILE")
	binary.LittleEndian.PutUint16(rec[0x04:0x06], usaOffset)
	binary.LittleEndian.PutUint16(rec[0x06:0x08], usaSize)
	binary.LittleEndian.PutUint16(rec[0x10:0x12], seq)
	binary.LittleEndian.PutUint16(rec[0x14:0x16], uint16(firstAttrOffset))
	binary.LittleEndian.PutUint16(rec[0x16:0x18], flags)

	units := utf16.Encode([]rune(name))
	payloadLen := 0x42 + len(units)*2
	attrHeaderLen := 0x18
	attrTotalLen := attrHeaderLen + payloadLen
	// Attribute records are quad-word aligned.
	if rem := attrTotalLen % 8; rem != 0 {
		attrTotalLen += 8 - rem
	}

	pos := firstAttrOffset
	binary.LittleEndian.PutUint32(rec[pos:pos+4], attrTypeFileName)
	binary.LittleEndian.PutUint32(rec[pos+4:pos+8], uint32(attrTotalLen))
	rec[pos+8] = 0 // resident
	binary.LittleEndian.PutUint32(rec[pos+0x10:pos+0x14], uint32(payloadLen))
	binary.LittleEndian.PutUint16(rec[pos+0x14:pos+0x16], uint16(attrHeaderLen))

	payload := rec[pos+attrHeaderLen : pos+attrHeaderLen+payloadLen]
	parentRef := (parentRecordNumber & 0x0000FFFFFFFFFFFF) | uint64(parentSeq)<<48
	binary.LittleEndian.PutUint64(payload[0x00:0x08], parentRef)
	binary.LittleEndian.PutUint32(payload[0x38:0x3C], fileAttrs)
	payload[0x40] = byte(len(units))
	payload[0x41] = namespace
	for i, u := range units {
		binary.LittleEndian.PutUint16(payload[0x42+i*2:0x44+i*2], u)
	}

	endPos := pos + attrTotalLen
	binary.LittleEndian.PutUint32(rec[endPos:endPos+4], endOfAttributes)

	applyFixupForTest(t, rec, usaOffset, usaSize)
	return rec
}

// applyFixupForTest writes a plausible update-sequence array into rec
// (a fixed check value plus the real trailing bytes of each sector),
// the inverse of what applyFixup later undoes.
func applyFixupForTest(t *testing.T, rec []byte, usaOffset uint16, usaSize uint16) {
	t.Helper()
	const check = 0x5151
	numSectors := int(usaSize) - 1
	binary.LittleEndian.PutUint16(rec[usaOffset:usaOffset+2], check)
	for i := 0; i < numSectors; i++ {
		sectorEnd := (i+1)*sectorSize - 2
		real := make([]byte, 2)
		copy(real, rec[sectorEnd:sectorEnd+2])
		binary.LittleEndian.PutUint16(rec[int(usaOffset)+2+i*2:int(usaOffset)+4+i*2], binary.LittleEndian.Uint16(real))
		binary.LittleEndian.PutUint16(rec[sectorEnd:sectorEnd+2], check)
	}
}

func TestApplyFixupRestoresSectorBytesAndDetectsMismatch(t *testing.T) {
	rec := buildRecord(t, 1, 0x01, 5, 1, "file.txt", 0, 0)
	if err := applyFixup(rec); err != nil {
		t.Fatalf("unexpected fixup error: %v", err)
	}

	bad := buildRecord(t, 1, 0x01, 5, 1, "file.txt", 0, 0)
	bad[sectorSize-1] ^= 0xFF // corrupt the sector-end check bytes
	if err := applyFixup(bad); err != errdefs.ErrFixupMismatch {
		t.Fatalf("expected ErrFixupMismatch, got %v", err)
	}
}

func TestParseRecordResidentFileName(t *testing.T) {
	rec := buildRecord(t, 7, 0x01|0x02, 5, 1, "docs", index.AttrDirectory, 0x01)
	parsed := ParseRecord(42, rec, nil)
	if parsed.ParseError != nil {
		t.Fatalf("unexpected parse error: %v", parsed.ParseError)
	}
	if parsed.Name != "docs" {
		t.Fatalf("name mismatch: got %q", parsed.Name)
	}
	if parsed.Id.RecordNumber() != 42 || parsed.Id.SequenceNumber() != 7 {
		t.Fatalf("id mismatch: got %v", parsed.Id)
	}
	if parsed.ParentId.RecordNumber() != 5 {
		t.Fatalf("parent record number mismatch: got %d", parsed.ParentId.RecordNumber())
	}
}

func TestParseRecordNotInUseIsNonFatal(t *testing.T) {
	rec := buildRecord(t, 1, 0x00, 5, 1, "gone.txt", 0, 0)
	parsed := ParseRecord(9, rec, nil)
	if parsed.ParseError != errdefs.ErrNotInUse {
		t.Fatalf("expected ErrNotInUse for a not-in-use record, got %v", parsed.ParseError)
	}
}

func TestParseRecordSkipsDosNamespace(t *testing.T) {
	rec := buildRecord(t, 1, 0x01, 5, 1, "LONGNA~1", 0, nameSpaceDos)
	parsed := ParseRecord(10, rec, nil)
	if parsed.ParseError != errdefs.ErrNoFileName {
		t.Fatalf("expected ErrNoFileName when only a DOS-namespace name is present, got %v / %+v", parsed.ParseError, parsed)
	}
}
