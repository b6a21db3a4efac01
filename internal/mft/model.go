// Package mft decodes the NTFS Master File Table: the boot sector, the
// per-record fixup/update-sequence array, the attribute walk (including
// attribute-list indirection), and the data-run encoding used both by
// $MFT's own $DATA attribute and by every non-resident attribute.
package mft

import "github.com/quickfind/quickfind/internal/index"

const (
	recordSize       = 1024
	sectorSize       = 512
	endOfAttributes  = 0xFFFFFFFF
	attrTypeFileName = 0x30
	attrTypeAttrList = 0x20
	nameSpaceDos     = 0x02

	// maxAttributeListDepth guards against cyclic attribute lists when
	// resolving an external FILE_NAME through an ATTRIBUTE_LIST
	// indirection, following original_source/quickfind_ntfs.c's
	// recursion guard.
	maxAttributeListDepth = 4

	maxDataRuns = 128
)

// BootSector holds the geometry fields decoded from the volume's first
// 512 bytes.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	MFTStartCluster   uint64
}

// BytesPerCluster is a convenience derived value.
func (b BootSector) BytesPerCluster() uint64 {
	return uint64(b.BytesPerSector) * uint64(b.SectorsPerCluster)
}

// DataRun is one decoded (length, absolute-offset) extent, in bytes.
type DataRun struct {
	LengthBytes    uint64
	AbsoluteOffset uint64
}

// ParsedRecord is the MFT parser's output for one record.
type ParsedRecord struct {
	Id         index.RecordId
	ParentId   index.RecordId
	Name       string
	Attributes uint32
	ParseError error // non-nil for a per-record, non-fatal parse failure
}
