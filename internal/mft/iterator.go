package mft

import (
	"io"

	"github.com/pkg/errors"

	"github.com/quickfind/quickfind/internal/volume"
	"github.com/quickfind/quickfind/pkg/errdefs"
)

// Iterator streams ParsedRecords from $MFT's own data runs, one
// caller-sized chunk at a time.
type Iterator struct {
	vol   volume.Reader
	boot  BootSector
	runs  []DataRun
	chunk int // bytes per read, a multiple of recordSize

	runIdx       int
	offsetInRun  uint64
	recordNumber uint64
}

// Open reads the boot sector and $MFT's own record from the already
// opened vol, and resolves its
// $DATA attribute's runs. chunkSize must be a multiple of 1024; the
// caller owns the paging-buffer-size tradeoff.
func Open(vol volume.Reader, chunkSize int) (*Iterator, error) {
	if chunkSize <= 0 || chunkSize%recordSize != 0 {
		return nil, errors.New("mft: chunk size must be a positive multiple of 1024")
	}

	bootBuf := make([]byte, sectorSize)
	if err := vol.ReadAt(bootBuf, 0); err != nil {
		return nil, errors.Wrap(err, "read boot sector")
	}
	boot, err := ParseBootSector(bootBuf)
	if err != nil {
		return nil, err
	}

	mftRecordOffset := int64(boot.MFTStartCluster * boot.BytesPerCluster())
	raw := make([]byte, recordSize)
	if err := vol.ReadAt(raw, mftRecordOffset); err != nil {
		return nil, errors.Wrap(err, "read $MFT record")
	}
	rawCopy := append([]byte(nil), raw...)
	if err := applyFixup(rawCopy); err != nil {
		return nil, err
	}

	attrs, _ := walkAttributes(rawCopy)
	var runs []DataRun
	for _, a := range attrs {
		if a.typ == 0x80 && a.nonResident { // $DATA
			runs = decodeDataRuns(rawCopy, a.dataRunOffset, boot.BytesPerCluster())
			break
		}
	}
	if len(runs) == 0 {
		return nil, errors.New("mft: $MFT has no $DATA data runs")
	}

	return &Iterator{vol: vol, boot: boot, runs: runs, chunk: chunkSize}, nil
}

// Advance returns the next successfully parsed record, or io.EOF when
// every data run has been exhausted. A record that fails to parse is
// skipped and the stream continues with the next one; such records are
// never returned.
func (it *Iterator) Advance() (ParsedRecord, error) {
	for it.runIdx < len(it.runs) {
		run := it.runs[it.runIdx]
		if it.offsetInRun >= run.LengthBytes {
			it.runIdx++
			it.offsetInRun = 0
			continue
		}

		remaining := run.LengthBytes - it.offsetInRun
		readLen := uint64(it.chunk)
		if readLen > remaining {
			readLen = remaining - remaining%recordSize
			if readLen == 0 {
				readLen = remaining
			}
		}
		// Round down to a sector-aligned, record-sized read.
		readLen -= readLen % recordSize
		if readLen == 0 {
			it.runIdx++
			it.offsetInRun = 0
			continue
		}

		buf := make([]byte, readLen)
		if err := it.vol.ReadAt(buf, int64(run.AbsoluteOffset+it.offsetInRun)); err != nil {
			return ParsedRecord{}, errors.Wrap(err, "mft: read chunk")
		}

		for off := 0; off+recordSize <= len(buf); off += recordSize {
			recNum := it.recordNumber
			it.recordNumber++
			it.offsetInRun += recordSize

			raw := append([]byte(nil), buf[off:off+recordSize]...)
			parsed := ParseRecord(recNum, raw, it)
			if parsed.ParseError != nil {
				continue // per-record failure, iterator continues
			}
			return parsed, nil
		}
	}
	return ParsedRecord{}, io.EOF
}

// ReadRecord implements RecordSource: locate the absolute byte offset
// of an arbitrary record number by walking the data runs, maintaining a
// running count of records covered so far until the target falls
// within a run's range.
func (it *Iterator) ReadRecord(recordNumber uint64) ([]byte, error) {
	off, err := it.offsetOf(recordNumber)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, recordSize)
	if err := it.vol.ReadAt(raw, off); err != nil {
		return nil, errors.Wrap(err, "mft: read external record")
	}
	return raw, nil
}

func (it *Iterator) offsetOf(recordNumber uint64) (int64, error) {
	recordsCovered := uint64(0)
	for _, run := range it.runs {
		runRecords := run.LengthBytes / recordSize
		if recordNumber < recordsCovered+runRecords {
			idxInRun := recordNumber - recordsCovered
			return int64(run.AbsoluteOffset + idxInRun*recordSize), nil
		}
		recordsCovered += runRecords
	}
	return 0, errdefs.ErrRecordOutOfRange
}
