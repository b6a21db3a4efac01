// Package snapshot implements the on-disk codec for the index: a small
// header followed by three length-prefixed byte arrays, written to a
// temp file and renamed into place to avoid torn snapshots, and
// zstd-compressed on disk.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/quickfind/quickfind/internal/index"
	"github.com/quickfind/quickfind/pkg/errdefs"
)

// magic identifies a quickfind snapshot file. original_source/'s
// on-disk format carries no version header; this implementation adds
// one so the format can evolve without silently misreading old files.
const (
	magic   = "QFDB"
	version = 1
)

// State is everything Save/Load round-trips: the three index buffers
// plus the USN cursor and tombstone count.
type State struct {
	JournalId            uint64
	LatestUsn            int64
	RecordsNotInUseCount uint32

	Names   []byte
	Records []index.Record
	Lookup  []uint32
}

// FromStore captures a State from a live index.Store plus cursor.
func FromStore(s *index.Store, journalId uint64, latestUsn int64) State {
	return State{
		JournalId:            journalId,
		LatestUsn:            latestUsn,
		RecordsNotInUseCount: uint32(s.TombstoneCount),
		Names:                s.Names,
		Records:              s.Records,
		Lookup:               s.Lookup,
	}
}

// ApplyTo restores a State into an index.Store in place.
func (st State) ApplyTo(s *index.Store) {
	s.Names = st.Names
	s.Records = st.Records
	s.Lookup = st.Lookup
	s.TombstoneCount = int(st.RecordsNotInUseCount)
}

// Save writes State to path using the write-temp-then-rename pattern.
// A unique temp suffix (via xid) avoids collisions between overlapping
// save attempts.
func Save(path string, st State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "snapshot: create directory")
	}

	tmpPath := path + "." + xid.New().String() + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "snapshot: create temp file")
	}

	if err := writeState(f, st); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "snapshot: close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "snapshot: rename into place")
	}
	return nil
}

func writeState(w io.Writer, st State) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "snapshot: zstd writer")
	}
	bw := bufio.NewWriter(zw)

	var hdr [4 + 2 + 8 + 8 + 4]byte
	copy(hdr[0:4], magic)
	binary.LittleEndian.PutUint16(hdr[4:6], version)
	binary.LittleEndian.PutUint64(hdr[6:14], st.JournalId)
	binary.LittleEndian.PutUint64(hdr[14:22], uint64(st.LatestUsn))
	binary.LittleEndian.PutUint32(hdr[22:26], st.RecordsNotInUseCount)
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	if err := writeBlock(bw, st.Names); err != nil {
		return err
	}
	if err := writeBlock(bw, encodeRecords(st.Records)); err != nil {
		return err
	}
	if err := writeBlock(bw, encodeLookup(st.Lookup)); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

func writeBlock(w io.Writer, b []byte) error {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Load reads and validates a snapshot file. Any corruption or
// truncation causes ErrSnapshotInvalid, which the caller treats as "no
// snapshot" and triggers a full rebuild rather than failing startup.
func Load(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return State{}, errors.Wrap(errdefs.ErrSnapshotInvalid, err.Error())
	}
	defer f.Close()

	st, err := readState(f)
	if err != nil {
		return State{}, errors.Wrap(errdefs.ErrSnapshotInvalid, err.Error())
	}
	return st, nil
}

func readState(r io.Reader) (State, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return State{}, err
	}
	defer zr.Close()

	var hdr [4 + 2 + 8 + 8 + 4]byte
	if _, err := io.ReadFull(zr, hdr[:]); err != nil {
		return State{}, err
	}
	if string(hdr[0:4]) != magic {
		return State{}, errors.New("bad magic")
	}
	if binary.LittleEndian.Uint16(hdr[4:6]) != version {
		return State{}, errors.New("unsupported snapshot version")
	}

	st := State{
		JournalId:            binary.LittleEndian.Uint64(hdr[6:14]),
		LatestUsn:            int64(binary.LittleEndian.Uint64(hdr[14:22])),
		RecordsNotInUseCount: binary.LittleEndian.Uint32(hdr[22:26]),
	}

	names, err := readBlock(zr)
	if err != nil {
		return State{}, err
	}
	recordsRaw, err := readBlock(zr)
	if err != nil {
		return State{}, err
	}
	lookupRaw, err := readBlock(zr)
	if err != nil {
		return State{}, err
	}

	st.Names = names
	st.Records, err = decodeRecords(recordsRaw)
	if err != nil {
		return State{}, err
	}
	st.Lookup = decodeLookup(lookupRaw)
	return st, nil
}

func readBlock(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	const maxBlock = 1 << 34 // generous sanity bound against a corrupt length prefix
	if n > maxBlock {
		return nil, errors.New("block length implausibly large")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

const recordEncodedSize = 8 + 8 + 4 + 4

func encodeRecords(records []index.Record) []byte {
	out := make([]byte, len(records)*recordEncodedSize)
	for i, r := range records {
		b := out[i*recordEncodedSize:]
		binary.LittleEndian.PutUint64(b[0:8], uint64(r.Id))
		binary.LittleEndian.PutUint64(b[8:16], uint64(r.ParentId))
		binary.LittleEndian.PutUint32(b[16:20], r.Attributes)
		binary.LittleEndian.PutUint32(b[20:24], r.NameOffset)
	}
	return out
}

func decodeRecords(buf []byte) ([]index.Record, error) {
	if len(buf)%recordEncodedSize != 0 {
		return nil, errors.New("record block length not a multiple of record size")
	}
	n := len(buf) / recordEncodedSize
	records := make([]index.Record, n)
	for i := 0; i < n; i++ {
		b := buf[i*recordEncodedSize:]
		records[i] = index.Record{
			Id:         index.RecordId(binary.LittleEndian.Uint64(b[0:8])),
			ParentId:   index.RecordId(binary.LittleEndian.Uint64(b[8:16])),
			Attributes: binary.LittleEndian.Uint32(b[16:20]),
			NameOffset: binary.LittleEndian.Uint32(b[20:24]),
		}
	}
	return records, nil
}

func encodeLookup(lookup []uint32) []byte {
	out := make([]byte, len(lookup)*4)
	for i, v := range lookup {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], v)
	}
	return out
}

func decodeLookup(buf []byte) []uint32 {
	n := len(buf) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return out
}
