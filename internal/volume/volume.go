// Package volume implements raw, unbuffered volume I/O: opening a
// drive letter for shared read and issuing sector-aligned reads at an
// absolute byte offset. The caller owns all paging policy; this
// package does no buffering of its own.
package volume

import "io"

// SectorSize is the fixed NTFS/disk sector size quickfind assumes.
// Reads must be multiples of this length, at offsets that are
// multiples of it too.
const SectorSize = 512

// Reader is the platform-independent surface the MFT reader
// (internal/mft) depends on, so it can be unit-tested without a real
// NTFS volume. internal/usn opens its own journal handle and does not
// use Reader. The
// Windows implementation lives in volume_windows.go; other platforms
// get volume_other.go, which always returns ErrUnsupportedPlatform.
type Reader interface {
	io.Closer
	// ReadAt reads exactly len(buf) bytes starting at absolute byte
	// offset off. Both len(buf) and off must be multiples of SectorSize.
	ReadAt(buf []byte, off int64) error
}
