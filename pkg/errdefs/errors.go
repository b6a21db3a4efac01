// Package errdefs defines the sentinel errors quickfind's subsystems
// return and the mapping from those errors onto the wire error codes
// carried in an IPC response frame.
package errdefs

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// WireCode is the error field of a response frame.
type WireCode uint32

const (
	OK WireCode = iota
	Cancelled
	InvalidRequest
	InvalidResponse
	ServerNotInitialized
	DatabaseNotInitialized
	CouldNotConnectToServer
	OutOfMemory
	PlatformError
	CouldNotGetPath
	ConnectionTimeout
	IORead
	IOWrite
	NoResult
)

// Parse errors: per-record, non-fatal. The iterator skips the record
// and continues.
var (
	ErrBadMagic         = errors.New("mft record: bad magic")
	ErrNotInUse         = errors.New("mft record: slot not in use")
	ErrFixupMismatch    = errors.New("mft record: fixup check mismatch")
	ErrNoFileName       = errors.New("mft record: no resident FILE_NAME attribute")
	ErrAttrListTooDeep  = errors.New("mft record: attribute list recursion too deep")
	ErrAttributeOOB     = errors.New("mft record: attribute walked past record bounds")
	ErrRecordOutOfRange = errors.New("mft: record number not covered by any data run")
)

// I/O errors: terminal for the current operation.
var (
	ErrVolumeOpen = errors.New("volume: could not open")
	ErrSeek       = errors.New("volume: seek failed")
	ErrShortRead  = errors.New("volume: short read")
	ErrIO         = errors.New("volume: io error")
	ErrUSNRead    = errors.New("usn journal: read failed")
	ErrUSNQuery   = errors.New("usn journal: query failed")
)

// Protocol errors: terminal for the connection.
var (
	ErrShortFrame   = errors.New("ipc: short frame read")
	ErrBodyTooLarge = errors.New("ipc: request body exceeds 1 MiB")
	ErrUnknownType  = errors.New("ipc: unknown message type")
)

// Resource / state errors.
var (
	ErrOutOfMemory            = errors.New("query: result buffer exhausted")
	ErrDatabaseNotInitialized = errors.New("service: database not initialized")
	ErrServerNotInitialized   = errors.New("service: server not initialized")
	ErrSnapshotInvalid        = errors.New("snapshot: invalid or truncated file")
	ErrUnsupportedPlatform    = errors.New("volume: unsupported platform")
)

func Is(err error, target error) bool { return stderrors.Is(err, target) }

// Code maps an internal error onto the wire error code a response frame
// should carry. Unknown errors map to PlatformError, matching
// quickfind_server.c's catch-all branch.
func Code(err error) WireCode {
	switch {
	case err == nil:
		return OK
	case Is(err, ErrDatabaseNotInitialized):
		return DatabaseNotInitialized
	case Is(err, ErrServerNotInitialized):
		return ServerNotInitialized
	case Is(err, ErrOutOfMemory):
		return OutOfMemory
	case Is(err, ErrShortFrame), Is(err, ErrBodyTooLarge), Is(err, ErrUnknownType):
		return InvalidRequest
	case Is(err, ErrShortRead), Is(err, ErrIO), Is(err, ErrUSNRead), Is(err, ErrUSNQuery):
		return IORead
	case Is(err, ErrVolumeOpen), Is(err, ErrSeek):
		return PlatformError
	default:
		return PlatformError
	}
}

// String renders a WireCode the way a log line or CLI error would.
func (c WireCode) String() string {
	switch c {
	case OK:
		return "OK"
	case Cancelled:
		return "CANCELLED"
	case InvalidRequest:
		return "INVALID_REQUEST"
	case InvalidResponse:
		return "INVALID_RESPONSE"
	case ServerNotInitialized:
		return "SERVER_NOT_INITIALIZED"
	case DatabaseNotInitialized:
		return "DATABASE_NOT_INITIALIZED"
	case CouldNotConnectToServer:
		return "COULD_NOT_CONNECT_TO_SERVER"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case PlatformError:
		return "PLATFORM_ERROR"
	case CouldNotGetPath:
		return "COULD_NOT_GET_PATH"
	case ConnectionTimeout:
		return "CONNECTION_TIMEOUT"
	case IORead:
		return "IO_READ"
	case IOWrite:
		return "IO_WRITE"
	case NoResult:
		return "NO_RESULT"
	default:
		return "UNKNOWN"
	}
}
