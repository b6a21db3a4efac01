//go:build !windows

package usn

import (
	"context"

	"github.com/quickfind/quickfind/pkg/errdefs"
)

// Reader is the non-Windows stand-in: the USN journal is a Windows-only
// concept, so every method fails with ErrUnsupportedPlatform. Keeping
// the type here lets internal/service and internal/usn's coalescing
// logic build and unit-test on any platform.
type Reader struct{}

func OpenReader(letter byte) (*Reader, error) { return nil, errdefs.ErrUnsupportedPlatform }

func (r *Reader) Close() error { return nil }

func (r *Reader) Query() (Cursor, error) { return Cursor{}, errdefs.ErrUnsupportedPlatform }

func (r *Reader) Poll(ctx context.Context, cursor Cursor) ([]Change, Cursor, error) {
	return nil, cursor, errdefs.ErrUnsupportedPlatform
}
