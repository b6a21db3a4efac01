//go:build !windows

package volume

import "github.com/quickfind/quickfind/pkg/errdefs"

// Open always fails on non-Windows platforms; the raw NTFS volume
// reader has no meaning off Windows. This keeps the package building
// on every platform, so internal/mft stays testable against a fake
// Reader while the real implementation only builds on Windows.
func Open(letter byte) (Reader, error) {
	return nil, errdefs.ErrUnsupportedPlatform
}
