//go:build windows

package volume

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/quickfind/quickfind/pkg/errdefs"
)

// windowsVolume opens a volume by drive letter for shared, unbuffered
// read access, grounded on the CreateFile usage in
// other_examples/7d94ea3c_fsnotify-fsnotify__backend_usn.go.go's
// setupVolumeMonitoring.
type windowsVolume struct {
	handle windows.Handle
}

// Open opens \\.\<letter>: for shared read access.
func Open(letter byte) (Reader, error) {
	path := fmt.Sprintf(`\\.\%c:`, letter)
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, errors.Wrap(errdefs.ErrVolumeOpen, err.Error())
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, errors.Wrapf(errdefs.ErrVolumeOpen, "open %s: %v", path, err)
	}
	return &windowsVolume{handle: handle}, nil
}

func (v *windowsVolume) ReadAt(buf []byte, off int64) error {
	if len(buf)%SectorSize != 0 || off%SectorSize != 0 {
		return errors.Wrap(errdefs.ErrSeek, "unaligned read")
	}

	var newPos int64
	if err := windows.SetFilePointerEx(v.handle, off, &newPos, windows.FILE_BEGIN); err != nil {
		return errors.Wrap(errdefs.ErrSeek, err.Error())
	}

	var read uint32
	if err := windows.ReadFile(v.handle, buf, &read, nil); err != nil {
		return errors.Wrap(errdefs.ErrIO, err.Error())
	}
	if int(read) != len(buf) {
		return errdefs.ErrShortRead
	}
	return nil
}

func (v *windowsVolume) Close() error {
	return windows.CloseHandle(v.handle)
}
