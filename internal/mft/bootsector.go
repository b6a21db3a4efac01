package mft

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/quickfind/quickfind/pkg/errdefs"
)

// ParseBootSector decodes the fields quickfind needs from an NTFS boot
// sector. buf must be at least 512 bytes.
func ParseBootSector(buf []byte) (BootSector, error) {
	if len(buf) < sectorSize {
		return BootSector{}, errors.Wrap(errdefs.ErrShortRead, "boot sector")
	}

	var bs BootSector
	bs.BytesPerSector = binary.LittleEndian.Uint16(buf[0x0B:0x0D])
	bs.SectorsPerCluster = buf[0x0D]
	bs.MFTStartCluster = binary.LittleEndian.Uint64(buf[0x30:0x38])

	if bs.BytesPerSector == 0 || bs.SectorsPerCluster == 0 {
		return BootSector{}, errors.Wrap(errdefs.ErrVolumeOpen, "boot sector: zero sector geometry")
	}
	return bs, nil
}
