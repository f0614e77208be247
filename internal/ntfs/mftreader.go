package ntfs

import (
	"os"
	"path/filepath"

	log "github.com/dsoprea/go-logging"

	"github.com/shubham/ntfsundelete/internal/disk"
)

var mftlog = log.NewLogger("ntfs.mftreader")

// ReadMFT returns the full MFT as a byte buffer, per spec.md §4.4: the
// record at mftOffset IS the MFT's own $MFT record (record 0); its
// unnamed $DATA attribute is resolved the same way any other file's
// would be, because the MFT is routinely large and fragmented.
//
// For a MountedDirectory source, the caller may pass mountRoot so this
// reader can take the $MFT-file shortcut described in spec.md §4.4 and
// §9: this shortcut is only ever taken here, for reading the table
// itself, never when reconstructing any other file from the same
// source.
func ReadMFT(source *disk.Source, bs *BootSector, mftOffset int64, mountRoot string) ([]byte, error) {
	if mountRoot != "" {
		if buf, ok := readMFTFileShortcut(mountRoot); ok {
			mftlog.Debugf(nil, "read $MFT via mounted-directory shortcut (%d bytes)", len(buf))
			return buf, nil
		}
	}

	recordSize := bs.RecordSize()
	buf := make([]byte, recordSize)
	if _, err := source.ReadAt(buf, mftOffset); err != nil {
		return nil, newError(KindIO, "reading $MFT record 0", err)
	}

	rec, err := DecodeRecord(buf, 0)
	if err != nil {
		return nil, err
	}

	data := rec.UnnamedData()
	if data == nil {
		return nil, newError(KindEmptyData, "$MFT record 0 has no $DATA attribute", nil)
	}

	return Reconstruct(source, data, bs.ClusterSize())
}

// readMFTFileShortcut attempts to read $MFT as an ordinary file at the
// root of a mounted NTFS volume. It is a best-effort shortcut: any
// failure simply falls through to the geometry-derived read.
func readMFTFileShortcut(mountRoot string) ([]byte, bool) {
	buf, err := os.ReadFile(filepath.Join(mountRoot, "$MFT"))
	if err != nil {
		return nil, false
	}
	return buf, true
}
