package ntfs

import (
	"encoding/binary"

	log "github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"

	"github.com/shubham/ntfsundelete/internal/fat32"
)

var bslog = log.NewLogger("ntfs.bootsector")

// FileSystemKind is the result of classifying a 512-byte boot sector.
// It mirrors the original implementation's FileSystems enum: every kind
// the classifier can recognize, not only the one (NTFS) the core knows
// how to undelete from.
type FileSystemKind int

const (
	FileSystemUnknown FileSystemKind = iota
	FileSystemNTFS
	FileSystemFAT
	FileSystemISO9660
	FileSystemHFS
	FileSystemEXT
)

func (k FileSystemKind) String() string {
	switch k {
	case FileSystemNTFS:
		return "NTFS"
	case FileSystemFAT:
		return "FAT"
	case FileSystemISO9660:
		return "ISO9660"
	case FileSystemHFS:
		return "HFS"
	case FileSystemEXT:
		return "EXT"
	default:
		return "Unknown"
	}
}

const bootSectorStructSize = 0x54

// BootSector is the on-disk NTFS boot sector, decoded verbatim from the
// first bootSectorStructSize bytes of the medium. Fields the core never
// consumes (boot code, the 0x55AA signature) are left undecoded.
type BootSector struct {
	Jump                         [3]byte
	OEMID                        [8]byte
	BytesPerSector               uint16
	SectorsPerCluster            uint8
	ReservedSectors              uint16
	ReservedNumFatsAndRootEntry  [3]byte
	ReservedTotalSectors16       uint16
	MediaDescriptor              uint8
	ReservedSectorsPerFat16      uint16
	SectorsPerTrack              uint16
	NumHeads                     uint16
	HiddenSectors                uint32
	ReservedBPB1                 [4]byte
	ReservedBPB2                 [4]byte
	TotalSectors                 uint64
	MftLcn                       uint64
	MftMirrorLcn                 uint64
	ClustersPerFileRecordSegment int8
	ReservedFileRecordPadding    [3]byte
	ClustersPerIndexBuffer       int8
	ReservedIndexPadding         [3]byte
	VolumeSerialNumber           uint64
	Checksum                     uint32
}

// ClusterSize returns bytes_per_sector * sectors_per_cluster.
func (bs *BootSector) ClusterSize() int {
	return int(bs.BytesPerSector) * int(bs.SectorsPerCluster)
}

// RecordSize honors the signed clusters_per_file_record_segment rule:
// a positive value is a cluster count, a negative value sign-extends to
// 1 << -value bytes. Skipping this rule silently mis-sizes every MFT
// record buffer (spec.md design note, §9).
func (bs *BootSector) RecordSize() int {
	if bs.ClustersPerFileRecordSegment > 0 {
		return int(bs.ClustersPerFileRecordSegment) * bs.ClusterSize()
	}
	return 1 << uint(-bs.ClustersPerFileRecordSegment)
}

// MftOffset is the primary (geometry-derived) absolute byte offset of the
// MFT. MftLocator verifies it and falls back to a signature scan when it
// does not hold.
func (bs *BootSector) MftOffset() int64 {
	return int64(bs.MftLcn) * int64(bs.ClusterSize())
}

// Classify inspects the signature windows of a 512-byte boot sector block
// in the precedence spec.md §4.1 declares, and for NTFS decodes the full
// boot sector. The ISO9660 check additionally requires a read at absolute
// offset 32769, which Classify delegates to the isoProbe callback; a nil
// isoProbe skips the ISO9660 check.
func Classify(block [512]byte, isoProbe func() ([5]byte, error)) (FileSystemKind, *BootSector, error) {
	if string(block[3:7]) == "NTFS" {
		bs, err := decodeBootSector(block)
		if err != nil {
			return FileSystemUnknown, nil, err
		}
		return FileSystemNTFS, bs, nil
	}

	if isoProbe != nil {
		if sig, err := isoProbe(); err == nil && string(sig[:]) == "CD001" {
			return FileSystemISO9660, nil, nil
		}
	}

	if fat32.Identify(block) {
		fatbs := fat32.DecodeBootSector(block)
		bslog.Debugf(nil, "fat boot sector: cluster_size=%d root_cluster=%d",
			fatbs.ClusterSize(), fatbs.RootCluster)
		return FileSystemFAT, nil, nil
	}

	if string(block[0:2]) == "H+" || string(block[0:4]) == "HFSJ" || string(block[0:4]) == "HFS+" {
		return FileSystemHFS, nil, nil
	}

	if block[56] == 0x53 && block[57] == 0xEF {
		return FileSystemEXT, nil, nil
	}

	return FileSystemUnknown, nil, nil
}

func decodeBootSector(block [512]byte) (*BootSector, error) {
	bs := &BootSector{}

	err := restruct.Unpack(block[:bootSectorStructSize], binary.LittleEndian, bs)
	if err != nil {
		return nil, newError(KindIO, "decoding boot sector", err)
	}

	if bs.BytesPerSector != 512 && bs.BytesPerSector != 1024 &&
		bs.BytesPerSector != 2048 && bs.BytesPerSector != 4096 {
		bslog.Warningf(nil, "unusual bytes-per-sector value: %d", bs.BytesPerSector)
	}

	bslog.Debugf(nil, "ntfs boot sector: cluster_size=%d record_size=%d mft_lcn=%d",
		bs.ClusterSize(), bs.RecordSize(), bs.MftLcn)

	return bs, nil
}
