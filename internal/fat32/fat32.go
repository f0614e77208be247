// Package fat32 identifies a FAT32 volume from its boot sector.
//
// Recovering FAT32 content is explicitly out of scope for this module
// (spec.md's Non-goals: "support for non-NTFS file systems beyond
// identification") — BootSectorDecoder uses only the identification half
// of what used to be a full FAT32 recovery parser here, so the directory
// scanning, cluster-chain walking, and file extraction that package used
// to do have been dropped; see DESIGN.md.
package fat32

import "encoding/binary"

// BootSector is the subset of the FAT32 BIOS parameter block needed to
// describe a volume's geometry for diagnostic logging once a medium is
// classified as FAT.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	FATSize32         uint32
	RootCluster       uint32
}

// ClusterSize returns bytes_per_sector * sectors_per_cluster.
func (bs *BootSector) ClusterSize() int {
	return int(bs.BytesPerSector) * int(bs.SectorsPerCluster)
}

// Identify reports whether a 512-byte boot sector block carries the FAT
// signature BootSectorDecoder looks for (spec.md §4.1: bytes 36..39 ==
// "FAT").
func Identify(block [512]byte) bool {
	return string(block[36:39]) == "FAT"
}

// DecodeBootSector decodes the geometry fields of a FAT boot sector for
// diagnostics. It does not validate the FAT signature; callers should
// check Identify first.
func DecodeBootSector(block [512]byte) *BootSector {
	return &BootSector{
		BytesPerSector:    binary.LittleEndian.Uint16(block[11:13]),
		SectorsPerCluster: block[13],
		ReservedSectors:   binary.LittleEndian.Uint16(block[14:16]),
		NumFATs:           block[16],
		FATSize32:         binary.LittleEndian.Uint32(block[36:40]),
		RootCluster:       binary.LittleEndian.Uint32(block[44:48]),
	}
}
