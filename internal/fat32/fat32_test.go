package fat32

import (
	"encoding/binary"
	"testing"
)

func buildFAT32BootSector() [512]byte {
	var block [512]byte

	block[0] = 0xEB
	block[1] = 0x58
	block[2] = 0x90
	copy(block[3:11], "MSDOS5.0")
	binary.LittleEndian.PutUint16(block[11:13], 512)
	block[13] = 8
	binary.LittleEndian.PutUint16(block[14:16], 32)
	block[16] = 2
	binary.LittleEndian.PutUint32(block[32:36], 2097152)
	binary.LittleEndian.PutUint32(block[36:40], 2048)
	binary.LittleEndian.PutUint32(block[44:48], 2)
	copy(block[82:90], "FAT32   ")
	block[510] = 0x55
	block[511] = 0xAA

	return block
}

func TestIdentify(t *testing.T) {
	block := buildFAT32BootSector()
	// Identify's signature window is bytes 36..39.
	copy(block[36:39], "FAT")
	if !Identify(block) {
		t.Fatalf("expected FAT signature to be recognized")
	}

	var other [512]byte
	copy(other[36:39], "XXX")
	if Identify(other) {
		t.Fatalf("expected non-FAT block to be rejected")
	}
}

func TestDecodeBootSector(t *testing.T) {
	block := buildFAT32BootSector()
	bs := DecodeBootSector(block)

	if bs.BytesPerSector != 512 {
		t.Errorf("expected 512 bytes per sector, got %d", bs.BytesPerSector)
	}
	if bs.SectorsPerCluster != 8 {
		t.Errorf("expected 8 sectors per cluster, got %d", bs.SectorsPerCluster)
	}
	if bs.RootCluster != 2 {
		t.Errorf("expected root cluster 2, got %d", bs.RootCluster)
	}
	if bs.ClusterSize() != 512*8 {
		t.Errorf("expected cluster size %d, got %d", 512*8, bs.ClusterSize())
	}
}
