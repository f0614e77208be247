package ntfs_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shubham/ntfsundelete/internal/ntfs"
)

func buildNTFSBootSector(bytesPerSector uint16, sectorsPerCluster uint8, mftLcn uint64, clustersPerRecord int8) [512]byte {
	var block [512]byte
	copy(block[3:7], "NTFS")
	binary.LittleEndian.PutUint16(block[11:13], bytesPerSector)
	block[13] = sectorsPerCluster
	binary.LittleEndian.PutUint64(block[48:56], mftLcn)
	block[64] = byte(clustersPerRecord)
	return block
}

func TestClassify_NTFS(t *testing.T) {
	block := buildNTFSBootSector(512, 8, 100, -10 /* 0xF6 */)

	kind, bs, err := ntfs.Classify(block, nil)
	require.NoError(t, err)
	require.Equal(t, ntfs.FileSystemNTFS, kind)
	require.NotNil(t, bs)
	require.Equal(t, 4096, bs.ClusterSize())
	require.Equal(t, int64(100*4096), bs.MftOffset())
}

func TestClassify_RecordSizeSignedEncoding(t *testing.T) {
	positive := buildNTFSBootSector(512, 8, 0, 2)
	_, bs, err := ntfs.Classify(positive, nil)
	require.NoError(t, err)
	require.Equal(t, 2*4096, bs.RecordSize())

	negative := buildNTFSBootSector(512, 8, 0, -10) // 0xF6 -> 1<<10
	_, bs, err = ntfs.Classify(negative, nil)
	require.NoError(t, err)
	require.Equal(t, 1<<10, bs.RecordSize())
}

func TestClassify_FAT(t *testing.T) {
	var block [512]byte
	copy(block[36:39], "FAT")

	kind, bs, err := ntfs.Classify(block, nil)
	require.NoError(t, err)
	require.Equal(t, ntfs.FileSystemFAT, kind)
	require.Nil(t, bs)
}

func TestClassify_ISO9660(t *testing.T) {
	var block [512]byte
	probe := func() ([5]byte, error) {
		return [5]byte{'C', 'D', '0', '0', '1'}, nil
	}

	kind, _, err := ntfs.Classify(block, probe)
	require.NoError(t, err)
	require.Equal(t, ntfs.FileSystemISO9660, kind)
}

func TestClassify_Unknown(t *testing.T) {
	var block [512]byte
	kind, bs, err := ntfs.Classify(block, nil)
	require.NoError(t, err)
	require.Equal(t, ntfs.FileSystemUnknown, kind)
	require.Nil(t, bs)
}

func TestUnsupportedFileSystemError(t *testing.T) {
	err := ntfs.UnsupportedFileSystemError(ntfs.FileSystemFAT)
	require.Error(t, err)

	var kindErr *ntfs.Error
	require.ErrorAs(t, err, &kindErr)
	require.Equal(t, ntfs.KindUnsupportedFileSystem, kindErr.Kind())
}
