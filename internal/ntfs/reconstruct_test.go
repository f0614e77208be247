package ntfs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shubham/ntfsundelete/internal/disk"
	"github.com/shubham/ntfsundelete/internal/ntfs"
)

func TestReconstruct_ResidentIsVerbatim(t *testing.T) {
	data := &ntfs.DataAttribute{
		Residency:       ntfs.Resident,
		ResidentPayload: []byte("hello world\n"),
		RealSize:        12,
	}

	out, err := ntfs.Reconstruct(nil, data, 4096)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world\n"), out)
}

func TestReconstruct_NonResidentConcatenatesExtents(t *testing.T) {
	const clusterSize = 4096

	image := make([]byte, 200*1024)
	first := bytes.Repeat([]byte{0xAB}, 2*clusterSize)
	second := bytes.Repeat([]byte{0xCD}, 3*clusterSize)
	copy(image[10*clusterSize:], first)
	copy(image[20*clusterSize:], second)

	path := filepath.Join(t.TempDir(), "image.img")
	require.NoError(t, os.WriteFile(path, image, 0644))

	source, err := disk.Open(path)
	require.NoError(t, err)
	defer source.Close()

	data := &ntfs.DataAttribute{
		Residency: ntfs.NonResident,
		RealSize:  18000,
		DataRuns: []ntfs.DataRun{
			{Lcn: 10, Length: 2},
			{Lcn: 20, Length: 3},
		},
	}

	out, err := ntfs.Reconstruct(source, data, clusterSize)
	require.NoError(t, err)
	require.Len(t, out, 18000)
	require.True(t, bytes.Equal(out[:2*clusterSize], first))
	require.True(t, bytes.Equal(out[2*clusterSize:], second[:18000-2*clusterSize]))
}

func TestReconstruct_SparseRunEmitsZeros(t *testing.T) {
	const clusterSize = 4096

	image := make([]byte, 40*1024)
	payload := bytes.Repeat([]byte{0x42}, clusterSize)
	copy(image[5*clusterSize:], payload)

	path := filepath.Join(t.TempDir(), "image.img")
	require.NoError(t, os.WriteFile(path, image, 0644))

	source, err := disk.Open(path)
	require.NoError(t, err)
	defer source.Close()

	data := &ntfs.DataAttribute{
		Residency: ntfs.NonResident,
		RealSize:  uint64(2 * clusterSize),
		DataRuns: []ntfs.DataRun{
			{Sparse: true, Length: 1},
			{Lcn: 5, Length: 1},
		},
	}

	out, err := ntfs.Reconstruct(source, data, clusterSize)
	require.NoError(t, err)
	require.Equal(t, make([]byte, clusterSize), out[:clusterSize])
	require.Equal(t, payload, out[clusterSize:])
}

func TestReconstruct_EmptyDataAttribute(t *testing.T) {
	_, err := ntfs.Reconstruct(nil, nil, 4096)
	require.Error(t, err)

	var kindErr *ntfs.Error
	require.ErrorAs(t, err, &kindErr)
	require.Equal(t, ntfs.KindEmptyData, kindErr.Kind())
}

func TestReconstruct_CompressedIsUnsupported(t *testing.T) {
	data := &ntfs.DataAttribute{
		Residency:  ntfs.NonResident,
		RealSize:   4096,
		Compressed: true,
	}

	_, err := ntfs.Reconstruct(nil, data, 4096)
	require.Error(t, err)

	var kindErr *ntfs.Error
	require.ErrorAs(t, err, &kindErr)
	require.Equal(t, ntfs.KindEmptyData, kindErr.Kind())
}
