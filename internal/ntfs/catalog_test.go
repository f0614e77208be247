package ntfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shubham/ntfsundelete/internal/ntfs"
)

const recordSize = 1024

func placeRecord(mft []byte, ordinal int, record []byte) {
	copy(mft[ordinal*recordSize:(ordinal+1)*recordSize], record)
}

func buildRootRecord() []byte {
	b := newRecordBuilder(recordSize)
	b.setAttrsOffset(56)
	b.writeEnd(56)
	return b.finish(true, true)
}

func buildDirectoryRecord(parent uint64, name string) []byte {
	b := newRecordBuilder(recordSize)
	b.setAttrsOffset(56)
	offset := writeResidentFileName(b.buf, 56, parent, name, 1, 0)
	b.writeEnd(offset)
	return b.finish(true, true)
}

func buildDeletedFileRecord(parent uint64, name string, content []byte) []byte {
	b := newRecordBuilder(recordSize)
	b.setAttrsOffset(56)
	offset := writeResidentFileName(b.buf, 56, parent, name, 1, uint64(len(content)))
	offset = writeResidentData(b.buf, offset, content)
	b.writeEnd(offset)
	return b.finish(false, false)
}

func TestBuildCatalog_RetainsOnlyUnallocatedNonDirectory(t *testing.T) {
	mft := make([]byte, 101*recordSize)
	placeRecord(mft, 5, buildRootRecord())
	placeRecord(mft, 50, buildDirectoryRecord(5, "sub"))
	placeRecord(mft, 100, buildDeletedFileRecord(50, "doc.txt", []byte("hello world\n")))

	entries := ntfs.BuildCatalog(mft, recordSize)

	require.Len(t, entries, 1)
	require.Equal(t, uint64(100), entries[0].RecordNumber)
	require.Equal(t, "sub/doc.txt", entries[0].FullPath)
	require.Equal(t, uint64(len("hello world\n")), entries[0].Size)
}

func TestBuildCatalog_SkipsCorruptRecords(t *testing.T) {
	mft := make([]byte, 10*recordSize)
	b := newRecordBuilder(recordSize)
	copy(b.buf[0:4], "BAAD")
	placeRecord(mft, 5, b.buf)
	placeRecord(mft, 8, buildDeletedFileRecord(5, "file.txt", []byte("x")))

	entries := ntfs.BuildCatalog(mft, recordSize)

	require.Len(t, entries, 1)
	require.Equal(t, "file.txt", entries[0].FullPath)
}

func TestBuildCatalog_AllocatedRecordsAreExcluded(t *testing.T) {
	mft := make([]byte, 10*recordSize)
	placeRecord(mft, 5, buildRootRecord())

	b := newRecordBuilder(recordSize)
	b.setAttrsOffset(56)
	offset := writeResidentFileName(b.buf, 56, 5, "still-there.txt", 1, 1)
	offset = writeResidentData(b.buf, offset, []byte("x"))
	b.writeEnd(offset)
	placeRecord(mft, 8, b.finish(true, false)) // InUse set

	entries := ntfs.BuildCatalog(mft, recordSize)
	require.Empty(t, entries)
}

func TestBuildCatalog_PathPreservesOriginalName(t *testing.T) {
	mft := make([]byte, 10*recordSize)
	placeRecord(mft, 5, buildRootRecord())
	placeRecord(mft, 8, buildDeletedFileRecord(5, "weird[1].txt", []byte("x")))

	entries := ntfs.BuildCatalog(mft, recordSize)
	require.Len(t, entries, 1)
	require.Equal(t, "weird[1].txt", entries[0].FullPath)
}
