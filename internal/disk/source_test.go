package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shubham/ntfsundelete/internal/disk"
	"github.com/shubham/ntfsundelete/internal/errs"
)

func TestOpen_ImageReportsKindAndSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	content := make([]byte, 4096)
	require.NoError(t, os.WriteFile(path, content, 0644))

	source, err := disk.Open(path)
	require.NoError(t, err)
	defer source.Close()

	require.Equal(t, disk.Image, source.Kind())
	require.Equal(t, path, source.Path())
	require.Equal(t, int64(len(content)), source.Size())
}

func TestOpen_MissingPathIsNotFound(t *testing.T) {
	_, err := disk.Open(filepath.Join(t.TempDir(), "missing.img"))
	require.Error(t, err)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.KindNotFound, e.Kind())
}

func TestSource_ReadAtIsPositioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	content := []byte("0123456789")
	require.NoError(t, os.WriteFile(path, content, 0644))

	source, err := disk.Open(path)
	require.NoError(t, err)
	defer source.Close()

	buf := make([]byte, 4)
	_, err = source.ReadAt(buf, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("5678"), buf)

	// Reading again from offset 0 must not be affected by the prior read.
	_, err = source.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("0123"), buf)
}
