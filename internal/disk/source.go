// Package disk resolves a user-supplied path into a readable, seekable
// byte stream over an NTFS volume, and performs the positioned reads the
// rest of the module issues against it.
package disk

import (
	"io"
	"os"

	log "github.com/dsoprea/go-logging"
)

var srclog = log.NewLogger("disk.source")

// Kind is the shape of path SourceResolver was given, per spec.md §3.
// It is fixed at construction.
type Kind int

const (
	Image Kind = iota
	BlockDevice
	MountedDirectory
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "Image"
	case BlockDevice:
		return "BlockDevice"
	case MountedDirectory:
		return "MountedDirectory"
	default:
		return "Unknown"
	}
}

// Source is an open, read-only handle to the medium backing an NTFS
// volume: a disk image file, a block device node, or — for the
// MountedDirectory case — the block device a mount point resolved to.
// The stream supports positioned random reads over the full medium
// length, not merely the apparent length of whatever path was opened.
type Source struct {
	kind Kind
	// path is the path SourceResolver was asked to open; devicePath is
	// the path actually backing the stream (equal to path except for
	// MountedDirectory, where it is the resolved block device node).
	path       string
	devicePath string
	file       *os.File
	size       int64
}

func (s *Source) Kind() Kind        { return s.kind }
func (s *Source) Path() string      { return s.path }
func (s *Source) DevicePath() string { return s.devicePath }
func (s *Source) Size() int64       { return s.size }

// ReadAt issues a positioned read against the medium. The current file
// position is never relied upon by any caller in this module; every read
// is seek-then-read via ReadAt.
func (s *Source) ReadAt(buf []byte, offset int64) (int, error) {
	return s.file.ReadAt(buf, offset)
}

// Close releases the open handle. Every opened Source is closed on every
// exit path, success or error, by its owner (spec.md §5).
func (s *Source) Close() error {
	return s.file.Close()
}

func openAt(kind Kind, requestedPath, devicePath string) (*Source, error) {
	file, err := os.Open(devicePath)
	if err != nil {
		return nil, err
	}

	size, err := deviceSize(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	srclog.Debugf(nil, "opened %s source %s (device %s, %d bytes)", kind, requestedPath, devicePath, size)

	return &Source{
		kind:       kind,
		path:       requestedPath,
		devicePath: devicePath,
		file:       file,
		size:       size,
	}, nil
}

// deviceSize determines the full readable length of an open handle. A
// regular file reports its size via Stat; a block device's apparent
// Stat size is usually 0, so the length is instead found by seeking to
// the end (mirroring how the teacher's reader handled this), which then
// seeks back to the start before returning.
func deviceSize(file *os.File) (int64, error) {
	stat, err := file.Stat()
	if err != nil {
		return 0, err
	}

	if stat.Size() > 0 {
		return stat.Size(), nil
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}
