package disk

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shubham/ntfsundelete/internal/device"
	"github.com/shubham/ntfsundelete/internal/errs"
)

const defaultMountsPath = "/proc/mounts"

// Open normalizes a user-supplied path into a readable Source, per
// spec.md §4.2: a regular file is an Image, a device node is a
// BlockDevice, and an existing directory is resolved through the host
// mount table to the block device backing it.
func Open(path string) (*Source, error) {
	return open(path, defaultMountsPath)
}

func open(path, mountsPath string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.New(errs.KindNotFound, path, err)
	}

	if info.Mode()&os.ModeDevice != 0 || strings.HasPrefix(path, "/dev/") {
		return openAt(BlockDevice, path, path)
	}

	if info.IsDir() {
		devicePath, err := resolveMountedDirectory(path, mountsPath)
		if err != nil {
			return nil, err
		}
		return openAt(MountedDirectory, path, devicePath)
	}

	return openAt(Image, path, path)
}

// resolveMountedDirectory finds the block device backing a mounted
// directory. /proc/mounts is consulted first (spec.md §6: "host mount
// table ... is consulted only for the MountedDirectory case"); when that
// table cannot be read (non-Linux hosts) or has no entry for the
// directory, it falls back to the per-OS device enumeration in
// internal/device, generalizing what was
// originally only a TUI device picker into a second resolution strategy.
func resolveMountedDirectory(path, mountsPath string) (string, error) {
	clean := filepath.Clean(path)

	if devicePath, ok := lookupMountTable(mountsPath, clean); ok {
		return devicePath, nil
	}

	if devicePath, err := lookupDeviceList(clean); err == nil {
		return devicePath, nil
	}

	return "", errs.New(errs.KindMountNotFound, path, nil)
}

func lookupMountTable(mountsPath, mountpoint string) (string, bool) {
	f, err := os.Open(mountsPath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		devicePath, mountpointField := fields[0], fields[1]
		if filepath.Clean(mountpointField) == mountpoint {
			return devicePath, true
		}
	}
	return "", false
}

func lookupDeviceList(mountpoint string) (string, error) {
	devices, err := device.List()
	if err != nil {
		return "", err
	}
	for _, d := range devices {
		if d.Mountpoint != "" && filepath.Clean(d.Mountpoint) == mountpoint {
			return d.Path, nil
		}
	}
	return "", fmt.Errorf("no device backs mountpoint %s", mountpoint)
}
