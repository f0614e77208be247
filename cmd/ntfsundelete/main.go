package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/shubham/ntfsundelete/internal/disk"
	"github.com/shubham/ntfsundelete/internal/ntfs"
)

type rootParameters struct {
	Image     string `long:"image" description:"Path to image file, block device, or mounted directory" required:"true"`
	OutputDir string `long:"output-dir" description:"Destination for reconstructed files (required unless --dry-run)"`
	DryRun    bool   `long:"dry-run" description:"Parse and list candidates; perform no writes"`
}

var rootArguments = new(rootParameters)

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}

	if err := validateArguments(rootArguments); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := run(rootArguments); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// validateArguments mirrors the original implementation's
// parse_and_validate: the output directory must exist unless this is a
// dry run (spec.md §6).
func validateArguments(args *rootParameters) error {
	if !args.DryRun && args.OutputDir == "" {
		return ntfs.NewInputValidationError("--output-dir is required unless --dry-run is set")
	}
	if !args.DryRun {
		if info, err := os.Stat(args.OutputDir); err != nil || !info.IsDir() {
			return ntfs.NewInputValidationError(fmt.Sprintf("output directory %q does not exist", args.OutputDir))
		}
	}
	return nil
}

func run(args *rootParameters) error {
	source, err := disk.Open(args.Image)
	if err != nil {
		return err
	}
	defer source.Close()

	var block [512]byte
	if _, err := source.ReadAt(block[:], 0); err != nil {
		return err
	}

	isoProbe := func() ([5]byte, error) {
		var sig [5]byte
		_, err := source.ReadAt(sig[:], 32769)
		return sig, err
	}

	kind, bs, err := ntfs.Classify(block, isoProbe)
	if err != nil {
		return err
	}
	if kind != ntfs.FileSystemNTFS {
		return ntfs.UnsupportedFileSystemError(kind)
	}

	mftOffset, err := ntfs.LocateMFT(source, bs)
	if err != nil {
		return err
	}

	mountRoot := ""
	if source.Kind() == disk.MountedDirectory {
		mountRoot = source.Path()
	}

	mftBytes, err := ntfs.ReadMFT(source, bs, mftOffset, mountRoot)
	if err != nil {
		return err
	}

	entries := ntfs.BuildCatalog(mftBytes, bs.RecordSize())
	if len(entries) == 0 {
		return ntfs.NewInputValidationError("No files selected")
	}

	if args.DryRun {
		for _, entry := range entries {
			fmt.Printf("Would write %s\n", filepath.Join(args.OutputDir, sanitizedOutputPath(entry.FullPath)))
		}
		return nil
	}

	return recoverEntries(source, bs, entries, args.OutputDir)
}

func recoverEntries(source *disk.Source, bs *ntfs.BootSector, entries []ntfs.UndeleteEntry, outputDir string) error {
	var failures []string

	for _, entry := range entries {
		outPath := filepath.Join(outputDir, sanitizedOutputPath(entry.FullPath))

		data := entry.Record.UnnamedData()
		content, err := ntfs.Reconstruct(source, data, bs.ClusterSize())
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", entry.FullPath, err))
			continue
		}

		if err := writeFile(outPath, content); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", entry.FullPath, err))
			continue
		}

		fmt.Printf("Recovered %s (%s bytes)\n", outPath, entry.SizeHuman())
	}

	if len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
		return fmt.Errorf("%d errors occurred", len(failures))
	}

	return nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

// sanitizedOutputPath turns a catalog FullPath — which preserves the
// original on-disk name verbatim — into a path safe to create on the
// host filesystem: each "/"-separated component has brackets, NUL, and
// embedded backslashes stripped or substituted before the components
// are rejoined with the host's separator (spec.md §6 / §4.7 step 5).
func sanitizedOutputPath(fullPath string) string {
	parts := strings.Split(fullPath, "/")
	for i, part := range parts {
		parts[i] = sanitizePathComponent(part)
	}
	return filepath.Join(parts...)
}

func sanitizePathComponent(name string) string {
	replacer := strings.NewReplacer(
		"[", "",
		"]", "",
		"\x00", "",
		"\\", "_",
	)
	return replacer.Replace(name)
}
