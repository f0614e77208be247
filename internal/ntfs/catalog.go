package ntfs

import (
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/dsoprea/go-logging"
)

var cataloglog = log.NewLogger("ntfs.catalog")

const rootRecordNumber = 5

// UndeleteEntry is one candidate surfaced by BuildCatalog: an unallocated,
// non-directory MFT record with at least one readable FILE_NAME.
type UndeleteEntry struct {
	RecordNumber uint64
	FullPath     string
	Size         uint64
	Record       *MftRecord
}

// SizeHuman renders Size the way the CLI and TUI display it, following
// the pack's convention of comma-grouped byte counts rather than
// binary-prefix rounding (see internal/ntfs's grounding in DESIGN.md).
func (e *UndeleteEntry) SizeHuman() string {
	return humanize.Comma(int64(e.Size))
}

// BuildCatalog walks an MFT byte buffer record-by-record and returns
// every entry spec.md §4.7 says to retain, in MFT ordinal order.
func BuildCatalog(mftBytes []byte, recordSize int) []UndeleteEntry {
	records := decodeAllRecords(mftBytes, recordSize)

	byNumber := make(map[uint64]*MftRecord, len(records))
	for _, rec := range records {
		byNumber[rec.RecordNumber] = rec
	}

	var entries []UndeleteEntry
	for _, rec := range records {
		if rec.Corrupt || rec.InUse() || rec.IsDirectory() {
			continue
		}
		best := rec.BestFileName()
		if best == nil || best.Name == "" {
			continue
		}

		entries = append(entries, UndeleteEntry{
			RecordNumber: rec.RecordNumber,
			FullPath:     resolvePath(rec, byNumber),
			Size:         best.RealSize,
			Record:       rec,
		})
	}

	cataloglog.Debugf(nil, "catalog built: %d candidates of %d decoded records", len(entries), len(records))
	return entries
}

func decodeAllRecords(mftBytes []byte, recordSize int) []*MftRecord {
	if recordSize <= 0 {
		return nil
	}

	var records []*MftRecord
	count := uint64(len(mftBytes) / recordSize)
	for ordinal := uint64(0); ordinal < count; ordinal++ {
		start := int(ordinal) * recordSize
		buf := mftBytes[start : start+recordSize]

		rec, err := DecodeRecord(buf, ordinal)
		if err != nil {
			cataloglog.Warningf(nil, "skipping record %d: %v", ordinal, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// resolvePath follows FILE_NAME.Parent references upward, per spec.md
// §4.7 step 4, concatenating names with "/" and stopping at the root
// record or a cycle. Any ancestor that is itself unallocated, missing,
// or unreadable causes resolvePath to fall back to the bare filename
// rather than fail the whole entry.
func resolvePath(rec *MftRecord, byNumber map[uint64]*MftRecord) string {
	best := rec.BestFileName()
	if best == nil {
		return ""
	}

	var parts []string
	visited := make(map[uint64]bool)

	current := rec
	currentName := best
	for {
		parts = append([]string{currentName.Name}, parts...)

		if current.RecordNumber == rootRecordNumber {
			break
		}

		parentNumber := currentName.Parent.RecordNumber()
		if parentNumber == rootRecordNumber {
			break
		}
		if visited[parentNumber] || parentNumber == current.RecordNumber {
			break
		}
		visited[parentNumber] = true

		// An ancestor that is missing, unallocated (itself a deleted
		// directory), or without a readable FILE_NAME ends the walk with
		// the bare filename.
		parent, ok := byNumber[parentNumber]
		if !ok || !parent.InUse() {
			return best.Name
		}

		parentName := parent.BestFileName()
		if parentName == nil {
			return best.Name
		}

		current = parent
		currentName = parentName
	}

	return strings.Join(parts, "/")
}
