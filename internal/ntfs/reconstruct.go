package ntfs

import (
	log "github.com/dsoprea/go-logging"

	"github.com/shubham/ntfsundelete/internal/disk"
)

var reconlog = log.NewLogger("ntfs.reconstruct")

// Reconstruct returns the full content a $DATA attribute would have had
// on disk, per spec.md §4.6.
//
// Resident data is returned verbatim. Non-resident data is read extent
// by extent — sparse runs contribute zeros without issuing I/O — into a
// buffer sized to RealSize exactly, never AllocatedSize: tail slack
// inside the last allocated cluster is dropped, not returned.
//
// A per-extent read failure fails only this reconstruction, wrapped as
// ExtentRead(lcn,length,cause); callers reconstructing a batch of files
// should treat one such failure as independent of the rest (spec.md §7).
func Reconstruct(source *disk.Source, data *DataAttribute, clusterSize int) ([]byte, error) {
	if data == nil {
		return nil, newError(KindEmptyData, "record has no $DATA attribute", nil)
	}

	if data.Compressed || data.Encrypted {
		return nil, newError(KindEmptyData, "compressed and encrypted $DATA are unsupported", nil)
	}

	if data.Residency == Resident {
		out := data.ResidentPayload
		if uint64(len(out)) > data.RealSize {
			out = out[:data.RealSize]
		}
		return out, nil
	}

	out := make([]byte, data.RealSize)
	var written uint64

	for _, run := range data.DataRuns {
		if written >= data.RealSize {
			break
		}

		extentBytes := run.Length * uint64(clusterSize)
		toWrite := extentBytes
		if remaining := data.RealSize - written; toWrite > remaining {
			toWrite = remaining
		}

		if run.Sparse {
			// out is already zeroed; just advance past it.
			written += toWrite
			continue
		}

		offset := run.Lcn * int64(clusterSize)
		buf := make([]byte, extentBytes)
		if _, err := source.ReadAt(buf, offset); err != nil {
			reconlog.Warningf(nil, "extent read failed at lcn=%d length=%d: %v", run.Lcn, run.Length, err)
			return nil, newError(KindExtentRead, errsExtentReadDetail(run.Lcn, run.Length), err)
		}

		copy(out[written:written+toWrite], buf[:toWrite])
		written += toWrite
	}

	return out[:written], nil
}
