package ntfs

// DataRun is one decoded extent of a non-resident attribute's data-run
// list. Lcn is the absolute logical cluster number this run starts at;
// it is meaningless when Sparse is true (a sparse run has length only,
// spec.md §3 — its on-disk offset field is absent, not zero-by-value, so
// Sparse is tracked explicitly rather than inferred from Lcn==0).
type DataRun struct {
	Lcn    int64
	Length uint64
	Sparse bool
}

// decodeDataRuns walks the variable-length data-run list format described
// in spec.md §4.6: a header byte (low nibble = length-field byte count,
// high nibble = offset-field byte count) terminated by a zero header
// byte. The offset field is a *signed*, sign-extended delta applied to a
// running LCN — treating it as unsigned silently corrupts every
// reconstruction that follows a backward-fragmented run (spec.md §9).
func decodeDataRuns(data []byte) []DataRun {
	var runs []DataRun
	var currentLCN int64

	for i := 0; i < len(data); {
		header := data[i]
		if header == 0 {
			break
		}

		lengthBytes := int(header & 0x0F)
		offsetBytes := int(header >> 4)

		if i+1+lengthBytes+offsetBytes > len(data) {
			break
		}

		var length uint64
		for j := 0; j < lengthBytes; j++ {
			length |= uint64(data[i+1+j]) << (8 * uint(j))
		}

		sparse := offsetBytes == 0
		if !sparse {
			var delta int64
			for j := 0; j < offsetBytes; j++ {
				delta |= int64(data[i+1+lengthBytes+j]) << (8 * uint(j))
			}
			if data[i+lengthBytes+offsetBytes]&0x80 != 0 {
				for j := offsetBytes; j < 8; j++ {
					delta |= int64(0xFF) << (8 * uint(j))
				}
			}
			currentLCN += delta
		}

		runs = append(runs, DataRun{Lcn: currentLCN, Length: length, Sparse: sparse})

		i += 1 + lengthBytes + offsetBytes
	}

	return runs
}
