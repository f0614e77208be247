package ntfs_test

import "encoding/binary"

// recordBuilder assembles a synthetic MFT record buffer byte by byte,
// mirroring the layout RecordDecoder consumes, so tests can exercise the
// decoder without needing a real NTFS image.
type recordBuilder struct {
	size int
	buf  []byte
}

func newRecordBuilder(size int) *recordBuilder {
	return &recordBuilder{size: size, buf: make([]byte, size)}
}

const usaOffset = 48

// finish applies the fixup scheme RecordDecoder expects: the two bytes
// at the end of every 512-byte sector are replaced with a shared check
// value, and the real bytes are parked in the update-sequence array so
// DecodeRecord can restore them.
func (b *recordBuilder) finish(inUse, directory bool) []byte {
	copy(b.buf[0:4], "FILE")

	sectors := b.size / 512
	usaSize := sectors + 1
	binary.LittleEndian.PutUint16(b.buf[4:6], usaOffset)
	binary.LittleEndian.PutUint16(b.buf[6:8], uint16(usaSize))

	check := [2]byte{0xAA, 0x55}
	copy(b.buf[usaOffset:usaOffset+2], check[:])

	for i := 1; i <= sectors; i++ {
		pos := i*512 - 2
		entryOffset := usaOffset + i*2
		copy(b.buf[entryOffset:entryOffset+2], b.buf[pos:pos+2])
		copy(b.buf[pos:pos+2], check[:])
	}

	binary.LittleEndian.PutUint16(b.buf[16:18], 1) // sequence

	var flags uint16
	if inUse {
		flags |= 1
	}
	if directory {
		flags |= 2
	}
	binary.LittleEndian.PutUint16(b.buf[22:24], flags)

	return b.buf
}

func (b *recordBuilder) setAttrsOffset(offset uint16) {
	binary.LittleEndian.PutUint16(b.buf[20:22], offset)
}

func (b *recordBuilder) setRecordNumber(n uint32) {
	binary.LittleEndian.PutUint32(b.buf[44:48], n)
}

// writeEnd writes the 0xFFFFFFFF attribute-list terminator at offset.
func (b *recordBuilder) writeEnd(offset int) {
	binary.LittleEndian.PutUint32(b.buf[offset:offset+4], 0xFFFFFFFF)
}

// writeResidentFileName writes a resident $FILE_NAME attribute at offset
// and returns the offset immediately after it.
func writeResidentFileName(buf []byte, offset int, parent uint64, name string, namespace byte, realSize uint64) int {
	nameUTF16 := encodeUTF16(name)
	contentLen := 66 + len(nameUTF16)
	headerLen := align8(24 + contentLen)

	binary.LittleEndian.PutUint32(buf[offset:offset+4], 0x30) // FILE_NAME
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], uint32(headerLen))
	buf[offset+8] = 0 // resident
	buf[offset+9] = 0 // name_length (attribute name, not file name)
	binary.LittleEndian.PutUint16(buf[offset+10:offset+12], 24)
	binary.LittleEndian.PutUint32(buf[offset+16:offset+20], uint32(contentLen))
	binary.LittleEndian.PutUint16(buf[offset+20:offset+22], 24)

	content := offset + 24
	binary.LittleEndian.PutUint64(buf[content:content+8], parent)
	binary.LittleEndian.PutUint64(buf[content+48:content+56], realSize)
	buf[content+64] = byte(len(name))
	buf[content+65] = namespace
	copy(buf[content+66:content+66+len(nameUTF16)], nameUTF16)

	return offset + headerLen
}

// writeResidentData writes a resident unnamed $DATA attribute at offset
// and returns the offset immediately after it.
func writeResidentData(buf []byte, offset int, content []byte) int {
	headerLen := align8(24 + len(content))

	binary.LittleEndian.PutUint32(buf[offset:offset+4], 0x80) // DATA
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], uint32(headerLen))
	buf[offset+8] = 0
	buf[offset+9] = 0
	binary.LittleEndian.PutUint16(buf[offset+10:offset+12], 24)
	binary.LittleEndian.PutUint32(buf[offset+16:offset+20], uint32(len(content)))
	binary.LittleEndian.PutUint16(buf[offset+20:offset+22], 24)

	copy(buf[offset+24:offset+24+len(content)], content)

	return offset + headerLen
}

// writeNonResidentData writes a non-resident unnamed $DATA attribute
// (header + raw data-run bytes) at offset and returns the offset
// immediately after it.
func writeNonResidentData(buf []byte, offset int, allocatedSize, realSize uint64, runs []byte) int {
	runsOffset := 64
	headerLen := align8(runsOffset + len(runs))

	binary.LittleEndian.PutUint32(buf[offset:offset+4], 0x80)
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], uint32(headerLen))
	buf[offset+8] = 1 // non-resident
	buf[offset+9] = 0
	binary.LittleEndian.PutUint16(buf[offset+10:offset+12], 24)
	binary.LittleEndian.PutUint64(buf[offset+16:offset+24], 0)  // first VCN
	binary.LittleEndian.PutUint64(buf[offset+24:offset+32], 0)  // last VCN
	binary.LittleEndian.PutUint16(buf[offset+32:offset+34], uint16(runsOffset))
	binary.LittleEndian.PutUint64(buf[offset+40:offset+48], allocatedSize)
	binary.LittleEndian.PutUint64(buf[offset+48:offset+56], realSize)
	binary.LittleEndian.PutUint64(buf[offset+56:offset+64], realSize)

	copy(buf[offset+runsOffset:offset+runsOffset+len(runs)], runs)

	return offset + headerLen
}

func align8(n int) int {
	if n%8 == 0 {
		return n
	}
	return n + (8 - n%8)
}

func encodeUTF16(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}
