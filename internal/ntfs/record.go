package ntfs

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	log "github.com/dsoprea/go-logging"
)

var reclog = log.NewLogger("ntfs.record")

const (
	recordMagicFile = "FILE"
	recordMagicBaad = "BAAD"
	attrEnd         = 0xFFFFFFFF
)

// RecordFlag holds the header bit flags MFT records carry. Only the two
// bits the core cares about are named; the rest of the field is preserved
// unexamined.
type RecordFlag uint16

const (
	FlagInUse    RecordFlag = 1 << 0
	FlagDirectory RecordFlag = 1 << 1
)

// AttributeType is an NTFS attribute type code.
type AttributeType uint32

const (
	AttrStandardInformation AttributeType = 0x10
	AttrAttributeList       AttributeType = 0x20
	AttrFileName            AttributeType = 0x30
	AttrObjectID            AttributeType = 0x40
	AttrData                AttributeType = 0x80
	AttrIndexRoot           AttributeType = 0x90
	AttrIndexAllocation     AttributeType = 0xA0
)

// Residency distinguishes an attribute whose content lives inside the
// record from one whose content lives in clusters located via data runs.
type Residency int

const (
	Resident Residency = iota
	NonResident
)

// Namespace is the NTFS FILE_NAME naming convention. When a record has
// more than one FILE_NAME attribute, Win32 is preferred for display over
// the DOS 8.3 alias, per spec.md §4.5 step 5 generalized to all four
// namespace values the format defines.
type Namespace uint8

const (
	NamespacePosix       Namespace = 0
	NamespaceWin32       Namespace = 1
	NamespaceDos         Namespace = 2
	NamespaceWin32AndDos Namespace = 3
)

var namespacePriority = map[Namespace]int{
	NamespaceWin32:       3,
	NamespaceWin32AndDos: 2,
	NamespacePosix:       1,
	NamespaceDos:         0,
}

// FileNameAttribute is a decoded $FILE_NAME (0x30) attribute.
type FileNameAttribute struct {
	Parent        MftRef
	Name          string
	Namespace     Namespace
	AllocatedSize uint64
	RealSize      uint64
}

// DataAttribute is a decoded $DATA (0x80) attribute, resident or not.
type DataAttribute struct {
	Residency       Residency
	ResidentPayload []byte
	VcnFirst        uint64
	VcnLast         uint64
	AllocatedSize   uint64
	RealSize        uint64
	DataRuns        []DataRun
	// Compressed and Encrypted mirror the attribute header's common
	// Flags field (0x0001, 0x4000). Neither compression nor encryption
	// is supported (spec.md §9 Open Question); FileReconstructor returns
	// EmptyData rather than attempting to decode either.
	Compressed bool
	Encrypted  bool
}

// Attribute is one decoded attribute header plus its typed content, for
// the attribute types this module understands. Untyped attributes still
// appear in MftRecord.Attributes (for completeness of iteration) with
// FileName and Data left nil.
type Attribute struct {
	Type      AttributeType
	Name      string
	Residency Residency
	Raw       []byte
	FileName  *FileNameAttribute
	Data      *DataAttribute
}

// MftRecord is a decoded 1024-byte (or boot-sector-sized) MFT record.
type MftRecord struct {
	RecordNumber  uint64
	Sequence      uint16
	Flags         RecordFlag
	Corrupt       bool
	BaseReference MftRef
	Attributes    []Attribute
}

func (r *MftRecord) InUse() bool      { return r.Flags&FlagInUse != 0 }
func (r *MftRecord) IsDirectory() bool { return r.Flags&FlagDirectory != 0 }

// FileNames returns every decoded FILE_NAME attribute on the record.
func (r *MftRecord) FileNames() []*FileNameAttribute {
	var out []*FileNameAttribute
	for i := range r.Attributes {
		if r.Attributes[i].FileName != nil {
			out = append(out, r.Attributes[i].FileName)
		}
	}
	return out
}

// BestFileName returns the FILE_NAME attribute with the highest display
// priority (Win32 > Win32AndDos > Posix > Dos), or nil if the record has
// none.
func (r *MftRecord) BestFileName() *FileNameAttribute {
	var best *FileNameAttribute
	bestPriority := -1
	for _, fn := range r.FileNames() {
		if p := namespacePriority[fn.Namespace]; p > bestPriority {
			best, bestPriority = fn, p
		}
	}
	return best
}

// UnnamedData returns the record's unnamed $DATA attribute, or nil if it
// has none (spec.md §4.6: "a deleted record may have had its attributes
// recycled").
func (r *MftRecord) UnnamedData() *DataAttribute {
	for i := range r.Attributes {
		a := &r.Attributes[i]
		if a.Type == AttrData && a.Name == "" {
			return a.Data
		}
	}
	return nil
}

// DecodeRecord parses a single record_size buffer per spec.md §4.5.
// ordinal is this record's position in the MFT, used as RecordNumber
// when the record header does not itself carry one.
func DecodeRecord(buf []byte, ordinal uint64) (rec *MftRecord, err error) {
	defer func() {
		if state := recover(); state != nil {
			if e, ok := state.(error); ok {
				err = log.Wrap(e)
			} else {
				err = newError(KindInvalidRecord, fmt.Sprintf("panic decoding record %d: %v", ordinal, state), nil)
			}
		}
	}()

	if len(buf) < 48 {
		return nil, newError(KindInvalidRecord, fmt.Sprintf("record %d buffer too small", ordinal), nil)
	}

	switch string(buf[0:4]) {
	case recordMagicBaad:
		return &MftRecord{RecordNumber: ordinal, Corrupt: true}, nil
	case recordMagicFile:
	default:
		return nil, newError(KindInvalidRecord, fmt.Sprintf("record %d has bad magic %q", ordinal, buf[0:4]), nil)
	}

	if err := applyFixup(buf); err != nil {
		return nil, err
	}

	sequence := binary.LittleEndian.Uint16(buf[16:18])
	attrsOffset := binary.LittleEndian.Uint16(buf[20:22])
	flags := RecordFlag(binary.LittleEndian.Uint16(buf[22:24]))
	baseRef := newMftRef(binary.LittleEndian.Uint64(buf[32:40]))

	recordNumber := ordinal
	if headerNumber := binary.LittleEndian.Uint32(buf[44:48]); headerNumber != 0 {
		recordNumber = uint64(headerNumber)
	}

	rec = &MftRecord{
		RecordNumber:  recordNumber,
		Sequence:      sequence,
		Flags:         flags,
		BaseReference: baseRef,
	}

	offset := int(attrsOffset)
	for offset+16 <= len(buf) {
		typeCode := binary.LittleEndian.Uint32(buf[offset:])
		if typeCode == attrEnd || typeCode == 0 {
			break
		}

		length := binary.LittleEndian.Uint32(buf[offset+4:])
		if length == 0 || offset+int(length) > len(buf) {
			break
		}

		attr, attrErr := decodeAttribute(buf[offset : offset+int(length)])
		if attrErr != nil {
			reclog.Warningf(nil, "skipping attribute at offset %d in record %d: %v", offset, recordNumber, attrErr)
		} else if attr != nil {
			rec.Attributes = append(rec.Attributes, *attr)
		}

		offset += int(length)
	}

	return rec, nil
}

func applyFixup(buf []byte) error {
	usaOffset := binary.LittleEndian.Uint16(buf[4:6])
	usaSize := binary.LittleEndian.Uint16(buf[6:8])
	if usaSize < 2 {
		return nil
	}
	if int(usaOffset)+int(usaSize)*2 > len(buf) {
		return newError(KindFixupMismatch, "update sequence array out of bounds", nil)
	}

	check := [2]byte{buf[usaOffset], buf[usaOffset+1]}

	for i := uint16(1); i < usaSize; i++ {
		sectorEnd := int(i) * 512
		if sectorEnd > len(buf) {
			break
		}
		pos := sectorEnd - 2
		if buf[pos] != check[0] || buf[pos+1] != check[1] {
			return newError(KindFixupMismatch, fmt.Sprintf("sector %d check bytes mismatch", i), nil)
		}

		entryOffset := int(usaOffset) + int(i)*2
		buf[pos] = buf[entryOffset]
		buf[pos+1] = buf[entryOffset+1]
	}

	return nil
}

func decodeAttribute(raw []byte) (*Attribute, error) {
	if len(raw) < 16 {
		return nil, newError(KindInvalidRecord, "attribute header truncated", nil)
	}

	typeCode := binary.LittleEndian.Uint32(raw[0:4])
	nonResident := raw[8]
	nameLength := raw[9]
	nameOffset := binary.LittleEndian.Uint16(raw[10:12])
	headerFlags := binary.LittleEndian.Uint16(raw[12:14])
	compressed := headerFlags&0x0001 != 0
	encrypted := headerFlags&0x4000 != 0

	var name string
	if nameLength > 0 {
		end := int(nameOffset) + int(nameLength)*2
		if end <= len(raw) {
			name = decodeUTF16(raw[nameOffset:end])
		}
	}

	attr := &Attribute{Type: AttributeType(typeCode), Name: name}

	if nonResident == 0 {
		attr.Residency = Resident
		if len(raw) < 24 {
			return nil, newError(KindInvalidRecord, "resident attribute header truncated", nil)
		}
		valueLength := binary.LittleEndian.Uint32(raw[16:20])
		valueOffset := binary.LittleEndian.Uint16(raw[20:22])
		end := int(valueOffset) + int(valueLength)
		if end > len(raw) {
			return nil, newError(KindInvalidRecord, "resident value out of bounds", nil)
		}
		content := append([]byte(nil), raw[valueOffset:end]...)
		attr.Raw = content

		switch AttributeType(typeCode) {
		case AttrFileName:
			if fn, err := decodeFileName(content); err == nil {
				attr.FileName = fn
			}
		case AttrData:
			attr.Data = &DataAttribute{
				Residency:       Resident,
				ResidentPayload: content,
				RealSize:        uint64(len(content)),
				Compressed:      compressed,
				Encrypted:       encrypted,
			}
		}

		return attr, nil
	}

	attr.Residency = NonResident
	if len(raw) < 64 {
		return nil, newError(KindInvalidRecord, "non-resident attribute header truncated", nil)
	}

	vcnFirst := binary.LittleEndian.Uint64(raw[16:24])
	vcnLast := binary.LittleEndian.Uint64(raw[24:32])
	runsOffset := binary.LittleEndian.Uint16(raw[32:34])
	allocatedSize := binary.LittleEndian.Uint64(raw[40:48])
	realSize := binary.LittleEndian.Uint64(raw[48:56])

	var runs []DataRun
	if int(runsOffset) < len(raw) {
		runs = decodeDataRuns(raw[runsOffset:])
	}

	if typeCode == uint32(AttrData) {
		attr.Data = &DataAttribute{
			Residency:     NonResident,
			VcnFirst:      vcnFirst,
			VcnLast:       vcnLast,
			AllocatedSize: allocatedSize,
			RealSize:      realSize,
			DataRuns:      runs,
			Compressed:    compressed,
			Encrypted:     encrypted,
		}
	}

	return attr, nil
}

func decodeFileName(content []byte) (*FileNameAttribute, error) {
	if len(content) < 66 {
		return nil, newError(KindInvalidRecord, "file_name attribute truncated", nil)
	}

	parentRaw := binary.LittleEndian.Uint64(content[0:8])
	allocatedSize := binary.LittleEndian.Uint64(content[40:48])
	realSize := binary.LittleEndian.Uint64(content[48:56])
	nameLength := content[64]
	namespace := Namespace(content[65])

	end := 66 + int(nameLength)*2
	if end > len(content) {
		return nil, newError(KindInvalidRecord, "file_name name truncated", nil)
	}

	return &FileNameAttribute{
		Parent:        newMftRef(parentRaw),
		Name:          decodeUTF16(content[66:end]),
		Namespace:     namespace,
		AllocatedSize: allocatedSize,
		RealSize:      realSize,
	}, nil
}

func decodeUTF16(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u16))
}
