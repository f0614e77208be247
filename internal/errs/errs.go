// Package errs is the single error vocabulary shared by the disk and
// ntfs packages. Keeping it as its own leaf package (rather than living
// inside ntfs) lets disk.Source construction report NotFound and
// MountNotFound without creating an import cycle back into ntfs.
package errs

import "fmt"

// Kind classifies the failure modes the core can report, per spec.md
// §7. Every kind is represented once here rather than as a separate Go
// error type per kind, so a caller can do errors.As(err, &e) and switch
// on e.Kind() the way the original Rust implementation's single
// UndeleteError enum let callers match on variant.
type Kind int

const (
	// KindInputValidation covers missing arguments or an output directory
	// that does not exist when one is required.
	KindInputValidation Kind = iota
	// KindNotFound means the source path does not exist.
	KindNotFound
	// KindMountNotFound means a directory argument is not a mount point.
	KindMountNotFound
	// KindUnsupportedFileSystem means the boot sector classified as
	// something other than NTFS.
	KindUnsupportedFileSystem
	// KindSignatureNotFound means MftLocator's fallback scan exhausted
	// the medium without finding an MFT record signature.
	KindSignatureNotFound
	// KindInvalidRecord means a record's magic bytes were neither "FILE"
	// nor "BAAD", or a structural field was out of bounds.
	KindInvalidRecord
	// KindFixupMismatch means the update-sequence check bytes did not
	// match at a sector boundary.
	KindFixupMismatch
	// KindExtentRead means a positioned read of a data-run extent
	// failed.
	KindExtentRead
	// KindEmptyData means the selected record has no $DATA attribute to
	// reconstruct.
	KindEmptyData
	// KindIO covers any other positional read failure.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "InputValidation"
	case KindNotFound:
		return "NotFound"
	case KindMountNotFound:
		return "MountNotFound"
	case KindUnsupportedFileSystem:
		return "UnsupportedFileSystem"
	case KindSignatureNotFound:
		return "SignatureNotFound"
	case KindInvalidRecord:
		return "InvalidRecord"
	case KindFixupMismatch:
		return "FixupMismatch"
	case KindExtentRead:
		return "ExtentRead"
	case KindEmptyData:
		return "EmptyData"
	case KindIO:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across package boundaries in
// this module. Detail carries the kind-specific context (a path, an
// (lcn,length) pair rendered as text, ...); Cause is the wrapped
// lower-level error, if any.
type Error struct {
	kind   Kind
	Detail string
	Cause  error
}

// New constructs an Error of the given kind.
func New(kind Kind, detail string, cause error) *Error {
	return &Error{kind: kind, Detail: detail, Cause: cause}
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Detail == "" {
			return fmt.Sprintf("%s: %v", e.kind, e.Cause)
		}
		return fmt.Sprintf("%s: %s: %v", e.kind, e.Detail, e.Cause)
	}
	if e.Detail == "" {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// ExtentReadDetail formats the (lcn,length) pair spec.md's ExtentRead
// error kind names, so callers logging the error see the failing extent
// without reaching into the cause.
func ExtentReadDetail(lcn int64, length uint64) string {
	return fmt.Sprintf("lcn=%d length=%d", lcn, length)
}
