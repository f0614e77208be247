package ntfs

import "github.com/shubham/ntfsundelete/internal/errs"

// Re-exported so callers outside this package can do
// errors.As(err, &ntfsErr) against a single ntfs.Error type without also
// importing the internal/errs package directly.
type (
	Error = errs.Error
	Kind  = errs.Kind
)

const (
	KindInputValidation       = errs.KindInputValidation
	KindNotFound              = errs.KindNotFound
	KindMountNotFound         = errs.KindMountNotFound
	KindUnsupportedFileSystem = errs.KindUnsupportedFileSystem
	KindSignatureNotFound     = errs.KindSignatureNotFound
	KindInvalidRecord         = errs.KindInvalidRecord
	KindFixupMismatch         = errs.KindFixupMismatch
	KindExtentRead            = errs.KindExtentRead
	KindEmptyData             = errs.KindEmptyData
	KindIO                    = errs.KindIO
)

func newError(kind Kind, detail string, cause error) *Error {
	return errs.New(kind, detail, cause)
}

func errsExtentReadDetail(lcn int64, length uint64) string {
	return errs.ExtentReadDetail(lcn, length)
}

// UnsupportedFileSystemError constructs the KindUnsupportedFileSystem
// error for a non-NTFS classification result.
func UnsupportedFileSystemError(kind FileSystemKind) error {
	return newError(KindUnsupportedFileSystem, kind.String(), nil)
}

// NewInputValidationError constructs the KindInputValidation error CLI
// argument checks and the empty-selection case (spec.md §7, §8 scenario
// 6) report.
func NewInputValidationError(detail string) error {
	return newError(KindInputValidation, detail, nil)
}
