package scan

import (
	"github.com/tphakala/seismo-go/internal/errors"
)

var (
	// ErrTraceCountMismatch means the streams of an archive hold different
	// numbers of traces. The archive is skipped.
	ErrTraceCountMismatch = errors.NewStd("streams have unequal trace counts")

	// ErrSamplingRateMismatch means traces that would share a batch were
	// recorded at different rates. The archive is skipped.
	ErrSamplingRateMismatch = errors.NewStd("traces have unequal sampling rates")

	// ErrOriginalLengthMismatch means an untouched trace and its
	// preprocessed counterpart diverge inside a batch. The run stops.
	ErrOriginalLengthMismatch = errors.NewStd("original and preprocessed traces differ in length")
)

// IsArchiveSkip reports whether err only invalidates the current archive.
func IsArchiveSkip(err error) bool {
	return errors.IsCategory(err, errors.CategoryArchive) ||
		errors.IsCategory(err, errors.CategoryAlignment)
}
