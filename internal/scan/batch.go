package scan

import (
	"fmt"
	"iter"

	"github.com/tphakala/seismo-go/internal/errors"
)

// Batch is the sample range [Start, End) of an aligned group.
type Batch struct {
	Index int
	Start int
	End   int
}

// Len returns the batch size in samples.
func (b Batch) Len() int {
	return b.End - b.Start
}

func (b Batch) String() string {
	return fmt.Sprintf("batch %d [%d, %d)", b.Index, b.Start, b.End)
}

// BatchCount returns floor(length/size) plus one for a nonzero remainder.
func BatchCount(length, size int) int {
	if length <= 0 || size <= 0 {
		return 0
	}
	n := length / size
	if length%size != 0 {
		n++
	}
	return n
}

// Batches yields consecutive batches covering length samples. Every batch
// holds size samples except a shorter final one when length is not a
// multiple of size. Each range over the sequence starts again from zero.
func Batches(length, size int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for i := range BatchCount(length, size) {
			start := i * size
			if !yield(Batch{Index: i, Start: start, End: min(start+size, length)}) {
				return
			}
		}
	}
}

// checkOriginal verifies that the untouched group holds the same samples
// for b as the preprocessed one.
func checkOriginal(b Batch, processed, original *AlignedGroup, batchSize int) error {
	var origLen int
	for ob := range Batches(original.Len(), batchSize) {
		if ob.Index == b.Index {
			origLen = ob.Len()
			break
		}
	}
	if origLen == b.Len() && original.Channels() == processed.Channels() {
		return nil
	}
	return errors.New(fmt.Errorf("%w: group %d %s has %d samples, original has %d",
		ErrOriginalLengthMismatch, processed.Index, b, b.Len(), origLen)).
		Component("scan").
		Category(errors.CategoryBatch).
		Priority(errors.PriorityCritical).
		Build()
}
